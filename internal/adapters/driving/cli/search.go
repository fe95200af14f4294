package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
)

var (
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search [doc-id] [query]",
	Short: "Search a document semantically",
	Long: `Embeds the query and returns the document's closest chunks by L2
distance. The document's index is built on first use.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of chunks to return (default from settings)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	docID := args[0]
	query := strings.Join(args[1:], " ")

	result, err := searchService.Search(context.Background(), docID, query, domain.SearchOptions{TopK: searchTopK})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, result)
	}

	return outputSearchTable(cmd, result)
}

func outputSearchJSON(cmd *cobra.Command, result *domain.SearchResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, result *domain.SearchResult) error {
	if len(result.Hits) == 0 {
		if result.Status == domain.StatusNoItems {
			cmd.Println("Document has no indexed chunks.")
		} else {
			cmd.Println("No results found.")
		}
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range result.Hits {
		hit := &result.Hits[i]
		cmd.Printf("  [%d] chunk %d (%.2f)\n", i+1, hit.Index, hit.Score)
		cmd.Printf("      %s\n", truncate(hit.Text, 200))
		cmd.Println()
	}

	return nil
}
