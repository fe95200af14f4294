package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var indexAll bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage per-document vector indexes",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build [doc-id]",
	Short: "Rebuild a document's vector index",
	Long: `Embeds the document's chunks and replaces its flat L2 index.
Use --all to rebuild every document.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if indexAll {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runIndexBuild,
}

func init() {
	indexBuildCmd.Flags().BoolVar(&indexAll, "all", false, "rebuild every document")
	indexCmd.AddCommand(indexBuildCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	ctx := context.Background()
	ids := args
	if indexAll {
		if documentService == nil {
			return errors.New("document service not configured")
		}
		docs, err := documentService.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
		ids = make([]string, 0, len(docs))
		for i := range docs {
			ids = append(ids, docs[i].Document.ID)
		}
	}

	var failed int
	for _, id := range ids {
		report, err := searchService.BuildIndex(ctx, id)
		if err != nil {
			failed++
			cmd.PrintErrf("Failed to index %s: %v\n", id, err)
			continue
		}
		cmd.Printf("Indexed %s: %d vectors", id, report.Vectors)
		if report.Sampled < report.Total {
			cmd.Printf(" (sampled %d of %d chunks)", report.Sampled, report.Total)
		}
		if report.Failures > 0 {
			cmd.Printf(", %d failed", report.Failures)
		}
		cmd.Println()
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d indexes failed to build", failed, len(ids))
	}
	return nil
}
