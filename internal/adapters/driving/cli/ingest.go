package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

var (
	ingestTitle   string
	ingestMIME    string
	ingestNoIndex bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]...",
	Short: "Ingest documents for study",
	Long: `Extracts text from each file, splits it into chunks and builds the
document's vector index.

Supported formats are plain text, Markdown, HTML, DOCX and PDF. Ingesting a
path that is already stored replaces the previous document.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "title override (single file only)")
	ingestCmd.Flags().StringVar(&ingestMIME, "mime", "", "MIME type override")
	ingestCmd.Flags().BoolVar(&ingestNoIndex, "no-index", false, "skip building the vector index")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	if ingestTitle != "" && len(args) > 1 {
		return errors.New("--title can only be used with a single file")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var failed int
	for _, path := range args {
		result, err := documentService.Ingest(ctx, driving.IngestRequest{
			Path:     path,
			Title:    ingestTitle,
			MIMEType: ingestMIME,
			NoIndex:  ingestNoIndex,
		})
		if err != nil {
			failed++
			cmd.PrintErrf("Failed to ingest %s: %v\n", path, err)
			continue
		}
		printIngestResult(cmd, result)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to ingest", failed, len(args))
	}
	return nil
}

func printIngestResult(cmd *cobra.Command, result *driving.IngestResult) {
	doc := result.Document
	cmd.Printf("Ingested %s\n", doc.ID)
	cmd.Printf("  Title:  %s\n", doc.Title)
	cmd.Printf("  Chunks: %d\n", result.ChunkCount)
	if result.Capped {
		cmd.Println("  Note:   chunk limit reached, trailing text was dropped")
	}
	switch {
	case result.Indexed:
		cmd.Println("  Index:  built")
	case result.IndexError != "":
		cmd.Printf("  Index:  skipped (%s)\n", result.IndexError)
	default:
		cmd.Println("  Index:  not built")
	}
}
