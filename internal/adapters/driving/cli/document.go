package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage ingested documents",
	Long:  `List, view, summarise, reprocess, or delete ingested documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print the document's chunked text",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentChunksCmd = &cobra.Command{
	Use:   "chunks [doc-id]",
	Short: "List the document's chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentChunks,
}

var documentSummariseCmd = &cobra.Command{
	Use:     "summarise [doc-id]",
	Aliases: []string{"summarize"},
	Short:   "Summarise a document with the LLM",
	Args:    cobra.ExactArgs(1),
	RunE:    runDocumentSummarise,
}

var documentReprocessCmd = &cobra.Command{
	Use:   "reprocess [doc-id]",
	Short: "Re-chunk and re-index a document",
	Long:  `Re-chunks the stored content with the current chunking settings and rebuilds the vector index.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentReprocess,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document",
	Long:  `Removes a document together with its chunks, questions and vector index.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentChunksCmd)
	documentCmd.AddCommand(documentSummariseCmd)
	documentCmd.AddCommand(documentReprocessCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found. Run 'recall ingest <path>' to add one.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		doc := &docs[i].Document
		cmd.Printf("  %s\n", doc.ID)
		cmd.Printf("    Title: %s\n", doc.Title)
		if doc.URI != "" {
			cmd.Printf("    URI: %s\n", doc.URI)
		}
		cmd.Printf("    Chunks: %d  Questions: %d\n", docs[i].ChunkCount, docs[i].QuestionCount)
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	indexed := "no"
	if doc.EmbeddingStored {
		indexed = "yes"
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:    %s\n", doc.Title)
	cmd.Printf("  URI:      %s\n", doc.URI)
	cmd.Printf("  Type:     %s\n", doc.MIMEType)
	cmd.Printf("  Indexed:  %s\n", indexed)
	if doc.Truncated {
		cmd.Println("  Note:     text was truncated at ingest")
	}
	cmd.Printf("  Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:  %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))

	if doc.Summary != "" {
		cmd.Printf("\n  Summary:\n    %s\n", doc.Summary)
	}

	if len(doc.Metadata) > 0 {
		cmd.Println("\n  Metadata:")
		for k, v := range doc.Metadata {
			cmd.Printf("    %s: %v\n", k, v)
		}
	}

	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	text, err := documentService.Text(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document content: %w", err)
	}

	cmd.Println(text)
	return nil
}

func runDocumentChunks(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	chunks, err := documentService.Chunks(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}

	if len(chunks) == 0 {
		cmd.Println("Document has no chunks.")
		return nil
	}

	for i := range chunks {
		c := &chunks[i]
		cmd.Printf("[%d] %s (%d-%d)\n", c.Index, c.ID, c.Start, c.End)
		cmd.Printf("    %s\n\n", truncate(c.Text, 160))
	}
	cmd.Printf("Total: %d chunks\n", len(chunks))
	return nil
}

func runDocumentSummarise(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	summary, err := documentService.Summarise(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to summarise document: %w", err)
	}

	cmd.Println(summary)
	return nil
}

func runDocumentReprocess(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]
	cmd.Printf("Reprocessing document %s...\n", docID)

	result, err := documentService.Reprocess(context.Background(), docID)
	if err != nil {
		return fmt.Errorf("failed to reprocess document: %w", err)
	}

	printIngestResult(cmd, result)
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]
	if err := documentService.Delete(context.Background(), docID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", docID)
	return nil
}

// truncate shortens s to n runes on a single line.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
