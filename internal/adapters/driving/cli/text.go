package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
)

var (
	textLength string
	textFormat string
	textStyle  string
	textLevel  string
)

var textCmd = &cobra.Command{
	Use:   "text",
	Short: "Summarise, correct, rephrase or explain text",
	Long: `Runs pasted text through the LLM.

Text is taken from the arguments, or read from stdin when none are given:
  pbpaste | recall text summarise --length short --format bullets`,
}

var textSummariseCmd = &cobra.Command{
	Use:     "summarise [text]",
	Aliases: []string{"summarize"},
	Short:   "Summarise text",
	RunE:    runTextSummarise,
}

var textCorrectCmd = &cobra.Command{
	Use:   "correct [text]",
	Short: "Correct grammar and spelling",
	RunE:  runTextCorrect,
}

var textRephraseCmd = &cobra.Command{
	Use:   "rephrase [text]",
	Short: "Rewrite text in another style",
	RunE:  runTextRephrase,
}

var textExplainCmd = &cobra.Command{
	Use:   "explain [text]",
	Short: "Explain text for a reading level",
	RunE:  runTextExplain,
}

func init() {
	textSummariseCmd.Flags().StringVar(&textLength, "length", "medium", "summary length: short, medium or long")
	textSummariseCmd.Flags().StringVar(&textFormat, "format", "paragraph", "summary format: paragraph or bullets")
	textRephraseCmd.Flags().StringVar(&textStyle, "style", "academic", "style: academic, simple, creative or professional")
	textExplainCmd.Flags().StringVar(&textLevel, "level", "high_school", "level: elementary, middle_school, high_school or college")

	textCmd.AddCommand(textSummariseCmd)
	textCmd.AddCommand(textCorrectCmd)
	textCmd.AddCommand(textRephraseCmd)
	textCmd.AddCommand(textExplainCmd)
	rootCmd.AddCommand(textCmd)
}

// textInput joins the arguments, or reads stdin when there are none.
func textInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func runTextSummarise(cmd *cobra.Command, args []string) error {
	if textService == nil {
		return errors.New("text service not configured")
	}
	text, err := textInput(cmd, args)
	if err != nil {
		return err
	}

	summary, err := textService.Summarise(context.Background(), text,
		domain.SummaryLength(strings.ToLower(textLength)), domain.SummaryFormat(strings.ToLower(textFormat)))
	if err != nil {
		return fmt.Errorf("failed to summarise: %w", err)
	}
	cmd.Println(summary)
	return nil
}

func runTextCorrect(cmd *cobra.Command, args []string) error {
	if textService == nil {
		return errors.New("text service not configured")
	}
	text, err := textInput(cmd, args)
	if err != nil {
		return err
	}

	result, err := textService.Correct(context.Background(), text)
	if err != nil {
		return fmt.Errorf("failed to correct: %w", err)
	}
	cmd.Println(result.Text)
	if len(result.Corrections) > 0 {
		cmd.Println()
		cmd.Println("Changes:")
		for _, c := range result.Corrections {
			cmd.Printf("  %q -> %q", c.Original, c.Corrected)
			if c.Explanation != "" {
				cmd.Printf("  (%s)", c.Explanation)
			}
			cmd.Println()
		}
	}
	return nil
}

func runTextRephrase(cmd *cobra.Command, args []string) error {
	if textService == nil {
		return errors.New("text service not configured")
	}
	text, err := textInput(cmd, args)
	if err != nil {
		return err
	}

	out, err := textService.Rephrase(context.Background(), text, domain.RephraseStyle(strings.ToLower(textStyle)))
	if err != nil {
		return fmt.Errorf("failed to rephrase: %w", err)
	}
	cmd.Println(out)
	return nil
}

func runTextExplain(cmd *cobra.Command, args []string) error {
	if textService == nil {
		return errors.New("text service not configured")
	}
	text, err := textInput(cmd, args)
	if err != nil {
		return err
	}

	level := strings.ReplaceAll(strings.ToLower(textLevel), "-", "_")
	out, err := textService.Explain(context.Background(), text, domain.ExplainLevel(level))
	if err != nil {
		return fmt.Errorf("failed to explain: %w", err)
	}
	cmd.Println(out)
	return nil
}
