package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

var reviewLimit int

var reviewCmd = &cobra.Command{
	Use:   "review [doc-id]",
	Short: "Review due questions in the terminal UI",
	Long: `Launches an interactive review session over questions that are due.

Without a document ID, a document picker is shown first. Answers are graded
and scheduled with spaced repetition.

Controls:
  Enter    - Submit answer / next card
  Tab      - Skip card
  Esc      - End session
  q        - Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

var reviewDueCmd = &cobra.Command{
	Use:   "due [doc-id]",
	Short: "List questions due for review",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReviewDue,
}

func init() {
	reviewCmd.PersistentFlags().IntVarP(&reviewLimit, "limit", "n", 20, "maximum questions per session")
	reviewCmd.AddCommand(reviewDueCmd)
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	if reviewService == nil {
		return errors.New("review service not configured")
	}
	if questionService == nil {
		return errors.New("question service not configured")
	}

	cfg := tui.Config{Limit: reviewLimit}
	if len(args) > 0 {
		cfg.DocumentID = args[0]
	}

	app, err := tui.NewApp(tui.NewPorts(reviewService, questionService, documentService, sessionService), cfg)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func runReviewDue(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}

	opts := driving.DueOptions{Limit: reviewLimit, AsOf: time.Now()}
	if len(args) > 0 {
		opts.DocumentID = args[0]
	}

	questions, err := reviewService.DueForReview(context.Background(), opts)
	if err != nil {
		return fmt.Errorf("failed to list due questions: %w", err)
	}

	if len(questions) == 0 {
		cmd.Println("Nothing due for review.")
		return nil
	}

	cmd.Printf("Due for review (%d):\n\n", len(questions))
	for i := range questions {
		q := &questions[i]
		status := "new"
		if q.TimesAnswered > 0 {
			status = fmt.Sprintf("%.0f%%", q.SuccessRate()*100)
		}
		cmd.Printf("  %s  %-5s %s\n", q.ID, status, truncate(q.Text, 90))
	}
	return nil
}
