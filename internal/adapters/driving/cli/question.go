package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

var (
	questionKind       string
	questionCount      int
	questionDifficulty string
	questionOutput     string
)

var questionCmd = &cobra.Command{
	Use:     "question",
	Aliases: []string{"q"},
	Short:   "Generate, list and answer quiz questions",
}

var questionGenerateCmd = &cobra.Command{
	Use:   "generate [doc-id]",
	Short: "Generate questions from a document",
	Long: `Asks the LLM for questions grounded in the document's text.

Kinds: multiple_choice (mcq), open_answer (qa), true_false (tf),
fill_in_blank (fill). Difficulties: easy, medium, hard.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuestionGenerate,
}

var questionListCmd = &cobra.Command{
	Use:   "list [doc-id]",
	Short: "List questions, optionally for one document",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runQuestionList,
}

var questionShowCmd = &cobra.Command{
	Use:   "show [question-id]",
	Short: "Show a question with its answer",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuestionShow,
}

var questionAnswerCmd = &cobra.Command{
	Use:   "answer [question-id] [answer]",
	Short: "Answer a question and record the result",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runQuestionAnswer,
}

var questionDeleteCmd = &cobra.Command{
	Use:   "delete [question-id]",
	Short: "Delete a question",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuestionDelete,
}

var questionExportCmd = &cobra.Command{
	Use:   "export [doc-id]",
	Short: "Export questions as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runQuestionExport,
}

func init() {
	questionGenerateCmd.Flags().StringVar(&questionKind, "kind", "multiple_choice", "question kind")
	questionGenerateCmd.Flags().IntVarP(&questionCount, "count", "n", 5, "number of questions")
	questionGenerateCmd.Flags().StringVar(&questionDifficulty, "difficulty", "medium", "easy, medium or hard")
	questionExportCmd.Flags().StringVarP(&questionOutput, "output", "o", "", "write to file instead of stdout")

	questionCmd.AddCommand(questionGenerateCmd)
	questionCmd.AddCommand(questionListCmd)
	questionCmd.AddCommand(questionShowCmd)
	questionCmd.AddCommand(questionAnswerCmd)
	questionCmd.AddCommand(questionDeleteCmd)
	questionCmd.AddCommand(questionExportCmd)
	rootCmd.AddCommand(questionCmd)
}

func runQuestionGenerate(cmd *cobra.Command, args []string) error {
	if questionService == nil {
		return errors.New("question service not configured")
	}

	kind, err := domain.ParseQuestionKind(questionKind)
	if err != nil {
		return err
	}
	difficulty := domain.Difficulty(strings.ToLower(questionDifficulty))
	if !difficulty.IsValid() {
		return fmt.Errorf("%w: unknown difficulty %q", domain.ErrInvalidInput, questionDifficulty)
	}

	cmd.Printf("Generating %d %s questions...\n", questionCount, strings.ToLower(kind.Description()))

	questions, err := questionService.Generate(context.Background(), driving.GenerateRequest{
		DocumentID: args[0],
		Kind:       kind,
		Count:      questionCount,
		Difficulty: difficulty,
	})
	if err != nil {
		return fmt.Errorf("failed to generate questions: %w", err)
	}

	cmd.Println()
	for i := range questions {
		printQuestion(cmd, &questions[i], false)
	}
	cmd.Printf("Generated %d questions.\n", len(questions))
	return nil
}

func runQuestionList(cmd *cobra.Command, args []string) error {
	if questionService == nil {
		return errors.New("question service not configured")
	}

	var docID string
	if len(args) > 0 {
		docID = args[0]
	}

	questions, err := questionService.List(context.Background(), docID)
	if err != nil {
		return fmt.Errorf("failed to list questions: %w", err)
	}

	if len(questions) == 0 {
		cmd.Println("No questions found.")
		return nil
	}

	now := time.Now()
	for i := range questions {
		q := &questions[i]
		due := ""
		if q.IsDue(now) {
			due = "  [due]"
		}
		cmd.Printf("  %s  %-16s %d/%d%s\n", q.ID, q.Kind, q.TimesCorrect, q.TimesAnswered, due)
		cmd.Printf("    %s\n", truncate(q.Text, 100))
	}
	cmd.Printf("\nTotal: %d questions\n", len(questions))
	return nil
}

func runQuestionShow(cmd *cobra.Command, args []string) error {
	if questionService == nil {
		return errors.New("question service not configured")
	}

	q, err := questionService.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get question: %w", err)
	}

	printQuestion(cmd, q, true)
	if q.TimesAnswered > 0 {
		cmd.Printf("  Record:  %d of %d correct (%.0f%%)\n", q.TimesCorrect, q.TimesAnswered, q.SuccessRate()*100)
	}
	if q.NextReview != nil {
		cmd.Printf("  Review:  %s\n", q.NextReview.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func runQuestionAnswer(cmd *cobra.Command, args []string) error {
	if questionService == nil {
		return errors.New("question service not configured")
	}

	result, err := questionService.Answer(context.Background(), args[0], strings.Join(args[1:], " "))
	if err != nil {
		return fmt.Errorf("failed to answer question: %w", err)
	}

	printEvaluation(cmd, result)
	return nil
}

func runQuestionDelete(cmd *cobra.Command, args []string) error {
	if questionService == nil {
		return errors.New("question service not configured")
	}

	if err := questionService.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	cmd.Printf("Question %s deleted.\n", args[0])
	return nil
}

func runQuestionExport(cmd *cobra.Command, args []string) error {
	if questionService == nil {
		return errors.New("question service not configured")
	}

	var docID string
	if len(args) > 0 {
		docID = args[0]
	}

	data, err := questionService.Export(context.Background(), docID)
	if err != nil {
		return fmt.Errorf("failed to export questions: %w", err)
	}

	if questionOutput == "" {
		cmd.Print(string(data))
		return nil
	}
	if err := os.WriteFile(questionOutput, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", questionOutput, err)
	}
	cmd.Printf("Questions written to %s\n", questionOutput)
	return nil
}

func printQuestion(cmd *cobra.Command, q *domain.Question, withAnswer bool) {
	cmd.Printf("%s  (%s, %s)\n", q.ID, q.Kind.Description(), q.Difficulty)
	cmd.Printf("  %s\n", q.Text)
	if q.Kind.HasOptions() {
		letters := make([]string, 0, len(q.Options))
		for letter := range q.Options {
			letters = append(letters, letter)
		}
		sort.Strings(letters)
		for _, letter := range letters {
			cmd.Printf("    %s) %s\n", letter, q.Options[letter])
		}
	}
	if withAnswer {
		cmd.Printf("  Answer:  %s\n", q.Answer)
		if q.Explanation != "" {
			cmd.Printf("  Why:     %s\n", q.Explanation)
		}
	}
	cmd.Println()
}

func printEvaluation(cmd *cobra.Command, result *driving.AnswerResult) {
	eval := result.Evaluation
	if eval.Correct {
		cmd.Printf("Correct (%d/3)\n", eval.Score)
	} else {
		cmd.Printf("Incorrect (%d/3)\n", eval.Score)
	}
	if eval.Feedback != "" {
		cmd.Printf("  %s\n", eval.Feedback)
	}
	if !eval.Correct && eval.Expected != "" {
		cmd.Printf("  Expected: %s\n", eval.Expected)
	}
	if result.Question.NextReview != nil {
		cmd.Printf("  Next review: %s\n", result.Question.NextReview.Local().Format("2006-01-02 15:04"))
	}
}
