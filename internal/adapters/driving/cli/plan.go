package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

var (
	planGoal      string
	planTimeframe string
	planHours     int
	planDocID     string
	planYAML      bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate and manage study plans",
	Long:  `Generate week-by-week study plans with the LLM and keep them for later.`,
}

var planGenerateCmd = &cobra.Command{
	Use:   "generate [subject]",
	Short: "Generate a study plan",
	Long: `Asks the LLM for a week-by-week plan and saves it.

Example:
  recall plan generate "Cell biology" --goal "Pass the midterm" --timeframe "2 weeks" --hours 6`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlanGenerate,
}

var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved plans",
	Args:  cobra.NoArgs,
	RunE:  runPlanList,
}

var planShowCmd = &cobra.Command{
	Use:   "show [plan-id]",
	Short: "Show a saved plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanShow,
}

var planDeleteCmd = &cobra.Command{
	Use:   "delete [plan-id]",
	Short: "Delete a plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanDelete,
}

var planClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every plan",
	Args:  cobra.NoArgs,
	RunE:  runPlanClear,
}

func init() {
	planGenerateCmd.Flags().StringVar(&planGoal, "goal", "", "what the plan should achieve (required)")
	planGenerateCmd.Flags().StringVar(&planTimeframe, "timeframe", "", "how long the plan runs, e.g. \"4 weeks\" (required)")
	planGenerateCmd.Flags().IntVar(&planHours, "hours", 10, "study hours available per week")
	planGenerateCmd.Flags().StringVarP(&planDocID, "doc", "d", "", "ground the plan in an ingested document")
	planShowCmd.Flags().BoolVar(&planYAML, "yaml", false, "print the plan as YAML")

	planCmd.AddCommand(planGenerateCmd)
	planCmd.AddCommand(planListCmd)
	planCmd.AddCommand(planShowCmd)
	planCmd.AddCommand(planDeleteCmd)
	planCmd.AddCommand(planClearCmd)
	rootCmd.AddCommand(planCmd)
}

func runPlanGenerate(cmd *cobra.Command, args []string) error {
	if planService == nil {
		return errors.New("plan service not configured")
	}

	subject := strings.Join(args, " ")
	cmd.Printf("Generating a study plan for %s...\n\n", subject)

	plan, err := planService.Generate(context.Background(), driving.PlanRequest{
		Subject:      subject,
		Goal:         planGoal,
		Timeframe:    planTimeframe,
		HoursPerWeek: planHours,
		DocumentID:   planDocID,
	})
	if err != nil {
		return fmt.Errorf("failed to generate plan: %w", err)
	}

	printPlan(cmd, plan)
	return nil
}

func runPlanList(cmd *cobra.Command, _ []string) error {
	if planService == nil {
		return errors.New("plan service not configured")
	}

	plans, err := planService.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list plans: %w", err)
	}
	if len(plans) == 0 {
		cmd.Println("No study plans saved. Run 'recall plan generate <subject>' to create one.")
		return nil
	}

	cmd.Println("Study plans:")
	cmd.Println()
	for i := range plans {
		p := &plans[i]
		cmd.Printf("  %s\n", p.ID)
		cmd.Printf("    Subject: %s\n", p.Subject)
		cmd.Printf("    Goal: %s (%s, %dh/week)\n", p.Goal, p.Timeframe, p.HoursPerWeek)
		cmd.Printf("    Created: %s\n", p.CreatedAt.Local().Format("2006-01-02 15:04"))
		cmd.Println()
	}
	cmd.Printf("Total: %d plans\n", len(plans))
	return nil
}

func runPlanShow(cmd *cobra.Command, args []string) error {
	if planService == nil {
		return errors.New("plan service not configured")
	}

	plan, err := planService.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get plan: %w", err)
	}

	if planYAML {
		data, err := yaml.Marshal(newPlanDocument(plan))
		if err != nil {
			return fmt.Errorf("failed to encode plan: %w", err)
		}
		cmd.Print(string(data))
		return nil
	}
	printPlan(cmd, plan)
	return nil
}

func runPlanDelete(cmd *cobra.Command, args []string) error {
	if planService == nil {
		return errors.New("plan service not configured")
	}

	if err := planService.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	cmd.Printf("Plan %s deleted.\n", args[0])
	return nil
}

func runPlanClear(cmd *cobra.Command, _ []string) error {
	if planService == nil {
		return errors.New("plan service not configured")
	}

	n, err := planService.Clear(context.Background())
	if err != nil {
		return fmt.Errorf("failed to clear plans: %w", err)
	}
	cmd.Printf("Deleted %d plans.\n", n)
	return nil
}

func printPlan(cmd *cobra.Command, plan *domain.StudyPlan) {
	cmd.Printf("Plan: %s\n\n", plan.ID)
	cmd.Printf("  Subject:   %s\n", plan.Subject)
	cmd.Printf("  Goal:      %s\n", plan.Goal)
	cmd.Printf("  Timeframe: %s (%d hours/week)\n", plan.Timeframe, plan.HoursPerWeek)
	if plan.Overview != "" {
		cmd.Printf("\n  Overview:\n    %s\n", plan.Overview)
	}
	for _, week := range plan.Weeks {
		cmd.Printf("\n  Week %d (%.0fh)\n", week.Number, week.Hours)
		printList(cmd, "Focus", week.FocusAreas)
		printList(cmd, "Activities", week.Activities)
		printList(cmd, "Resources", week.Resources)
	}
	if len(plan.Techniques) > 0 {
		cmd.Println()
		printList(cmd, "Techniques", plan.Techniques)
	}
	if len(plan.Milestones) > 0 {
		cmd.Println()
		printList(cmd, "Milestones", plan.Milestones)
	}
}

func printList(cmd *cobra.Command, label string, items []string) {
	if len(items) == 0 {
		return
	}
	cmd.Printf("    %s:\n", label)
	for _, item := range items {
		cmd.Printf("      - %s\n", item)
	}
}

// planDocument is the YAML form of a plan.
type planDocument struct {
	ID           string            `yaml:"id"`
	Subject      string            `yaml:"subject"`
	Goal         string            `yaml:"goal"`
	Timeframe    string            `yaml:"timeframe"`
	HoursPerWeek int               `yaml:"hours_per_week"`
	DocumentID   string            `yaml:"document_id,omitempty"`
	Overview     string            `yaml:"overview"`
	Weeks        []domain.PlanWeek `yaml:"weeks,omitempty"`
	Techniques   []string          `yaml:"techniques,omitempty"`
	Milestones   []string          `yaml:"milestones,omitempty"`
	Created      string            `yaml:"created"`
}

func newPlanDocument(plan *domain.StudyPlan) planDocument {
	return planDocument{
		ID:           plan.ID,
		Subject:      plan.Subject,
		Goal:         plan.Goal,
		Timeframe:    plan.Timeframe,
		HoursPerWeek: plan.HoursPerWeek,
		DocumentID:   plan.DocumentID,
		Overview:     plan.Overview,
		Weeks:        plan.Weeks,
		Techniques:   plan.Techniques,
		Milestones:   plan.Milestones,
		Created:      plan.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
