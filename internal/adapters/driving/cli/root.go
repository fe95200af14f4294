// Package cli is the recall command line. Commands reach the core through
// package-level driving ports installed by SetServices.
package cli

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// version is set by SetVersion, normally from ldflags in main.
var version = "dev"

var verbose bool

var (
	documentService driving.DocumentService
	searchService   driving.SearchService
	questionService driving.QuestionService
	reviewService   driving.ReviewService
	chatService     driving.ChatService
	sessionService  driving.SessionService
	planService     driving.PlanService
	textService     driving.TextService
	settingsService driving.SettingsService
	configStore     driven.ConfigStore
	scheduler       driving.Scheduler
	metricsHandler  http.Handler

	// supports reports whether a file type can be ingested.
	supports func(path string) bool

	startupWarnings []string
)

// Services is everything the commands need. Nil fields disable the
// commands that depend on them.
type Services struct {
	Document  driving.DocumentService
	Search    driving.SearchService
	Question  driving.QuestionService
	Review    driving.ReviewService
	Chat      driving.ChatService
	Session   driving.SessionService
	Plan      driving.PlanService
	Text      driving.TextService
	Settings  driving.SettingsService
	Config    driven.ConfigStore
	Scheduler driving.Scheduler

	// Metrics is mounted at /metrics when the MCP server runs over HTTP.
	Metrics http.Handler

	// Supports filters files picked up by the watch command.
	Supports func(path string) bool

	// Warnings from wiring are logged once verbosity is known.
	Warnings []string
}

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Study documents with generated questions and spaced repetition",
	Long: `recall ingests study material, indexes it for semantic search,
generates quiz questions with an LLM and schedules them for review.

Start by ingesting a file:
  recall ingest notes.md

Then generate questions and review them:
  recall question generate <doc-id> --count 5
  recall review <doc-id>

Plan and track study time:
  recall plan generate "Cell biology" --goal "Pass the midterm" --timeframe "2 weeks"
  recall session start <doc-id>`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
		for _, w := range startupWarnings {
			logger.Debug("%s", w)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices installs the driving ports used by the commands.
func SetServices(s Services) {
	documentService = s.Document
	searchService = s.Search
	questionService = s.Question
	reviewService = s.Review
	chatService = s.Chat
	sessionService = s.Session
	planService = s.Plan
	textService = s.Text
	settingsService = s.Settings
	configStore = s.Config
	scheduler = s.Scheduler
	metricsHandler = s.Metrics
	supports = s.Supports
	startupWarnings = s.Warnings
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
		rootCmd.Version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
