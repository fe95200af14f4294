package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

var (
	sessionKind     string
	sessionNotes    string
	sessionAnswered int
	sessionCorrect  int
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Track study sessions",
	Long: `Start, pause, resume and end timed study sessions.

Review sessions run with 'recall review' are recorded automatically.`,
}

var sessionStartCmd = &cobra.Command{
	Use:   "start [doc-id]",
	Short: "Start a study session",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSessionStart,
}

var sessionPauseCmd = &cobra.Command{
	Use:   "pause [session-id]",
	Short: "Pause an active session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionPause,
}

var sessionResumeCmd = &cobra.Command{
	Use:   "resume [session-id]",
	Short: "Resume a paused session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionResume,
}

var sessionEndCmd = &cobra.Command{
	Use:   "end [session-id]",
	Short: "End a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionEnd,
}

var sessionListCmd = &cobra.Command{
	Use:   "list [doc-id]",
	Short: "List study sessions, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSessionList,
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete [session-id]",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionDelete,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every session",
	Args:  cobra.NoArgs,
	RunE:  runSessionClear,
}

func init() {
	sessionStartCmd.Flags().StringVar(&sessionKind, "kind", "general", "session kind: general, reading or review")
	sessionStartCmd.Flags().StringVar(&sessionNotes, "notes", "", "notes for the session")
	sessionEndCmd.Flags().StringVar(&sessionNotes, "notes", "", "replace the session notes")
	sessionEndCmd.Flags().IntVar(&sessionAnswered, "answered", 0, "cards answered during the session")
	sessionEndCmd.Flags().IntVar(&sessionCorrect, "correct", 0, "cards answered correctly")

	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionPauseCmd)
	sessionCmd.AddCommand(sessionResumeCmd)
	sessionCmd.AddCommand(sessionEndCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionStart(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	req := driving.StartSessionRequest{
		Kind:  domain.SessionKind(sessionKind),
		Notes: sessionNotes,
	}
	if len(args) > 0 {
		req.DocumentID = args[0]
	}

	session, err := sessionService.Start(context.Background(), req)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	cmd.Printf("Session %s started (%s).\n", session.ID, session.Kind)
	return nil
}

func runSessionPause(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	session, err := sessionService.Pause(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to pause session: %w", err)
	}
	cmd.Printf("Session %s paused after %s.\n", session.ID, formatDuration(session.Duration(time.Now())))
	return nil
}

func runSessionResume(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	session, err := sessionService.Resume(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to resume session: %w", err)
	}
	cmd.Printf("Session %s resumed.\n", session.ID)
	return nil
}

func runSessionEnd(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	session, err := sessionService.End(context.Background(), args[0], driving.EndSessionRequest{
		Notes:    sessionNotes,
		Answered: sessionAnswered,
		Correct:  sessionCorrect,
	})
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	cmd.Printf("Session %s ended. Studied for %s.\n", session.ID, formatDuration(session.Duration(time.Now())))
	if session.Answered > 0 {
		cmd.Printf("  %d/%d correct (%.0f%%)\n", session.Correct, session.Answered, session.Accuracy()*100)
	}
	return nil
}

func runSessionList(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	var docID string
	if len(args) > 0 {
		docID = args[0]
	}

	sessions, err := sessionService.List(context.Background(), docID)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(sessions) == 0 {
		cmd.Println("No study sessions recorded.")
		return nil
	}

	now := time.Now()
	var total time.Duration
	cmd.Println("Sessions:")
	cmd.Println()
	for i := range sessions {
		s := &sessions[i]
		d := s.Duration(now)
		total += d
		cmd.Printf("  %s  %-7s %-6s %s  %s\n", s.ID, s.Kind, s.Status,
			s.StartedAt.Local().Format("2006-01-02 15:04"), formatDuration(d))
		if s.DocumentID != "" {
			cmd.Printf("    Document: %s\n", s.DocumentID)
		}
		if s.Answered > 0 {
			cmd.Printf("    Cards: %d/%d correct\n", s.Correct, s.Answered)
		}
		if s.Notes != "" {
			cmd.Printf("    Notes: %s\n", truncate(s.Notes, 90))
		}
	}
	cmd.Println()
	cmd.Printf("Total: %d sessions, %s studied\n", len(sessions), formatDuration(total))
	return nil
}

func runSessionDelete(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	if err := sessionService.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	cmd.Printf("Session %s deleted.\n", args[0])
	return nil
}

func runSessionClear(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	n, err := sessionService.Clear(context.Background())
	if err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}
	cmd.Printf("Deleted %d sessions.\n", n)
	return nil
}

// formatDuration renders whole minutes as "1h05m" or "12m".
func formatDuration(d time.Duration) string {
	minutes := int(d.Round(time.Minute) / time.Minute)
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}
