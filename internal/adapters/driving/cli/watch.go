package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/connectors/filesystem"
)

var (
	watchScan    bool
	watchNoIndex bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Keep a directory of study material ingested",
	Long: `Watches a directory and ingests supported files as they are created or
changed. Documents whose files are removed are deleted.

Hidden files and directories are ignored. With --scan, every existing file
is ingested before watching starts. Background index builds run while the
watcher is active.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchScan, "scan", false, "ingest existing files first")
	watchCmd.Flags().BoolVar(&watchNoIndex, "no-index", false, "skip building vector indexes on ingest")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	w, err := filesystem.NewWatcher(args[0], documentService, supports,
		filesystem.WithNoIndex(watchNoIndex),
		filesystem.WithChangeHook(func(c filesystem.Change) {
			if c.Err != nil {
				cmd.PrintErrf("%s: %v\n", c.Path, c.Err)
				return
			}
			cmd.Printf("%s %s\n", c.Type, c.Path)
		}),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watchScan {
		n, err := w.Scan(ctx)
		if err != nil {
			return fmt.Errorf("initial scan failed: %w", err)
		}
		cmd.Printf("Scanned %s: %d files ingested\n", w.Root(), n)
	}

	startScheduler(ctx, cmd)

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", w.Root())
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// startScheduler runs background tasks until ctx ends. Failures are
// reported but never stop the calling command.
func startScheduler(ctx context.Context, cmd *cobra.Command) {
	if scheduler == nil {
		return
	}
	go func() {
		if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			cmd.PrintErrf("scheduler stopped: %v\n", err)
		}
	}()
	go func() {
		<-ctx.Done()
		if err := scheduler.Stop(); err != nil {
			cmd.PrintErrf("scheduler stop error: %v\n", err)
		}
	}()
}
