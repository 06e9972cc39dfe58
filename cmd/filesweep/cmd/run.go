package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/filesweep/internal/config"
	"github.com/Aman-CERP/filesweep/internal/mover"
	"github.com/Aman-CERP/filesweep/internal/rules"
	"github.com/Aman-CERP/filesweep/internal/ui"
	"github.com/Aman-CERP/filesweep/internal/watcher"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Watch the configured directory and move matching files",
		Long: `Run starts the change monitor on the configured watch directory and moves
every matching file into the target directory as it appears. Files still
being written are retried on a fixed delay before the move is declared
failed. Press Ctrl+C to stop; a move already in progress finishes first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd)
		},
	}
}

// runWatch wires the monitor, processor, and console output together and
// blocks until interrupted.
func runWatch(cmd *cobra.Command) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}

	if err := ensureTargetDir(cfg.Move.TargetDir); err != nil {
		return err
	}

	matcher, err := rules.New(cfg.Watch.Extensions, cfg.Watch.Pattern)
	if err != nil {
		return err
	}

	proc, err := mover.NewProcessor(mover.Config{
		TargetDir:     cfg.Move.TargetDir,
		RetryAttempts: cfg.Move.RetryAttempts,
		RetryDelay:    cfg.Move.RetryDelay.Std(),
	})
	if err != nil {
		return err
	}

	mon, err := watcher.NewMonitor(cfg.Watch.Path, matcher, watcher.Options{
		EventBufferSize: cfg.Monitor.EventBufferSize,
		CoalesceWindow:  cfg.Monitor.CoalesceWindow.Std(),
		Recursive:       cfg.Watch.Recursive,
	})
	if err != nil {
		proc.Stop()
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := mon.Start(ctx); err != nil {
		proc.Stop()
		return err
	}

	out := cmd.OutOrStdout()
	printer := ui.NewPrinter(out)
	fmt.Fprintf(out, "Watching %s -> %s\n", mon.Root(), cfg.Move.TargetDir)
	slog.Info("watch started",
		slog.String("watch_path", mon.Root()),
		slog.String("target_dir", cfg.Move.TargetDir),
		slog.Bool("recursive", cfg.Watch.Recursive),
	)

	// The monitor is already watching while the scan lists the directory,
	// so no file slips between the two; a file seen by both yields one job
	// because the processor suppresses duplicate pending paths.
	if cfg.Watch.ScanExisting {
		if err := proc.ScanExisting(ctx, mon.Root(), matcher, cfg.Watch.Recursive); err != nil {
			mon.Stop()
			proc.Stop()
			return err
		}
	}

	g := &errgroup.Group{}

	// Only creations become move jobs; modifications mean a writer is
	// still appending, and the lock probe handles that on the move side.
	g.Go(func() error {
		for event := range mon.Events() {
			if event.Op != watcher.OpCreate {
				continue
			}
			proc.Enqueue(event.Path)
		}
		return nil
	})

	g.Go(func() error {
		for err := range mon.Errors() {
			slog.Warn("watch error", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		for status := range proc.Statuses() {
			printer.Print(status)
			logStatus(status)
		}
		return nil
	})

	// Shutdown order matters: stopping the monitor closes its channels and
	// ends the forwarding goroutines, then the processor finishes any
	// in-flight move and closes the status stream.
	g.Go(func() error {
		<-ctx.Done()
		mon.Stop()
		proc.Stop()
		return nil
	})

	err = g.Wait()

	if dropped := mon.DroppedEvents(); dropped > 0 {
		fmt.Fprintf(out, "Warning: %d event(s) dropped under load\n", dropped)
	}
	if pending := proc.Pending(); pending > 0 {
		fmt.Fprintf(out, "Warning: %d queued move(s) abandoned on shutdown\n", pending)
	}
	fmt.Fprintln(out, "Stopped.")
	return err
}

// ensureTargetDir creates the move target. The processor moves into the
// target but never creates it; that is the caller's job.
func ensureTargetDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create target directory %s: %w", dir, err)
	}
	return nil
}

// logStatus mirrors the console stream into the structured log.
func logStatus(s mover.Status) {
	attrs := []any{
		slog.String("stage", s.Stage.String()),
		slog.String("name", s.Name),
		slog.String("source", s.Source),
	}
	switch s.Stage {
	case mover.StageFailed:
		slog.Error("move failed", append(attrs, slog.String("error", s.Message))...)
	case mover.StageRetrying:
		slog.Info("source locked, retrying", append(attrs, slog.Int("attempt", s.Attempt))...)
	case mover.StageMoved:
		slog.Info("file moved", append(attrs, slog.String("target", s.Target))...)
	default:
		slog.Debug("status", attrs...)
	}
}
