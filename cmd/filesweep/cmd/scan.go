package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/filesweep/internal/config"
	"github.com/Aman-CERP/filesweep/internal/mover"
	"github.com/Aman-CERP/filesweep/internal/rules"
	"github.com/Aman-CERP/filesweep/internal/ui"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Move matching files already in the watch directory, then exit",
		Long: `Scan lists the watch directory once, moves every file that matches the
configured extensions and filename pattern, and exits. No watch is
registered; use 'filesweep run' to keep monitoring for new files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd)
		},
	}
}

// runScan performs a one-shot sweep of the watch directory.
func runScan(cmd *cobra.Command) error {
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

	printer := ui.NewPrinter(cmd.OutOrStdout())

	g := &errgroup.Group{}
	g.Go(func() error {
		for status := range proc.Statuses() {
			printer.Print(status)
		}
		return nil
	})

	// ScanExisting returns once every match is queued; WaitIdle then holds
	// until each job reaches a terminal stage. The retry budget is finite,
	// so a sweep always terminates, however the individual moves end.
	scanErr := proc.ScanExisting(context.Background(), cfg.Watch.Path, matcher, cfg.Watch.Recursive)
	if scanErr == nil {
		scanErr = proc.WaitIdle(context.Background())
	}

	proc.Stop()
	if err := g.Wait(); err != nil {
		return err
	}
	return scanErr
}
