// Package cmd provides the CLI commands for filesweep.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/filesweep/internal/config"
	"github.com/Aman-CERP/filesweep/internal/logging"
	"github.com/Aman-CERP/filesweep/pkg/version"
)

var (
	configDir      string
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the filesweep CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filesweep",
		Short: "Watch a directory and move matching files as they appear",
		Long: `Filesweep watches a directory for file-system changes, filters events by
file extension and filename pattern, and moves matching files into a
target directory, retrying while a file is still being written.

Configuration lives in filesweep.yaml (see 'filesweep config init') and
can be overridden with FILESWEEP_* environment variables.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("filesweep version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&configDir, "config", "c", ".", "Directory containing filesweep.yaml")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.filesweep/logs/")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging initializes file logging before any command runs.
// The logging section of filesweep.yaml (and FILESWEEP_LOG_LEVEL) sets the
// level and file; --debug overrides the level.
func startLogging(cmd *cobra.Command, args []string) error {
	logCfg := config.LoadLogging(configDir)

	cfg := logging.DefaultConfig()
	if logCfg.Level != "" {
		cfg.Level = logCfg.Level
	}
	if logCfg.File != "" {
		cfg.FilePath = logCfg.File
	}
	if debugMode {
		cfg.Level = "debug"
	}
	cfg.WriteToStderr = false

	cleanup, err := logging.SetupDefault(cfg)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	loggingCleanup = cleanup
	return nil
}

// stopLogging flushes and closes the log file after the command finishes.
func stopLogging(cmd *cobra.Command, args []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
