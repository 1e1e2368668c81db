package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/suppcheck/pkg/config"
	"github.com/praetorian-inc/suppcheck/pkg/logging"
)

var (
	verbose bool
	quiet   bool

	configPath       string
	suppressionFiles []string
	macFiles         []string
	heapcheckFiles   []string
)

var rootCmd = &cobra.Command{
	Use:   "suppcheck",
	Short: "suppcheck - check tool reports against suppression files",
	Long: `suppcheck reads Memcheck, ThreadSanitizer and Heapcheck reports out of build
logs and checks that every distinct report is covered by a suppression.

Reports observed only on Mac builders are also checked against the Mac
suppressions, reports observed only on Heapcheck builders against the
Heapcheck suppressions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")

	// Add subcommands
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(suppressionsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// =============================================================================
// HELPERS
// =============================================================================

// addSuppressionFlags binds the flags every command loading suppressions shares.
func addSuppressionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configPath, "config", "", "Path to suppcheck YAML configuration")
	cmd.Flags().StringArrayVar(&suppressionFiles, "suppressions", nil, "Suppression file checked for every report (repeatable)")
	cmd.Flags().StringArrayVar(&macFiles, "mac", nil, "Suppression file for reports seen only on Mac builders (repeatable)")
	cmd.Flags().StringArrayVar(&heapcheckFiles, "heapcheck", nil, "Suppression file for reports seen only on Heapcheck builders (repeatable)")
}

// loadConfig reads --config, or starts from the defaults, and adds the
// suppression files named on the command line.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	for _, add := range []struct {
		set   string
		files []string
	}{
		{cfg.CommonSet, suppressionFiles},
		{config.MacSet, macFiles},
		{config.HeapcheckSet, heapcheckFiles},
	} {
		for _, f := range add.files {
			// Command-line paths are relative to the working directory,
			// not to the config file.
			abs, err := filepath.Abs(f)
			if err != nil {
				return nil, fmt.Errorf("resolving %s: %w", f, err)
			}
			cfg.AddFiles(add.set, abs)
		}
	}

	switch {
	case verbose:
		cfg.LogLevel = "debug"
	case quiet:
		cfg.LogLevel = "error"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger writes logs to stderr so stdout carries only report output.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logging.NewLogger(cfg.LogLevel, cfg.LogJSON, cmd.ErrOrStderr())
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
