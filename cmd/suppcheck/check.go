package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/suppcheck/pkg/candidate"
	"github.com/praetorian-inc/suppcheck/pkg/checker"
	"github.com/praetorian-inc/suppcheck/pkg/config"
	"github.com/praetorian-inc/suppcheck/pkg/enum"
	"github.com/praetorian-inc/suppcheck/pkg/metrics"
	"github.com/praetorian-inc/suppcheck/pkg/suppression"
)

// stdinArg reads a log from standard input.
const stdinArg = "-"

var (
	checkFormat        string
	checkColor         string
	checkWorkers       int
	checkShowUnused    bool
	checkMetricsFile   string
	checkIncludeHidden bool
)

var checkCmd = &cobra.Command{
	Use:   "check <log|dir|archive>...",
	Short: "Check that every report in the logs is suppressed",
	Long: `Read tool reports from log files, directories of logs or archives of logs
("-" reads standard input), deduplicate them and match each distinct report
against its candidate suppressions.

Exits non-zero when any report is not covered by a suppression.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	addSuppressionFlags(checkCmd)
	checkCmd.Flags().StringVar(&checkFormat, "format", "human", "Output format: human, json, sarif")
	checkCmd.Flags().StringVar(&checkColor, "color", "auto", "Color output: auto, always, never")
	checkCmd.Flags().IntVar(&checkWorkers, "workers", 0, "Parallel workers (0 = config or GOMAXPROCS)")
	checkCmd.Flags().BoolVar(&checkShowUnused, "show-unused", false, "List suppressions that matched no report")
	checkCmd.Flags().StringVar(&checkMetricsFile, "metrics-file", "", "Write Prometheus text-format metrics to this file")
	checkCmd.Flags().BoolVar(&checkIncludeHidden, "include-hidden", false, "Include hidden files and directories")
}

func runCheck(cmd *cobra.Command, args []string) error {
	switch checkFormat {
	case "human", "json", "sarif":
	default:
		return fmt.Errorf("unknown output format: %s", checkFormat)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if checkWorkers > 0 {
		cfg.Workers = checkWorkers
	}
	if checkMetricsFile != "" {
		cfg.MetricsFile = checkMetricsFile
	}

	logger := newLogger(cmd, cfg)
	m := metrics.New()

	router, err := buildRouter(cfg, logger, m)
	if err != nil {
		return err
	}

	c, err := checker.New(checker.Config{
		Router:    router,
		Workers:   cfg.WorkerCount(),
		Prefilter: !cfg.DisablePrefilter,
		Logger:    logger,
		Metrics:   m,
	})
	if err != nil {
		return fmt.Errorf("creating checker: %w", err)
	}

	ctx := commandContext(cmd)
	reports, err := checker.ReadReports(ctx, createEnumerator(cmd, cfg, args), logger, m)
	if err != nil {
		return fmt.Errorf("reading logs: %w", err)
	}

	result, err := c.Check(ctx, reports)
	if err != nil {
		return fmt.Errorf("checking reports: %w", err)
	}

	if cfg.MetricsFile != "" {
		if err := m.WriteToTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("failed to write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}

	switch checkFormat {
	case "json":
		err = outputCheckJSON(cmd, result)
	case "sarif":
		err = outputCheckSARIF(cmd, result)
	default:
		err = outputCheckHuman(cmd, result)
	}
	if err != nil {
		return err
	}

	if !result.AllSuppressed() {
		return fmt.Errorf("%d unique reports: %w", len(result.Unmatched), checker.ErrUnsuppressedReports)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// buildRouter loads every configured set and records how many suppressions
// each contributed.
func buildRouter(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*candidate.Router, error) {
	sets, err := cfg.LoadSets(suppression.NewLoader())
	if err != nil {
		return nil, fmt.Errorf("loading suppressions: %w", err)
	}
	for name, supps := range sets {
		logger.Debug("loaded suppression set", "set", name, "suppressions", len(supps))
		if m != nil {
			m.SuppressionsLoaded.WithLabelValues(name).Set(float64(len(supps)))
		}
	}

	routes, err := cfg.CandidateRoutes()
	if err != nil {
		return nil, err
	}
	return candidate.NewRouter(sets, cfg.CommonSet, routes)
}

func createEnumerator(cmd *cobra.Command, cfg *config.Config, args []string) enum.Enumerator {
	var enumerators []enum.Enumerator
	var roots []string

	// Consecutive paths share one walker; "-" splits them so logs keep
	// command-line order.
	flush := func() {
		if len(roots) == 0 {
			return
		}
		enumerators = append(enumerators, enum.NewFilesystemEnumerator(enum.Config{
			Roots:           roots,
			IncludeHidden:   checkIncludeHidden,
			MaxFileSize:     cfg.MaxLogSize,
			ExtractArchives: cfg.ExtractArchives,
			Workers:         cfg.WorkerCount(),
		}))
		roots = nil
	}

	for _, arg := range args {
		if arg == stdinArg {
			flush()
			enumerators = append(enumerators, enum.NewReaderEnumerator(cmd.InOrStdin(), "<stdin>"))
			continue
		}
		roots = append(roots, arg)
	}
	flush()

	if len(enumerators) == 1 {
		return enumerators[0]
	}
	return enum.NewCombinedEnumerator(enumerators...)
}
