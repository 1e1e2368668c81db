package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/suppcheck/pkg/checker"
	"github.com/praetorian-inc/suppcheck/pkg/serve"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as streaming server",
	Long: `Run suppcheck as a long-lived streaming server that accepts check requests
via stdin and writes verdicts to stdout using NDJSON format.

The process loads suppressions once at startup and processes requests until
stdin closes, a close request arrives or SIGTERM is received.`,
	RunE: runServe,
}

func init() {
	addSuppressionFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	router, err := buildRouter(cfg, logger, nil)
	if err != nil {
		return err
	}

	c, err := checker.New(checker.Config{
		Router:    router,
		Workers:   cfg.WorkerCount(),
		Prefilter: !cfg.DisablePrefilter,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("creating checker: %w", err)
	}

	srv := serve.NewServer(c, len(router.All()), cmd.InOrStdin(), cmd.OutOrStdout(), logger)
	if err := srv.Run(commandContext(cmd)); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
