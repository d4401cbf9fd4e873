package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/retracehq/retrace/internal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewServeCmd(load appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the capture API server",
		Long:  `Serve the JSON API the browser extension talks to, until interrupted.`,
		RunE:  makeServeRunner(load),
	}

	cmd.Flags().String("addr", "", "Listen address (overrides config)")
	cmd.Flags().Duration("snapshot-interval", 5*time.Minute, "Autosave interval, 0 disables")
	return cmd
}

func makeServeRunner(load appLoader) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		interval, _ := cmd.Flags().GetDuration("snapshot-interval")

		a, err := load(cmd)
		if err != nil {
			return err
		}

		logger, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		serverCfg := a.cfg.Server
		if addr != "" {
			serverCfg.Addr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if interval > 0 {
			go autosave(ctx, a, logger, interval)
		}

		srv := internal.NewServer(a.svc, logger, serverCfg)
		if err := srv.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve: %w", err)
		}

		// Commit whatever the extension stored during this run.
		if err := a.persist(cmd.Context()); err != nil {
			return fmt.Errorf("persist state: %w", err)
		}
		return nil
	}
}

func autosave(ctx context.Context, a *app, logger *zap.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.persist(ctx); err != nil {
				logger.Warn("autosave", zap.Error(err))
			}
		}
	}
}
