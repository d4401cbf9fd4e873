package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/retracehq/retrace/internal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewWatchCmd(load appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch an inbox directory for captures",
		Long:  `Watch a directory for raw capture JSON files dropped by the extension shell and ingest them as they appear.`,
		RunE:  makeWatchRunner(load),
	}

	cmd.Flags().String("inbox", "", "Inbox directory (default <data-dir>/inbox)")
	cmd.Flags().Duration("snapshot-interval", 5*time.Minute, "Autosave interval, 0 disables")
	return cmd
}

func makeWatchRunner(load appLoader) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		inbox, _ := cmd.Flags().GetString("inbox")
		interval, _ := cmd.Flags().GetDuration("snapshot-interval")

		a, err := load(cmd)
		if err != nil {
			return err
		}

		if inbox == "" {
			inbox = a.cfg.InboxDir
		}
		if inbox == "" {
			inbox = filepath.Join(a.cfg.ResolveDataDir(), "inbox")
		}
		if err := os.MkdirAll(inbox, 0755); err != nil {
			return fmt.Errorf("create inbox directory: %w", err)
		}

		logger, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if interval > 0 {
			go autosave(ctx, a, logger, interval)
		}

		watcher := internal.NewInboxWatcher(a.svc, inbox, logger)
		if err := watcher.Run(ctx); err != nil {
			return fmt.Errorf("watch inbox: %w", err)
		}

		if err := a.persist(cmd.Context()); err != nil {
			return fmt.Errorf("persist state: %w", err)
		}
		return nil
	}
}
