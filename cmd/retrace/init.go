package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/retracehq/retrace/internal"
	"github.com/spf13/cobra"
)

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the memory store",
		Long:  `Create the data directory with a default config and an empty snapshot history.`,
		RunE:  runInit,
	}

	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	if dataDir == "" {
		dataDir = internal.DefaultDataDir()
	}

	configPath := filepath.Join(dataDir, internal.ConfigFilename)
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("already initialized at %s", dataDir)
	}

	cfg := internal.DefaultConfig()
	cfg.DataDir = dataDir
	if err := internal.SaveConfig(dataDir, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	if err := internal.InitSnapshotStore(dataDir); err != nil {
		return fmt.Errorf("init snapshot history: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized memory store at %s\n", dataDir)
	return nil
}
