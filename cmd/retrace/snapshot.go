package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func NewSnapshotCmd(load appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage state snapshots",
		Long:  `Save, list and restore committed snapshots of the store state.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	cmd.AddCommand(
		newSnapshotSaveCmd(load),
		newSnapshotLogCmd(load),
		newSnapshotRestoreCmd(load),
	)
	return cmd
}

func newSnapshotSaveCmd(load appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Commit the current state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			message, _ := cmd.Flags().GetString("message")

			a, err := load(cmd)
			if err != nil {
				return err
			}

			snap, err := a.svc.SaveSnapshot(cmd.Context(), message)
			if err != nil {
				return fmt.Errorf("save snapshot: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", shortHash(snap.Hash), strings.TrimSpace(snap.Message))
			return nil
		},
	}

	cmd.Flags().StringP("message", "m", "", "Snapshot message")
	return cmd
}

func newSnapshotLogCmd(load appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "List snapshots, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, _ := cmd.Flags().GetInt("number")
			asJSON, _ := cmd.Flags().GetBool("json")

			a, err := load(cmd)
			if err != nil {
				return err
			}

			history, err := a.svc.SnapshotHistory(cmd.Context(), n)
			if err != nil {
				return fmt.Errorf("snapshot history: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(history)
			}

			for _, snap := range history {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n",
					shortHash(snap.Hash),
					snap.Timestamp.UTC().Format(time.RFC3339),
					strings.TrimSpace(snap.Message))
			}
			return nil
		},
	}

	cmd.Flags().IntP("number", "n", 0, "Maximum snapshots to list")
	return cmd
}

func newSnapshotRestoreCmd(load appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <revision>",
		Short: "Restore the store from a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd)
			if err != nil {
				return err
			}

			if err := a.svc.RestoreSnapshot(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("restore snapshot: %w", err)
			}

			// Commit the restored state so it becomes the current one.
			if err := a.persist(cmd.Context()); err != nil {
				return fmt.Errorf("persist state: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d memories from %s\n", a.store.Len(), args[0])
			return nil
		},
	}
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
