package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func NewExportCmd(load appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export the store state",
		Long:  `Serialize the full store state to a file, or stdout when no file is given.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  makeExportRunner(load),
	}

	return cmd
}

func makeExportRunner(load appLoader) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := load(cmd)
		if err != nil {
			return err
		}

		blob, err := a.svc.ExportState()
		if err != nil {
			return fmt.Errorf("export state: %w", err)
		}

		if len(args) == 0 {
			_, err := cmd.OutOrStdout().Write(blob)
			return err
		}

		if err := os.WriteFile(args[0], blob, 0644); err != nil {
			return fmt.Errorf("write %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d memories to %s\n", a.store.Len(), args[0])
		return nil
	}
}
