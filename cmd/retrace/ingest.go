package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/retracehq/retrace/internal"
	"github.com/spf13/cobra"
)

func NewIngestCmd(load appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest raw capture files",
		Long:  `Read raw capture JSON files (or stdin with -) and store each as a memory.`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  makeIngestRunner(load),
	}

	return cmd
}

func makeIngestRunner(load appLoader) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := load(cmd)
		if err != nil {
			return err
		}

		stored := 0
		for _, path := range args {
			data, err := readCapture(cmd, path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			var raw internal.RawCapture
			if err := json.Unmarshal(data, &raw); err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}

			out, err := a.svc.StoreMemory(cmd.Context(), raw)
			if err != nil {
				return fmt.Errorf("store %s: %w", path, err)
			}

			if out.Skipped {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: skipped (%s)\n", path, out.SkipReason)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: stored %s\n", path, out.MemoryID)
			stored++
		}

		if stored > 0 {
			if err := a.persist(cmd.Context()); err != nil {
				return fmt.Errorf("persist state: %w", err)
			}
		}
		return nil
	}
}

func readCapture(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
