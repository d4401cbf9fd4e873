package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func NewImportCmd(load appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a store state",
		Long:  `Replace the store contents from an exported state file (or stdin with -).`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeImportRunner(load),
	}

	return cmd
}

func makeImportRunner(load appLoader) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := load(cmd)
		if err != nil {
			return err
		}

		var blob []byte
		if args[0] == "-" {
			blob, err = io.ReadAll(cmd.InOrStdin())
		} else {
			blob, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		if err := a.svc.ImportState(blob); err != nil {
			return fmt.Errorf("import state: %w", err)
		}

		if err := a.persist(cmd.Context()); err != nil {
			return fmt.Errorf("persist state: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d memories\n", a.store.Len())
		return nil
	}
}
