package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func NewGetCmd(load appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a memory",
		Long:  `Retrieve and display a stored memory by id.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeGetRunner(load),
	}

	return cmd
}

func makeGetRunner(load appLoader) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := load(cmd)
		if err != nil {
			return err
		}

		rec, err := a.svc.Get(args[0])
		if err != nil {
			return fmt.Errorf("get memory: %w", err)
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		}

		when := time.UnixMilli(rec.Timestamp).UTC().Format(time.RFC3339)
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", rec.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "  url:      %s\n", rec.URL)
		fmt.Fprintf(cmd.OutOrStdout(), "  domain:   %s\n", rec.Domain)
		fmt.Fprintf(cmd.OutOrStdout(), "  captured: %s\n", when)
		fmt.Fprintf(cmd.OutOrStdout(), "  type:     %s\n", rec.Semantic.ContentType)
		if len(rec.Semantic.Categories) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "  categories: %s\n", strings.Join(rec.Semantic.Categories, ", "))
		}
		if len(rec.Semantic.Topics) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "  topics:   %s\n", strings.Join(rec.Semantic.Topics, ", "))
		}
		return nil
	}
}
