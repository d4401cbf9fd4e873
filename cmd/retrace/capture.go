package main

import (
	"encoding/json"
	"fmt"

	"github.com/retracehq/retrace/internal"
	"github.com/spf13/cobra"
)

func NewCaptureCmd(load appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture <url>",
		Short: "Store a page capture",
		Long:  `Analyze and store a single page capture as a memory.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeCaptureRunner(load),
	}

	cmd.Flags().String("title", "", "Page title")
	cmd.Flags().String("summary", "", "Page summary")
	cmd.Flags().String("text", "", "Raw page text, analyzed by the configured provider")
	return cmd
}

func makeCaptureRunner(load appLoader) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		pageURL := args[0]
		title, _ := cmd.Flags().GetString("title")
		summary, _ := cmd.Flags().GetString("summary")
		pageText, _ := cmd.Flags().GetString("text")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := load(cmd)
		if err != nil {
			return err
		}

		var out *internal.StoreMemoryOutput
		if pageText != "" {
			out, err = a.svc.AnalyzeAndStore(cmd.Context(), pageURL, pageText)
		} else {
			raw := internal.RawCapture{URL: pageURL}
			if title != "" || summary != "" {
				raw.Text = &internal.TextAnalysis{Title: title, Summary: summary}
			}
			out, err = a.svc.StoreMemory(cmd.Context(), raw)
		}
		if err != nil {
			return fmt.Errorf("store capture: %w", err)
		}

		if !out.Skipped {
			if err := a.persist(cmd.Context()); err != nil {
				return fmt.Errorf("persist state: %w", err)
			}
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		if out.Skipped {
			fmt.Fprintf(cmd.OutOrStdout(), "Skipped: %s\n", out.SkipReason)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Stored %s (%d relationships, %d clusters)\n",
			out.MemoryID, out.Relationships, out.Clusters)
		return nil
	}
}
