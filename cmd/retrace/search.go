package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/retracehq/retrace/internal"
	"github.com/spf13/cobra"
)

func NewSearchCmd(load appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search memories",
		Long:  `Search stored memories by semantic similarity.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeSearchRunner(load),
	}

	cmd.Flags().IntP("number", "n", 0, "Maximum results")
	cmd.Flags().Float32P("threshold", "t", 0, "Minimum similarity (default 0.7)")
	cmd.Flags().String("domain", "", "Restrict to a domain")
	cmd.Flags().String("category", "", "Restrict to a category")
	cmd.Flags().String("since", "", "Only memories captured at or after this time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().String("until", "", "Only memories captured at or before this time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().BoolP("related", "r", false, "Include related memories per hit")
	return cmd
}

func makeSearchRunner(load appLoader) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		opts, err := searchOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := load(cmd)
		if err != nil {
			return err
		}

		result := a.svc.SearchMemories(cmd.Context(), args[0], opts)
		if result.Failed {
			return fmt.Errorf("search: %s", result.Err)
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		for _, hit := range result.Hits {
			fmt.Fprintf(cmd.OutOrStdout(), "%.4f  %s  %s\n", hit.Similarity, hit.Record.ID, hit.Record.URL)
			for _, rel := range hit.Related {
				fmt.Fprintf(cmd.OutOrStdout(), "        %s %s (%.2f)\n", rel.Kind, rel.Record.ID, rel.Strength)
			}
		}
		return nil
	}
}

func searchOptionsFromFlags(cmd *cobra.Command) (internal.SearchOptions, error) {
	limit, _ := cmd.Flags().GetInt("number")
	threshold, _ := cmd.Flags().GetFloat32("threshold")
	domain, _ := cmd.Flags().GetString("domain")
	category, _ := cmd.Flags().GetString("category")
	related, _ := cmd.Flags().GetBool("related")

	opts := internal.SearchOptions{
		Threshold:            threshold,
		Limit:                limit,
		Domain:               domain,
		Category:             category,
		IncludeRelationships: related,
	}

	since, _ := cmd.Flags().GetString("since")
	if since != "" {
		t, err := parseTimeFlag(since)
		if err != nil {
			return opts, fmt.Errorf("parse --since: %w", err)
		}
		opts.From = t
	}

	until, _ := cmd.Flags().GetString("until")
	if until != "" {
		t, err := parseTimeFlag(until)
		if err != nil {
			return opts, fmt.Errorf("parse --until: %w", err)
		}
		opts.To = t
	}

	return opts, nil
}

func parseTimeFlag(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
