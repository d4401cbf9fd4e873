package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func NewAnalyticsCmd(load appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show store analytics",
		Long:  `Print aggregate statistics over the stored memories.`,
		RunE:  makeAnalyticsRunner(load),
	}

	return cmd
}

func makeAnalyticsRunner(load appLoader) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := load(cmd)
		if err != nil {
			return err
		}

		snap := a.svc.Analytics()

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "records:    %d\n", snap.TotalRecords)
		fmt.Fprintf(out, "clusters:   %d\n", snap.TotalClusters)
		fmt.Fprintf(out, "edges:      %d\n", snap.TotalEdges)
		fmt.Fprintf(out, "confidence: %.2f\n", snap.MeanConfidence)
		fmt.Fprintf(out, "this hour/day/week/month: %d/%d/%d/%d\n",
			snap.Current.Hour, snap.Current.Day, snap.Current.Week, snap.Current.Month)

		if len(snap.TopDomains) > 0 {
			fmt.Fprintln(out, "top domains:")
			for _, e := range snap.TopDomains {
				fmt.Fprintf(out, "  %4d  %s\n", e.Count, e.Name)
			}
		}
		if len(snap.TopCategories) > 0 {
			fmt.Fprintln(out, "top categories:")
			for _, e := range snap.TopCategories {
				fmt.Fprintf(out, "  %4d  %s\n", e.Count, e.Name)
			}
		}
		if len(snap.Clusters) > 0 {
			fmt.Fprintln(out, "clusters:")
			for _, c := range snap.Clusters {
				fmt.Fprintf(out, "  %4d  %s  %s\n", c.Members, c.ID, c.Label)
			}
		}
		return nil
	}
}
