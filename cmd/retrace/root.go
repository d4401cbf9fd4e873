package main

import (
	"github.com/spf13/cobra"
)

func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "retrace",
		Short:         "Semantic memory for your browsing",
		Long:          `A multi-index semantic memory store for page captures, with similarity search, concept clustering and git-backed state history.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)
	addSubcommands(rootCmd, loadApp)

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("data-dir", "", "Data directory (default ~/.retrace)")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
}

func addSubcommands(root *cobra.Command, load appLoader) {
	root.AddCommand(
		NewInitCmd(),
		NewCaptureCmd(load),
		NewIngestCmd(load),
		NewGetCmd(load),
		NewSearchCmd(load),
		NewAnalyticsCmd(load),
		NewExportCmd(load),
		NewImportCmd(load),
		NewSnapshotCmd(load),
		NewServeCmd(load),
		NewWatchCmd(load),
	)
}
