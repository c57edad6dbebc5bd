package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <text>",
		Short: "Classify a mood description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.pipeline()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), p.AnalyzeMood(strings.Join(args, " ")))
		},
	}
}
