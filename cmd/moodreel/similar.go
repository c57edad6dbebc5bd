package main

import (
	"github.com/spacesedan/moodreel/internal/recommend"
	"github.com/spf13/cobra"
)

func newSimilarCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "similar <item-id>",
		Short: "List catalog items whose title, tags and plot resemble an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := opts.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			results, err := recommend.Similar(args[0], items, limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 5, "maximum number of results")
	return cmd
}
