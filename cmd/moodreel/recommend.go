package main

import (
	"fmt"

	"github.com/spacesedan/moodreel/internal/models"
	"github.com/spacesedan/moodreel/internal/recommend"
	"github.com/spf13/cobra"
)

type recommendOptions struct {
	text    string
	mood    string
	ratings string
	limit   int
}

func newRecommendCmd(opts *rootOptions) *cobra.Command {
	ro := &recommendOptions{}
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Rank the catalog for a mood given as text or as a category",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := ro.input()
			if err != nil {
				return err
			}

			p, err := opts.pipeline()
			if err != nil {
				return err
			}
			items, err := opts.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			var profile models.PreferenceProfile
			if ro.ratings != "" {
				var ratings []models.Rating
				if err := readJSONFile(ro.ratings, &ratings); err != nil {
					return err
				}
				profile = recommend.BuildProfile(ratings, items)
			}

			resp, err := p.Process(input, items, profile, ro.limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&ro.text, "text", "", "free-text mood description")
	cmd.Flags().StringVar(&ro.mood, "mood", "", "explicit mood category, skips classification")
	cmd.Flags().StringVar(&ro.ratings, "ratings", "", "ratings JSON file used to build a preference profile")
	cmd.Flags().IntVar(&ro.limit, "limit", opts.appConfig().DefaultLimit, "maximum number of results")
	cmd.MarkFlagsMutuallyExclusive("text", "mood")
	return cmd
}

func (ro *recommendOptions) input() (models.MoodInput, error) {
	if ro.mood != "" {
		c, err := models.ParseMoodCategory(ro.mood)
		if err != nil {
			return models.MoodInput{}, err
		}
		return models.FromCategory(c), nil
	}
	if ro.text == "" {
		return models.MoodInput{}, fmt.Errorf("one of --text or --mood is required")
	}
	return models.FromText(ro.text), nil
}
