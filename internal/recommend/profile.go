package recommend

import (
	"sort"

	"github.com/spacesedan/moodreel/internal/models"
)

const (
	MinStars         = 1
	MaxStars         = 5
	NeutralStars     = 3.0
	MinProfileWeight = 0.25
	MaxProfileWeight = 2.0
)

// BuildProfile learns tag weights from a user's star ratings. Each tag's
// weight is its mean rating over NeutralStars, so a tag the user rates 3 on
// average keeps the neutral weight of 1.0. Ratings for unknown items or
// outside [MinStars, MaxStars] are ignored.
func BuildProfile(ratings []models.Rating, items []models.ContentItem) models.PreferenceProfile {
	byID := make(map[string]models.ContentItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range ratings {
		if r.Stars < MinStars || r.Stars > MaxStars {
			continue
		}
		item, ok := byID[r.ItemID]
		if !ok {
			continue
		}
		seen := make(map[string]struct{}, len(item.Tags))
		for _, tag := range item.Tags {
			key := foldTag(tag)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			sums[key] += float64(r.Stars)
			counts[key]++
		}
	}

	tags := make([]string, 0, len(sums))
	for tag := range sums {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	profile := make(models.PreferenceProfile, len(tags))
	for _, tag := range tags {
		mean := sums[tag] / float64(counts[tag])
		profile[tag] = clamp(mean/NeutralStars, MinProfileWeight, MaxProfileWeight)
	}
	return profile
}
