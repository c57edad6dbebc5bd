// Package recommend ranks catalog items against a resolved mood category.
//
// An item's score is
//
//	clamp(overlap/|mappedTags| * avgProfileWeight + quality/QualityScale*QualityWeight, 0, 1)
//
// where overlap is the set of the category's mapped tags carried by the item.
// Items without any overlap are never recommended. Ranking is by score, then
// quality rating, then year (newest first), then ID, so identical inputs
// always produce identical output.
package recommend

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/spacesedan/moodreel/internal/models"
	"github.com/spacesedan/moodreel/internal/tables"
	"golang.org/x/text/cases"
)

var ErrInvalidLimit = errors.New("limit must be a positive integer")

type Scorer struct {
	tables *tables.Tables
}

func NewScorer(t *tables.Tables) *Scorer {
	return &Scorer{tables: t}
}

// Recommend scores items for category and returns at most limit results.
// The confidence is carried through to each result unchanged.
func (s *Scorer) Recommend(
	category models.MoodCategory,
	confidence float64,
	items []models.ContentItem,
	profile models.PreferenceProfile,
	limit int,
) ([]models.RecommendationResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownCategory, category)
	}

	mapped := s.tables.Tags(category)
	weights := foldProfile(profile)
	results := make([]models.RecommendationResult, 0, min(limit, len(items)))

	for _, item := range items {
		if len(item.Tags) == 0 {
			slog.Debug("[Recommend] Skipping item without tags",
				slog.String("item_id", item.ID))
			continue
		}
		overlap := overlapTags(mapped, item.Tags)
		if len(overlap) == 0 {
			continue
		}

		tagScore := float64(len(overlap)) / float64(len(mapped))
		profileWeight := 0.0
		for _, tag := range overlap {
			profileWeight += weightOf(weights, tag)
		}
		profileWeight /= float64(len(overlap))

		quality := clamp(item.QualityRating/s.tables.QualityScale, 0, 1) * s.tables.QualityWeight
		dominant := dominantTag(overlap, weights)

		results = append(results, models.RecommendationResult{
			Item:            item,
			Score:           clamp(tagScore*profileWeight+quality, 0, 1),
			MatchedCategory: category,
			Confidence:      confidence,
			MatchedTags:     overlap,
			Rationale:       rationale(category, dominant, len(overlap), len(mapped)),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Item.QualityRating != b.Item.QualityRating {
			return a.Item.QualityRating > b.Item.QualityRating
		}
		if a.Item.Year != b.Item.Year {
			return a.Item.Year > b.Item.Year
		}
		return a.Item.ID < b.Item.ID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// overlapTags returns the mapped tags present on the item, in mapped order.
func overlapTags(mapped, itemTags []string) []string {
	have := make(map[string]struct{}, len(itemTags))
	for _, t := range itemTags {
		have[foldTag(t)] = struct{}{}
	}
	var out []string
	for _, t := range mapped {
		if _, ok := have[foldTag(t)]; ok {
			out = append(out, t)
		}
	}
	return out
}

// dominantTag picks the overlapping tag the profile weighs most. Ties keep
// the earlier, more relevant mapped tag.
func dominantTag(overlap []string, weights map[string]float64) string {
	best := overlap[0]
	bestWeight := weightOf(weights, best)
	for _, t := range overlap[1:] {
		if w := weightOf(weights, t); w > bestWeight {
			best, bestWeight = t, w
		}
	}
	return best
}

func rationale(category models.MoodCategory, dominant string, overlap, mapped int) string {
	return fmt.Sprintf("Recommended for a %s mood: tagged %s (%d of %d mood tags)",
		category, dominant, overlap, mapped)
}

// foldProfile case-folds profile keys. When two keys fold together the one
// that sorts first wins.
func foldProfile(profile models.PreferenceProfile) map[string]float64 {
	if len(profile) == 0 {
		return nil
	}
	keys := make([]string, 0, len(profile))
	for k := range profile {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]float64, len(profile))
	for _, k := range keys {
		f := foldTag(k)
		if _, ok := out[f]; !ok {
			out[f] = profile[k]
		}
	}
	return out
}

func weightOf(weights map[string]float64, tag string) float64 {
	if w, ok := weights[foldTag(tag)]; ok {
		return w
	}
	return 1.0
}

// foldTag makes "Sci-Fi", "sci-fi" and " SCI-FI " compare equal. A Caser
// holds state, so each call gets its own.
func foldTag(tag string) string {
	return cases.Fold().String(strings.TrimSpace(tag))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
