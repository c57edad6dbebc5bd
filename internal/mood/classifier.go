// Package mood resolves free text into one of the fixed mood categories by
// blending keyword hits with sentiment polarity.
//
// For each category the composite score is
//
//	hits[c]/totalHits + SentimentWeight*|valence|   (bonus only for the polarity group matching valence)
//
// The winner is the highest composite score, then the most raw keyword hits,
// then the table's priority order. Confidence is the winner's share of the
// summed composite scores. Classification never fails: empty or unrecognized
// text resolves to the default category with zero confidence.
package mood

import (
	"math"

	"github.com/spacesedan/moodreel/internal/keywords"
	"github.com/spacesedan/moodreel/internal/models"
	"github.com/spacesedan/moodreel/internal/sentiment"
	"github.com/spacesedan/moodreel/internal/tables"
)

type Classifier struct {
	tables  *tables.Tables
	scorer  sentiment.Scorer
	matcher *keywords.Matcher
}

// NewClassifier builds a classifier over t. A nil scorer falls back to the
// lexicon scorer backed by t.Lexicon.
func NewClassifier(t *tables.Tables, scorer sentiment.Scorer) *Classifier {
	if scorer == nil {
		scorer = sentiment.NewLexiconScorer(t.Lexicon)
	}
	return &Classifier{
		tables:  t,
		scorer:  scorer,
		matcher: keywords.NewMatcher(t.Keywords),
	}
}

func (c *Classifier) Analyze(text string) models.MoodAnalysisResult {
	normalized := sentiment.Normalize(text)
	if normalized == "" {
		return c.fallback(0, nil)
	}

	valence := clamp(c.scorer.Valence(normalized), -1, 1)
	kw := c.matcher.Match(normalized)
	composite := c.composite(valence, kw)

	// Summed in category order so the result is bit-for-bit repeatable.
	sum := 0.0
	for _, cat := range models.AllMoodCategories {
		sum += composite[cat]
	}
	if sum <= 0 {
		return c.fallback(valence, kw.Matched)
	}

	winner := models.AllMoodCategories[0]
	for _, cat := range models.AllMoodCategories[1:] {
		if c.beats(cat, winner, composite, kw.Hits) {
			winner = cat
		}
	}

	return models.MoodAnalysisResult{
		Category:        winner,
		Confidence:      clamp(composite[winner]/sum, 0, 1),
		Valence:         valence,
		MatchedKeywords: kw.Matched,
		Breakdown:       composite,
	}
}

func (c *Classifier) composite(valence float64, kw keywords.Result) map[models.MoodCategory]float64 {
	total := kw.Total()
	polarity := 0
	if valence >= c.tables.PolarityThreshold && valence > 0 {
		polarity = 1
	} else if valence <= -c.tables.PolarityThreshold && valence < 0 {
		polarity = -1
	}
	bonus := c.tables.SentimentWeight * math.Abs(valence)

	scores := make(map[models.MoodCategory]float64, len(models.AllMoodCategories))
	for _, cat := range models.AllMoodCategories {
		s := 0.0
		if total > 0 {
			s = float64(kw.Hits[cat]) / float64(total)
		}
		if polarity != 0 && c.tables.Polarity(cat) == polarity {
			s += bonus
		}
		scores[cat] = s
	}
	return scores
}

// beats reports whether a outranks b.
func (c *Classifier) beats(a, b models.MoodCategory, composite map[models.MoodCategory]float64, hits map[models.MoodCategory]int) bool {
	if composite[a] != composite[b] {
		return composite[a] > composite[b]
	}
	if hits[a] != hits[b] {
		return hits[a] > hits[b]
	}
	return c.tables.Rank(a) < c.tables.Rank(b)
}

func (c *Classifier) fallback(valence float64, matched []string) models.MoodAnalysisResult {
	if matched == nil {
		matched = []string{}
	}
	breakdown := make(map[models.MoodCategory]float64, len(models.AllMoodCategories))
	for _, cat := range models.AllMoodCategories {
		breakdown[cat] = 0
	}
	return models.MoodAnalysisResult{
		Category:        c.tables.DefaultCategory,
		Confidence:      0,
		Valence:         valence,
		MatchedKeywords: matched,
		Breakdown:       breakdown,
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}
