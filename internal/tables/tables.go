// Package tables holds the versioned data that drives mood classification and
// content matching: the sentiment lexicon, per-category keywords, the
// category to tag map and the tuning constants. Tables are loaded once and
// treated as immutable afterwards, so a *Tables may be shared freely between
// goroutines.
package tables

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spacesedan/moodreel/internal/models"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsRaw []byte

var ErrInvalidTables = errors.New("invalid mood tables")

type Tables struct {
	Version           string                           `yaml:"version"`
	DefaultCategory   models.MoodCategory              `yaml:"default_category"`
	Priority          []models.MoodCategory            `yaml:"priority"`
	PositiveGroup     []models.MoodCategory            `yaml:"positive_group"`
	NegativeGroup     []models.MoodCategory            `yaml:"negative_group"`
	SentimentWeight   float64                          `yaml:"sentiment_weight"`
	PolarityThreshold float64                          `yaml:"polarity_threshold"`
	QualityWeight     float64                          `yaml:"quality_weight"`
	QualityScale      float64                          `yaml:"quality_scale"`
	Keywords          map[models.MoodCategory][]string `yaml:"keywords"`
	CategoryTags      map[models.MoodCategory][]string `yaml:"category_tags"`
	Lexicon           map[string]float64               `yaml:"lexicon"`
}

// Default returns a fresh copy of the embedded tables.
func Default() *Tables {
	t, err := Parse(defaultsRaw)
	if err != nil {
		panic(fmt.Errorf("[Tables] embedded defaults are invalid: %w", err))
	}
	return t
}

// Load reads tables from a YAML file. An empty path yields the defaults.
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[Tables] failed to read %s: %w", path, err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("[Tables] failed to decode: %w", err)
	}
	t.normalize()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// normalize lowercases lexicon and keyword entries. Tags keep their case.
func (t *Tables) normalize() {
	lex := make(map[string]float64, len(t.Lexicon))
	for w, v := range t.Lexicon {
		lex[strings.ToLower(strings.TrimSpace(w))] = v
	}
	t.Lexicon = lex

	for c, kws := range t.Keywords {
		out := make([]string, 0, len(kws))
		for _, kw := range kws {
			kw = strings.Join(strings.Fields(strings.ToLower(kw)), " ")
			if kw != "" {
				out = append(out, kw)
			}
		}
		t.Keywords[c] = out
	}
}

// Validate checks that the tables are total over the category set and that
// every tuning constant is in range.
func (t *Tables) Validate() error {
	if !t.DefaultCategory.Valid() {
		return fmt.Errorf("%w: default category %q", ErrInvalidTables, t.DefaultCategory)
	}

	if len(t.Priority) != len(models.AllMoodCategories) {
		return fmt.Errorf("%w: priority lists %d categories, want %d",
			ErrInvalidTables, len(t.Priority), len(models.AllMoodCategories))
	}
	seen := make(map[models.MoodCategory]bool, len(t.Priority))
	for _, c := range t.Priority {
		if !c.Valid() || seen[c] {
			return fmt.Errorf("%w: priority entry %q", ErrInvalidTables, c)
		}
		seen[c] = true
	}

	polarity := make(map[models.MoodCategory]bool)
	for _, group := range [][]models.MoodCategory{t.PositiveGroup, t.NegativeGroup} {
		for _, c := range group {
			if !c.Valid() || polarity[c] {
				return fmt.Errorf("%w: polarity group entry %q", ErrInvalidTables, c)
			}
			polarity[c] = true
		}
	}

	owner := make(map[string]models.MoodCategory)
	for _, c := range models.AllMoodCategories {
		tags := t.CategoryTags[c]
		if len(tags) == 0 {
			return fmt.Errorf("%w: category %q has no mapped tags", ErrInvalidTables, c)
		}
		folded := make(map[string]bool, len(tags))
		for _, tag := range tags {
			key := cases.Fold().String(strings.TrimSpace(tag))
			if key == "" || folded[key] {
				return fmt.Errorf("%w: category %q has blank or repeated tag %q", ErrInvalidTables, c, tag)
			}
			folded[key] = true
		}
		for _, kw := range t.Keywords[c] {
			if prev, ok := owner[kw]; ok && prev != c {
				return fmt.Errorf("%w: keyword %q listed under %q and %q", ErrInvalidTables, kw, prev, c)
			}
			owner[kw] = c
		}
	}
	for c := range t.CategoryTags {
		if !c.Valid() {
			return fmt.Errorf("%w: tags for unknown category %q", ErrInvalidTables, c)
		}
	}
	for c := range t.Keywords {
		if !c.Valid() {
			return fmt.Errorf("%w: keywords for unknown category %q", ErrInvalidTables, c)
		}
	}

	for w, v := range t.Lexicon {
		if v < -1 || v > 1 {
			return fmt.Errorf("%w: lexicon weight for %q out of [-1,1]", ErrInvalidTables, w)
		}
	}

	if t.SentimentWeight < 0 || t.PolarityThreshold < 0 || t.QualityWeight < 0 {
		return fmt.Errorf("%w: weights must be non-negative", ErrInvalidTables)
	}
	if t.QualityScale <= 0 {
		return fmt.Errorf("%w: quality scale must be positive", ErrInvalidTables)
	}
	return nil
}

func (t *Tables) Tags(c models.MoodCategory) []string {
	return t.CategoryTags[c]
}

// Polarity returns 1 for the positive group, -1 for the negative group and 0
// otherwise.
func (t *Tables) Polarity(c models.MoodCategory) int {
	for _, p := range t.PositiveGroup {
		if p == c {
			return 1
		}
	}
	for _, n := range t.NegativeGroup {
		if n == c {
			return -1
		}
	}
	return 0
}

// Rank is the position of c in the priority order; lower wins ties.
func (t *Tables) Rank(c models.MoodCategory) int {
	for i, p := range t.Priority {
		if p == c {
			return i
		}
	}
	return len(t.Priority)
}
