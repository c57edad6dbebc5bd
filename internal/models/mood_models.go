package models

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownCategory = errors.New("unknown mood category")

type MoodCategory string

const (
	MoodJoyful       MoodCategory = "joyful"
	MoodSorrowful    MoodCategory = "sorrowful"
	MoodIrritated    MoodCategory = "irritated"
	MoodTense        MoodCategory = "tense"
	MoodTranquil     MoodCategory = "tranquil"
	MoodVigorous     MoodCategory = "vigorous"
	MoodAffectionate MoodCategory = "affectionate"
	MoodDaring       MoodCategory = "daring"
)

// AllMoodCategories lists the closed category set in declaration order.
var AllMoodCategories = []MoodCategory{
	MoodJoyful,
	MoodSorrowful,
	MoodIrritated,
	MoodTense,
	MoodTranquil,
	MoodVigorous,
	MoodAffectionate,
	MoodDaring,
}

func (c MoodCategory) String() string {
	return string(c)
}

func (c MoodCategory) Valid() bool {
	for _, known := range AllMoodCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseMoodCategory accepts a label in any case with surrounding whitespace.
func ParseMoodCategory(s string) (MoodCategory, error) {
	c := MoodCategory(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

type MoodAnalysisResult struct {
	Category        MoodCategory             `json:"category"`
	Confidence      float64                  `json:"confidence"`
	Valence         float64                  `json:"valence"`
	MatchedKeywords []string                 `json:"matched_keywords"`
	Breakdown       map[MoodCategory]float64 `json:"breakdown,omitempty"`
}

// MoodInput is either free text or an explicit category, never both.
type MoodInput struct {
	text     string
	category MoodCategory
	explicit bool
}

func FromText(text string) MoodInput {
	return MoodInput{text: text}
}

func FromCategory(c MoodCategory) MoodInput {
	return MoodInput{category: c, explicit: true}
}

func (m MoodInput) Text() string {
	return m.text
}

// Category reports the explicit category and whether one was given.
func (m MoodInput) Category() (MoodCategory, bool) {
	return m.category, m.explicit
}
