package keywords

import (
	"sort"
	"strings"

	"github.com/spacesedan/moodreel/internal/models"
)

type entry struct {
	category models.MoodCategory
	keyword  string
	words    []string
}

// Matcher counts whole-word keyword occurrences per mood category. It is
// immutable once built.
type Matcher struct {
	byFirstWord map[string][]entry
}

type Result struct {
	Hits    map[models.MoodCategory]int
	Matched []string
}

// Total is the number of hits across every category.
func (r Result) Total() int {
	total := 0
	for _, n := range r.Hits {
		total += n
	}
	return total
}

// NewMatcher indexes keywords by their first word. Keywords may be phrases;
// they are expected to already be lowercased.
func NewMatcher(keywords map[models.MoodCategory][]string) *Matcher {
	m := &Matcher{byFirstWord: make(map[string][]entry)}

	categories := make([]models.MoodCategory, 0, len(keywords))
	for c := range keywords {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	for _, c := range categories {
		for _, kw := range keywords[c] {
			words := strings.Fields(kw)
			if len(words) == 0 {
				continue
			}
			m.byFirstWord[words[0]] = append(m.byFirstWord[words[0]], entry{
				category: c,
				keyword:  strings.Join(words, " "),
				words:    words,
			})
		}
	}
	return m
}

// Match scans normalized text. Every known category is present in Hits.
func (m *Matcher) Match(normalized string) Result {
	hits := make(map[models.MoodCategory]int, len(models.AllMoodCategories))
	for _, c := range models.AllMoodCategories {
		hits[c] = 0
	}

	tokens := strings.Fields(normalized)
	matched := make(map[string]struct{})
	for i, tok := range tokens {
		for _, e := range m.byFirstWord[tok] {
			if !hasPhraseAt(tokens, i, e.words) {
				continue
			}
			hits[e.category]++
			matched[e.keyword] = struct{}{}
		}
	}

	out := make([]string, 0, len(matched))
	for kw := range matched {
		out = append(out, kw)
	}
	sort.Strings(out)

	return Result{Hits: hits, Matched: out}
}

func hasPhraseAt(tokens []string, i int, words []string) bool {
	if i+len(words) > len(tokens) {
		return false
	}
	for j, w := range words {
		if tokens[i+j] != w {
			return false
		}
	}
	return true
}
