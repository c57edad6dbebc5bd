package recommend

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/spacesedan/moodreel/internal/models"
	"github.com/spacesedan/moodreel/internal/sentiment"
)

// MinSimilarity is the cosine similarity an item must exceed to be returned.
const MinSimilarity = 0.1

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "he": {}, "her": {}, "his": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "she": {}, "that": {}, "the": {},
	"their": {}, "they": {}, "this": {}, "to": {}, "was": {}, "who": {}, "with": {},
}

type termVector struct {
	terms   []string // sorted
	weights map[string]float64
	norm    float64
}

// Similar ranks items by TF-IDF cosine similarity of title, tags and plot to
// the item with targetID. An unknown target yields an empty result.
func Similar(targetID string, items []models.ContentItem, limit int) ([]models.SimilarResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}

	target := -1
	for i, item := range items {
		if item.ID == targetID {
			target = i
			break
		}
	}
	if target < 0 {
		return []models.SimilarResult{}, nil
	}

	docs := make([][]string, len(items))
	df := make(map[string]int)
	for i, item := range items {
		docs[i] = contentTokens(item)
		seen := make(map[string]struct{}, len(docs[i]))
		for _, tok := range docs[i] {
			if _, ok := seen[tok]; !ok {
				seen[tok] = struct{}{}
				df[tok]++
			}
		}
	}

	n := float64(len(items))
	vectors := make([]termVector, len(items))
	for i, doc := range docs {
		vectors[i] = tfidf(doc, df, n)
	}

	results := []models.SimilarResult{}
	for i, item := range items {
		if i == target || item.ID == targetID {
			continue
		}
		sim := cosine(vectors[target], vectors[i])
		if sim <= MinSimilarity {
			continue
		}
		results = append(results, models.SimilarResult{
			Item:       item,
			Similarity: sim,
			Rationale:  fmt.Sprintf("Similar to %s based on content", items[target].Title),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Item.ID < results[j].Item.ID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func contentTokens(item models.ContentItem) []string {
	text := item.Title + " " + strings.Join(item.Tags, " ") + " " + item.Plot
	var out []string
	for _, tok := range sentiment.Tokens(sentiment.Normalize(text)) {
		if _, stop := stopWords[tok]; stop || len(tok) < 2 {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// tfidf uses smoothed idf: ln((1+n)/(1+df)) + 1.
func tfidf(doc []string, df map[string]int, n float64) termVector {
	v := termVector{weights: make(map[string]float64)}
	if len(doc) == 0 {
		return v
	}
	counts := make(map[string]int)
	for _, tok := range doc {
		counts[tok]++
	}
	for tok := range counts {
		v.terms = append(v.terms, tok)
	}
	sort.Strings(v.terms)

	sq := 0.0
	for _, tok := range v.terms {
		tf := float64(counts[tok]) / float64(len(doc))
		idf := math.Log((1+n)/(1+float64(df[tok]))) + 1
		w := tf * idf
		v.weights[tok] = w
		sq += w * w
	}
	v.norm = math.Sqrt(sq)
	return v
}

func cosine(a, b termVector) float64 {
	if a.norm == 0 || b.norm == 0 {
		return 0
	}
	dot := 0.0
	for _, tok := range a.terms {
		if w, ok := b.weights[tok]; ok {
			dot += a.weights[tok] * w
		}
	}
	return dot / (a.norm * b.norm)
}
