package sentiment

import (
	"github.com/jonreiter/govader"
)

// VADERScorer uses the VADER compound score, which is already in [-1, 1].
type VADERScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVADERScorer() *VADERScorer {
	return &VADERScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (s *VADERScorer) Valence(normalized string) float64 {
	if normalized == "" {
		return 0
	}
	sentiment := s.analyzer.PolarityScores(normalized)
	return clamp(sentiment.Compound, -1, 1)
}
