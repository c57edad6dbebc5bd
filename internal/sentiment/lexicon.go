package sentiment

// LexiconScorer sums signed word weights and divides by the token count, so
// long text does not score higher just for being long.
type LexiconScorer struct {
	lexicon map[string]float64
}

func NewLexiconScorer(lexicon map[string]float64) *LexiconScorer {
	return &LexiconScorer{lexicon: lexicon}
}

func (s *LexiconScorer) Valence(normalized string) float64 {
	tokens := Tokens(normalized)
	if len(tokens) == 0 {
		return 0
	}
	sum := 0.0
	for _, tok := range tokens {
		sum += s.lexicon[tok]
	}
	return clamp(sum/float64(len(tokens)), -1, 1)
}
