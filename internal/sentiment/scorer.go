package sentiment

// Scorer maps normalized text to a valence in [-1, 1]. Implementations must
// return 0 for empty or neutral text and must be safe for concurrent use.
type Scorer interface {
	Valence(normalized string) float64
}

const (
	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelNeutral  = "neutral"
)

// Label buckets a valence the same way regardless of the scorer used.
func Label(valence float64) string {
	if valence >= 0.20 {
		return LabelPositive
	} else if valence <= -0.20 {
		return LabelNegative
	}
	return LabelNeutral
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
