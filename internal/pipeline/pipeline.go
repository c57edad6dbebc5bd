package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/spacesedan/moodreel/internal/models"
	"github.com/spacesedan/moodreel/internal/mood"
	"github.com/spacesedan/moodreel/internal/recommend"
	"github.com/spacesedan/moodreel/internal/sentiment"
	"github.com/spacesedan/moodreel/internal/tables"
)

// Pipeline is the single entry point callers use: text goes through the
// classifier, an explicit category skips it with full confidence.
type Pipeline struct {
	tables     *tables.Tables
	classifier *mood.Classifier
	scorer     *recommend.Scorer
}

func New(t *tables.Tables, s sentiment.Scorer) *Pipeline {
	return &Pipeline{
		tables:     t,
		classifier: mood.NewClassifier(t, s),
		scorer:     recommend.NewScorer(t),
	}
}

// TablesVersion identifies the data the pipeline was built from. Cached
// results are only valid for the same version.
func (p *Pipeline) TablesVersion() string {
	return p.tables.Version
}

func (p *Pipeline) AnalyzeMood(text string) models.MoodAnalysisResult {
	return p.classifier.Analyze(text)
}

func (p *Pipeline) GetRecommendations(
	input models.MoodInput,
	items []models.ContentItem,
	profile models.PreferenceProfile,
	limit int,
) ([]models.RecommendationResult, error) {
	resp, err := p.Process(input, items, profile, limit)
	if err != nil {
		return nil, err
	}
	return resp.Recommendations, nil
}

// Process is GetRecommendations plus the analysis that drove it.
func (p *Pipeline) Process(
	input models.MoodInput,
	items []models.ContentItem,
	profile models.PreferenceProfile,
	limit int,
) (models.RecommendationResponse, error) {
	analysis, err := p.resolve(input)
	if err != nil {
		return models.RecommendationResponse{}, err
	}

	recs, err := p.scorer.Recommend(analysis.Category, analysis.Confidence, items, profile, limit)
	if err != nil {
		return models.RecommendationResponse{}, err
	}

	slog.Debug("[Pipeline] Recommendations computed",
		slog.String("category", analysis.Category.String()),
		slog.Float64("confidence", analysis.Confidence),
		slog.Int("catalog_size", len(items)),
		slog.Int("results", len(recs)))

	return models.RecommendationResponse{
		Analysis:        analysis,
		Recommendations: recs,
		Total:           len(recs),
	}, nil
}

func (p *Pipeline) resolve(input models.MoodInput) (models.MoodAnalysisResult, error) {
	category, explicit := input.Category()
	if !explicit {
		return p.classifier.Analyze(input.Text()), nil
	}
	if !category.Valid() {
		return models.MoodAnalysisResult{}, fmt.Errorf("%w: %q", models.ErrUnknownCategory, category)
	}
	return models.MoodAnalysisResult{
		Category:        category,
		Confidence:      1.0,
		MatchedKeywords: []string{},
	}, nil
}
