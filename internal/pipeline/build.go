package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/spacesedan/moodreel/config"
	"github.com/spacesedan/moodreel/internal/sentiment"
	"github.com/spacesedan/moodreel/internal/tables"
)

// Build loads the configured tables and sentiment backend.
func Build(cfg config.AppConfig) (*Pipeline, error) {
	t, err := tables.Load(cfg.TablesPath)
	if err != nil {
		return nil, err
	}

	var scorer sentiment.Scorer
	switch cfg.SentimentBackend {
	case config.SENTIMENT_BACKEND_VADER:
		scorer = sentiment.NewVADERScorer()
	case config.SENTIMENT_BACKEND_LEXICON, "":
		scorer = sentiment.NewLexiconScorer(t.Lexicon)
	default:
		return nil, fmt.Errorf("[Pipeline] unknown sentiment backend %q", cfg.SentimentBackend)
	}

	slog.Info("[Pipeline] Initialized",
		slog.String("tables_version", t.Version),
		slog.String("sentiment_backend", cfg.SentimentBackend))

	return New(t, scorer), nil
}
