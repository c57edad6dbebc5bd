package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spacesedan/moodreel/config"
	"github.com/spacesedan/moodreel/internal/clients"
	"github.com/spacesedan/moodreel/internal/db"
	"github.com/spacesedan/moodreel/internal/models"
	"github.com/spacesedan/moodreel/internal/pipeline"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	tablesPath string
	backend    string
	catalog    string
	fromDB     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "moodreel",
		Short:         "Mood-based movie recommendations",
		Long:          "moodreel classifies free-text mood descriptions and ranks a movie catalog against the result.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&opts.tablesPath, "tables", "", "mood tables YAML (default: embedded tables or MOOD_TABLES_PATH)")
	cmd.PersistentFlags().StringVar(&opts.backend, "backend", "", "sentiment backend: lexicon or vader (default: SENTIMENT_BACKEND)")
	cmd.PersistentFlags().StringVar(&opts.catalog, "catalog", "", "catalog JSON file (array of content items)")
	cmd.PersistentFlags().BoolVar(&opts.fromDB, "from-db", false, "load the catalog from PostgreSQL instead of --catalog")

	cmd.AddCommand(newAnalyzeCmd(opts), newRecommendCmd(opts), newSimilarCmd(opts), newHistoryCmd())
	return cmd
}

func (o *rootOptions) appConfig() config.AppConfig {
	cfg := config.GetAppConfig()
	if o.tablesPath != "" {
		cfg.TablesPath = o.tablesPath
	}
	if o.backend != "" {
		cfg.SentimentBackend = o.backend
	}
	return cfg
}

func (o *rootOptions) pipeline() (*pipeline.Pipeline, error) {
	return pipeline.Build(o.appConfig())
}

func (o *rootOptions) loadCatalog(ctx context.Context) ([]models.ContentItem, error) {
	if o.fromDB {
		pg, err := clients.GetPostgresClient(ctx)
		if err != nil {
			return nil, err
		}
		defer pg.Close()
		return db.NewCatalogStore(pg.DB).LoadCatalog(ctx)
	}
	if o.catalog == "" {
		return nil, fmt.Errorf("either --catalog or --from-db is required")
	}
	var items []models.ContentItem
	if err := readJSONFile(o.catalog, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func readJSONFile(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
