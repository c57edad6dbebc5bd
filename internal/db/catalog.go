package db

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/spacesedan/moodreel/internal/models"
)

//go:embed schema.sql
var schemaSQL string

const (
	selectCatalogSQL = `SELECT id, title, tags, quality_rating, year, director, plot
FROM content_items ORDER BY id`
	selectRatingsSQL = `SELECT user_id, item_id, stars FROM ratings WHERE user_id = $1`
	insertMoodSQL    = `INSERT INTO mood_entries (user_id, mood_text, category, confidence, valence)
VALUES ($1, $2, $3, $4, $5)`
)

// Querier is the part of *pgxpool.Pool the store needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type CatalogStore struct {
	db Querier
}

func NewCatalogStore(db Querier) *CatalogStore {
	return &CatalogStore{db: db}
}

type catalogRow struct {
	ID            string   `db:"id"`
	Title         string   `db:"title"`
	Tags          []string `db:"tags"`
	QualityRating *float64 `db:"quality_rating"`
	Year          *int32   `db:"year"`
	Director      *string  `db:"director"`
	Plot          *string  `db:"plot"`
}

func (r catalogRow) toContentItem() models.ContentItem {
	item := models.ContentItem{
		ID:    r.ID,
		Title: r.Title,
		Tags:  r.Tags,
	}
	if item.Tags == nil {
		item.Tags = []string{}
	}
	if r.QualityRating != nil {
		item.QualityRating = *r.QualityRating
	}
	if r.Year != nil {
		item.Year = int(*r.Year)
	}
	if r.Director != nil {
		item.Director = *r.Director
	}
	if r.Plot != nil {
		item.Plot = *r.Plot
	}
	return item
}

type ratingRow struct {
	UserID string `db:"user_id"`
	ItemID string `db:"item_id"`
	Stars  int32  `db:"stars"`
}

func (s *CatalogStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("[Catalog] failed to apply schema: %w", err)
	}
	return nil
}

// LoadCatalog reads every content item. Items come back ordered by ID.
func (s *CatalogStore) LoadCatalog(ctx context.Context) ([]models.ContentItem, error) {
	rows, err := s.db.Query(ctx, selectCatalogSQL)
	if err != nil {
		return nil, fmt.Errorf("[Catalog] failed to query content items: %w", err)
	}

	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[catalogRow])
	if err != nil {
		return nil, fmt.Errorf("[Catalog] failed to scan content items: %w", err)
	}

	items := make([]models.ContentItem, 0, len(collected))
	for _, r := range collected {
		items = append(items, r.toContentItem())
	}

	slog.Info("[Catalog] Loaded content items", slog.Int("count", len(items)))
	return items, nil
}

func (s *CatalogStore) LoadRatings(ctx context.Context, userID string) ([]models.Rating, error) {
	rows, err := s.db.Query(ctx, selectRatingsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("[Catalog] failed to query ratings: %w", err)
	}

	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[ratingRow])
	if err != nil {
		return nil, fmt.Errorf("[Catalog] failed to scan ratings: %w", err)
	}

	ratings := make([]models.Rating, 0, len(collected))
	for _, r := range collected {
		ratings = append(ratings, models.Rating{
			UserID: r.UserID,
			ItemID: r.ItemID,
			Stars:  int(r.Stars),
		})
	}
	return ratings, nil
}

// StoreMoodEntry keeps the analysis behind a request for the user's history.
func (s *CatalogStore) StoreMoodEntry(ctx context.Context, userID, text string, analysis models.MoodAnalysisResult) error {
	_, err := s.db.Exec(ctx, insertMoodSQL,
		userID, text, analysis.Category.String(), analysis.Confidence, analysis.Valence)
	if err != nil {
		return fmt.Errorf("[Catalog] failed to store mood entry: %w", err)
	}
	return nil
}
