package consumers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/spacesedan/moodreel/internal/metrics"
	"github.com/spacesedan/moodreel/internal/models"
)

type CatalogLoader interface {
	LoadCatalog(ctx context.Context) ([]models.ContentItem, error)
}

type catalogState struct {
	items   []models.ContentItem
	version string
}

// CatalogSnapshot holds the catalog the worker scores against. Readers get
// an immutable slice; Refresh swaps in a new one atomically.
type CatalogSnapshot struct {
	state atomic.Pointer[catalogState]
}

func NewCatalogSnapshot(items []models.ContentItem) *CatalogSnapshot {
	s := &CatalogSnapshot{}
	s.store(items)
	return s
}

func (s *CatalogSnapshot) store(items []models.ContentItem) {
	s.state.Store(&catalogState{items: items, version: CatalogVersion(items)})
	metrics.CatalogSize.Set(float64(len(items)))
}

// Current returns the items and a version that changes whenever a field that
// shows up in a response changes.
func (s *CatalogSnapshot) Current() ([]models.ContentItem, string) {
	st := s.state.Load()
	if st == nil {
		return nil, CatalogVersion(nil)
	}
	return st.items, st.version
}

func (s *CatalogSnapshot) Refresh(ctx context.Context, loader CatalogLoader) error {
	items, err := loader.LoadCatalog(ctx)
	if err != nil {
		return fmt.Errorf("[CatalogSnapshot] refresh failed: %w", err)
	}
	s.store(items)
	return nil
}

// RunRefresh reloads the catalog every interval until ctx is done. A failed
// reload keeps the previous snapshot.
func (s *CatalogSnapshot) RunRefresh(ctx context.Context, loader CatalogLoader, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx, loader); err != nil {
				slog.Warn("[CatalogSnapshot] Keeping previous catalog",
					slog.String("error", err.Error()))
				continue
			}
			items, version := s.Current()
			slog.Info("[CatalogSnapshot] Catalog refreshed",
				slog.Int("items", len(items)),
				slog.String("version", version))
		}
	}
}

func CatalogVersion(items []models.ContentItem) string {
	d := xxhash.New()
	for _, item := range items {
		_, _ = d.WriteString(item.ID)
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(item.Title)
		_, _ = d.Write([]byte{0})
		for _, tag := range item.Tags {
			_, _ = d.WriteString(tag)
			_, _ = d.Write([]byte{1})
		}
		_, _ = d.WriteString(strconv.FormatFloat(item.QualityRating, 'g', -1, 64))
		_, _ = d.WriteString(strconv.Itoa(item.Year))
		_, _ = d.Write([]byte{0})
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// RatingsVersion fingerprints a user's ratings so a new or changed rating
// yields a new cache key. Row order does not matter.
func RatingsVersion(ratings []models.Rating) string {
	if len(ratings) == 0 {
		return ""
	}
	sorted := make([]models.Rating, len(ratings))
	copy(sorted, ratings)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ItemID != sorted[j].ItemID {
			return sorted[i].ItemID < sorted[j].ItemID
		}
		return sorted[i].Stars < sorted[j].Stars
	})

	d := xxhash.New()
	for _, r := range sorted {
		_, _ = d.WriteString(r.ItemID)
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(strconv.Itoa(r.Stars))
		_, _ = d.Write([]byte{0})
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
