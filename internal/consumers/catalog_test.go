package consumers

import (
	"context"
	"errors"
	"testing"

	"github.com/spacesedan/moodreel/internal/models"
)

type fakeLoader struct {
	items []models.ContentItem
	err   error
}

func (f fakeLoader) LoadCatalog(ctx context.Context) ([]models.ContentItem, error) {
	return f.items, f.err
}

func TestCatalogSnapshotRefresh(t *testing.T) {
	s := NewCatalogSnapshot(testCatalog())
	items, v1 := s.Current()
	if len(items) != 5 {
		t.Fatalf("len = %d", len(items))
	}

	next := testCatalog()[:2]
	if err := s.Refresh(context.Background(), fakeLoader{items: next}); err != nil {
		t.Fatal(err)
	}
	items, v2 := s.Current()
	if len(items) != 2 || v1 == v2 {
		t.Errorf("after refresh len=%d version changed=%v", len(items), v1 != v2)
	}

	boom := errors.New("boom")
	if err := s.Refresh(context.Background(), fakeLoader{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if items, v3 := s.Current(); len(items) != 2 || v3 != v2 {
		t.Error("failed refresh must keep the previous snapshot")
	}
}

func TestCatalogVersion(t *testing.T) {
	base := testCatalog()
	if CatalogVersion(base) != CatalogVersion(testCatalog()) {
		t.Error("equal catalogs should share a version")
	}

	changed := testCatalog()
	changed[0].QualityRating = 9.9
	if CatalogVersion(base) == CatalogVersion(changed) {
		t.Error("a rating change should change the version")
	}

	retagged := testCatalog()
	retagged[1].Tags = []string{"DramaBiography"}
	if CatalogVersion(base) == CatalogVersion(retagged) {
		t.Error("tag boundaries should be part of the version")
	}
}

func TestCatalogSnapshotZeroValue(t *testing.T) {
	var s CatalogSnapshot
	items, v := s.Current()
	if items != nil || v != CatalogVersion(nil) {
		t.Errorf("zero snapshot = %v, %q", items, v)
	}
}

func TestRatingsVersion(t *testing.T) {
	a := []models.Rating{{ItemID: "2", Stars: 5}, {ItemID: "5", Stars: 1}}
	b := []models.Rating{{ItemID: "5", Stars: 1}, {ItemID: "2", Stars: 5}}

	if RatingsVersion(nil) != "" {
		t.Error("no ratings should have an empty version")
	}
	if RatingsVersion(a) != RatingsVersion(b) {
		t.Error("row order should not change the version")
	}

	restarred := []models.Rating{{ItemID: "2", Stars: 4}, {ItemID: "5", Stars: 1}}
	if RatingsVersion(a) == RatingsVersion(restarred) {
		t.Error("a changed rating should change the version")
	}
	added := append([]models.Rating{{ItemID: "1", Stars: 3}}, a...)
	if RatingsVersion(a) == RatingsVersion(added) {
		t.Error("a new rating should change the version")
	}
}
