package clients

import (
	"errors"
	"strings"
	"testing"

	"github.com/spacesedan/moodreel/internal/models"
)

func TestCacheKey(t *testing.T) {
	base := models.RecommendationRequest{UserID: "u1", MoodText: "great day", Limit: 5}
	key := CacheKey("2024.1", "abc", "r1", base, 5)

	if !strings.HasPrefix(key, VALKEY_RECOMMENDATION_PREFIX) {
		t.Fatalf("key %q lacks prefix", key)
	}
	if again := CacheKey("2024.1", "abc", "r1", base, 5); again != key {
		t.Errorf("key not stable: %q vs %q", key, again)
	}

	variants := map[string]string{
		"tables version":  CacheKey("2024.2", "abc", "r1", base, 5),
		"catalog version": CacheKey("2024.1", "abd", "r1", base, 5),
		"limit":           CacheKey("2024.1", "abc", "r1", base, 6),
		"ratings":         CacheKey("2024.1", "abc", "r2", base, 5),
		"user":            CacheKey("2024.1", "abc", "r1", models.RecommendationRequest{UserID: "u2", MoodText: "great day"}, 5),
		"text":            CacheKey("2024.1", "abc", "r1", models.RecommendationRequest{UserID: "u1", MoodText: "bad day"}, 5),
		"category":        CacheKey("2024.1", "abc", "r1", models.RecommendationRequest{UserID: "u1", MoodCategory: "tense"}, 5),
	}
	for name, other := range variants {
		if other == key {
			t.Errorf("changing %s did not change the key", name)
		}
	}
}

func TestCacheKeyFieldBoundaries(t *testing.T) {
	a := CacheKey("v", "c", "r1", models.RecommendationRequest{UserID: "ab", MoodText: "c"}, 1)
	b := CacheKey("v", "c", "r1", models.RecommendationRequest{UserID: "a", MoodText: "bc"}, 1)
	if a == b {
		t.Error("fields must be separated before hashing")
	}
}

func TestCacheKeyCategoryCase(t *testing.T) {
	a := CacheKey("v", "c", "r1", models.RecommendationRequest{MoodCategory: "Tense"}, 1)
	b := CacheKey("v", "c", "r1", models.RecommendationRequest{MoodCategory: " tense "}, 1)
	if a != b {
		t.Error("category spelling should not split the cache")
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("unexpected EOF"), true},
		{errors.New("read: i/o timeout"), true},
		{errors.New("WRONGTYPE Operation"), false},
	}
	for _, tt := range tests {
		if got := isConnectionError(tt.err); got != tt.want {
			t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestPostgresDSN(t *testing.T) {
	t.Setenv("DB_USER", "reel")
	t.Setenv("DB_PASSWORD", "p@ss")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_NAME", "films")
	t.Setenv("DB_SSLMODE", "require")

	want := "postgres://reel:p%40ss@db:6543/films?sslmode=require"
	if got := PostgresDSN(); got != want {
		t.Errorf("PostgresDSN() = %q, want %q", got, want)
	}
}
