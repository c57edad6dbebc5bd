package consumers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spacesedan/moodreel/internal/models"
	"github.com/spacesedan/moodreel/internal/pipeline"
	"github.com/spacesedan/moodreel/internal/recommend"
	"github.com/spacesedan/moodreel/internal/tables"
)

func testCatalog() []models.ContentItem {
	return []models.ContentItem{
		{ID: "1", Title: "Laugh Track", Tags: []string{"Comedy"}, QualityRating: 7.5, Year: 2012},
		{ID: "2", Title: "Heavy Hearts", Tags: []string{"Drama", "Biography"}, QualityRating: 8.1, Year: 2018},
		{ID: "3", Title: "Full Throttle", Tags: []string{"Action", "Sport"}, QualityRating: 6.9, Year: 2020},
		{ID: "4", Title: "Sing Along", Tags: []string{"Musical", "Family"}, QualityRating: 7.0, Year: 2015},
		{ID: "5", Title: "Night Watch", Tags: []string{"Thriller", "Mystery"}, QualityRating: 7.8, Year: 2019},
	}
}

type fakeCache struct {
	entries map[string]models.RecommendationResponse
	gets    int
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]models.RecommendationResponse)}
}

func (c *fakeCache) GetRecommendations(ctx context.Context, key string) (*models.RecommendationResponse, bool) {
	c.gets++
	resp, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return &resp, true
}

func (c *fakeCache) SetRecommendations(ctx context.Context, key string, resp models.RecommendationResponse, ttl time.Duration) error {
	c.sets++
	c.entries[key] = resp
	return nil
}

type fakeRatings struct {
	ratings []models.Rating
	err     error
}

func (f fakeRatings) LoadRatings(ctx context.Context, userID string) ([]models.Rating, error) {
	return f.ratings, f.err
}

type fakeMoods struct {
	entries []string
}

func (f *fakeMoods) StoreMoodEntry(ctx context.Context, userID, text string, analysis models.MoodAnalysisResult) error {
	f.entries = append(f.entries, userID+":"+analysis.Category.String())
	return nil
}

type fakeHistory struct {
	calls   int
	written []models.RecommendationRecord
	err     error
}

func (f *fakeHistory) BatchInsertRecommendations(ctx context.Context, records []models.RecommendationRecord) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, records...)
	return nil
}

type published struct {
	topic string
	key   string
	reply models.RecommendationReply
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) Publish(ctx context.Context, topic, key string, value any) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{topic: topic, key: key, reply: value.(models.RecommendationReply)})
	return nil
}

func newHandler(deps HandlerDeps) *RecommendationHandler {
	deps.Pipeline = pipeline.New(tables.Default(), nil)
	deps.Catalog = NewCatalogSnapshot(testCatalog())
	h := NewRecommendationHandler(deps)
	h.now = func() time.Time { return time.Unix(1700000000, 0) }
	return h
}

func replyIDs(r models.RecommendationReply) []string {
	if r.Response == nil {
		return nil
	}
	out := make([]string, len(r.Response.Recommendations))
	for i, rec := range r.Response.Recommendations {
		out[i] = rec.Item.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestInputFromRequest(t *testing.T) {
	tests := []struct {
		name         string
		req          models.RecommendationRequest
		wantCategory models.MoodCategory
		wantExplicit bool
		wantLimit    int
		wantErr      error
	}{
		{"text", models.RecommendationRequest{MoodText: "so happy", Limit: 3}, "", false, 3, nil},
		{"category any case", models.RecommendationRequest{MoodCategory: " Tense ", Limit: 2}, models.MoodTense, true, 2, nil},
		{"category wins over text", models.RecommendationRequest{MoodText: "sad", MoodCategory: "joyful", Limit: 1}, models.MoodJoyful, true, 1, nil},
		{"omitted limit takes default", models.RecommendationRequest{MoodText: "calm"}, "", false, 7, nil},
		{"neither", models.RecommendationRequest{MoodText: "   ", Limit: 1}, "", false, 0, ErrEmptyRequest},
		{"unknown category", models.RecommendationRequest{MoodCategory: "hangry", Limit: 1}, "", false, 0, models.ErrUnknownCategory},
		{"negative limit", models.RecommendationRequest{MoodText: "calm", Limit: -1}, "", false, 0, recommend.ErrInvalidLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, limit, err := inputFromRequest(tt.req, 7)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", limit, tt.wantLimit)
			}
			c, explicit := input.Category()
			if explicit != tt.wantExplicit || (explicit && c != tt.wantCategory) {
				t.Errorf("Category() = %q, %v", c, explicit)
			}
		})
	}
}

func TestHandleExplicitCategory(t *testing.T) {
	h := newHandler(HandlerDeps{})
	reply := h.Handle(context.Background(), models.RecommendationRequest{RequestID: "r1", MoodCategory: "tense", Limit: 5})

	if reply.Error != "" {
		t.Fatalf("unexpected error: %s", reply.Error)
	}
	if reply.RequestID != "r1" {
		t.Errorf("RequestID = %q", reply.RequestID)
	}
	if got := replyIDs(reply); !equalIDs(got, []string{"5", "2"}) {
		t.Errorf("ids = %v, want [5 2]", got)
	}
	if reply.Response.Analysis.Confidence != 1.0 {
		t.Errorf("confidence = %v", reply.Response.Analysis.Confidence)
	}
}

func TestHandleTextRequest(t *testing.T) {
	h := newHandler(HandlerDeps{})
	reply := h.Handle(context.Background(), models.RecommendationRequest{MoodText: "so happy and cheerful today", Limit: 3})

	if reply.Error != "" {
		t.Fatalf("unexpected error: %s", reply.Error)
	}
	if reply.Response.Analysis.Category != models.MoodJoyful {
		t.Errorf("category = %s", reply.Response.Analysis.Category)
	}
	if reply.Response.Total != 2 {
		t.Errorf("Total = %d, want 2", reply.Response.Total)
	}
}

func TestHandleInvalidRequests(t *testing.T) {
	h := newHandler(HandlerDeps{})
	for _, req := range []models.RecommendationRequest{
		{RequestID: "a"},
		{RequestID: "b", MoodCategory: "hangry"},
		{RequestID: "c", MoodText: "happy", Limit: -3},
	} {
		reply := h.Handle(context.Background(), req)
		if reply.Error == "" || reply.Response != nil {
			t.Errorf("request %s: reply = %+v, want error only", req.RequestID, reply)
		}
		if reply.RequestID != req.RequestID {
			t.Errorf("request %s: reply id %q", req.RequestID, reply.RequestID)
		}
	}
}

func TestHandleUsesCache(t *testing.T) {
	cache := newFakeCache()
	h := newHandler(HandlerDeps{Cache: cache, CacheTTL: time.Minute})
	req := models.RecommendationRequest{RequestID: "r1", MoodCategory: "tense", Limit: 5}

	first := h.Handle(context.Background(), req)
	if cache.sets != 1 {
		t.Fatalf("sets = %d, want 1", cache.sets)
	}

	for key, resp := range cache.entries {
		resp.Total = 99
		cache.entries[key] = resp
	}

	second := h.Handle(context.Background(), req)
	if second.Response == nil || second.Response.Total != 99 {
		t.Fatalf("second reply should come from the cache, got %+v", second.Response)
	}
	if first.Response.Total == 99 {
		t.Error("first reply should have been computed")
	}
	if cache.sets != 1 {
		t.Errorf("cache hit should not be written back, sets = %d", cache.sets)
	}
}

func TestHandleCacheHitRecordsHistoryAndMood(t *testing.T) {
	cache := newFakeCache()
	moods := &fakeMoods{}
	h := newHandler(HandlerDeps{Cache: cache, Moods: moods, CacheTTL: time.Minute})

	first := h.Handle(context.Background(), models.RecommendationRequest{RequestID: "r1", UserID: "u1", MoodText: "so happy and cheerful today", Limit: 5})
	if first.Response == nil || first.Response.Total == 0 {
		t.Fatalf("first reply = %+v", first)
	}
	perRequest := len(first.Response.Recommendations)

	second := h.Handle(context.Background(), models.RecommendationRequest{RequestID: "r2", UserID: "u1", MoodText: "so happy and cheerful today", Limit: 5})
	if cache.gets != 2 || cache.sets != 1 {
		t.Fatalf("second request should be a cache hit: gets=%d sets=%d", cache.gets, cache.sets)
	}
	if second.RequestID != "r2" {
		t.Errorf("RequestID = %q, want r2", second.RequestID)
	}

	if got := h.history.Size(); got != 2*perRequest {
		t.Errorf("history size = %d, want %d", got, 2*perRequest)
	}
	if len(moods.entries) != 2 {
		t.Errorf("mood entries = %v, want one per text request", moods.entries)
	}

	records := h.history.GetAndClear()
	if last := records[len(records)-1]; last.RequestID != "r2" {
		t.Errorf("last history row belongs to %q, want r2", last.RequestID)
	}
}

func TestHandleCacheFollowsRatings(t *testing.T) {
	cache := newFakeCache()
	ratings := &fakeRatings{}
	h := newHandler(HandlerDeps{Cache: cache, Ratings: ratings, CacheTTL: time.Minute})
	req := models.RecommendationRequest{UserID: "u1", MoodCategory: "tense", Limit: 5}

	before := h.Handle(context.Background(), req)
	if got := replyIDs(before); !equalIDs(got, []string{"5", "2"}) {
		t.Fatalf("ids = %v, want [5 2] before any rating", got)
	}

	ratings.ratings = []models.Rating{
		{UserID: "u1", ItemID: "2", Stars: 5},
		{UserID: "u1", ItemID: "5", Stars: 1},
	}
	after := h.Handle(context.Background(), req)
	if cache.sets != 2 {
		t.Errorf("new ratings should miss the cache, sets = %d", cache.sets)
	}
	if got := replyIDs(after); !equalIDs(got, []string{"2", "5"}) {
		t.Errorf("ids = %v, want [2 5] after rating", got)
	}
}

func TestHandleSkipsUnhealthyCache(t *testing.T) {
	cache := newFakeCache()
	var healthy atomic.Bool
	h := newHandler(HandlerDeps{Cache: cache, CacheHealthy: &healthy})

	h.Handle(context.Background(), models.RecommendationRequest{MoodCategory: "tense", Limit: 5})
	if cache.gets != 0 || cache.sets != 0 {
		t.Errorf("unhealthy cache was used: gets=%d sets=%d", cache.gets, cache.sets)
	}
}

func TestHandleSkipsUnhealthyStore(t *testing.T) {
	ratings := fakeRatings{ratings: []models.Rating{
		{UserID: "u1", ItemID: "2", Stars: 5},
		{UserID: "u1", ItemID: "5", Stars: 1},
	}}
	moods := &fakeMoods{}
	var healthy atomic.Bool
	h := newHandler(HandlerDeps{Ratings: ratings, Moods: moods, StoreHealthy: &healthy})

	reply := h.Handle(context.Background(), models.RecommendationRequest{UserID: "u1", MoodCategory: "tense", Limit: 5})
	if got := replyIDs(reply); !equalIDs(got, []string{"5", "2"}) {
		t.Errorf("ids = %v, want neutral ranking [5 2] while the store is down", got)
	}
	h.Handle(context.Background(), models.RecommendationRequest{UserID: "u1", MoodText: "so happy and cheerful", Limit: 5})
	if len(moods.entries) != 0 {
		t.Errorf("mood entries = %v, want none while the store is down", moods.entries)
	}
	if h.history.Size() == 0 {
		t.Error("history should still be buffered")
	}

	healthy.Store(true)
	reply = h.Handle(context.Background(), models.RecommendationRequest{UserID: "u1", MoodCategory: "tense", Limit: 5})
	if got := replyIDs(reply); !equalIDs(got, []string{"2", "5"}) {
		t.Errorf("ids = %v, want [2 5] once the store recovers", got)
	}
}

func TestHandleAppliesRatingProfile(t *testing.T) {
	ratings := fakeRatings{ratings: []models.Rating{
		{UserID: "u1", ItemID: "2", Stars: 5},
		{UserID: "u1", ItemID: "5", Stars: 1},
	}}
	h := newHandler(HandlerDeps{Ratings: ratings})

	reply := h.Handle(context.Background(), models.RecommendationRequest{UserID: "u1", MoodCategory: "tense", Limit: 5})
	if got := replyIDs(reply); !equalIDs(got, []string{"2", "5"}) {
		t.Errorf("ids = %v, want [2 5] once the user's ratings are applied", got)
	}
}

func TestHandleRatingsUnavailable(t *testing.T) {
	h := newHandler(HandlerDeps{Ratings: fakeRatings{err: errors.New("db down")}})

	reply := h.Handle(context.Background(), models.RecommendationRequest{UserID: "u1", MoodCategory: "tense", Limit: 5})
	if reply.Error != "" {
		t.Fatalf("ratings failure should not fail the request: %s", reply.Error)
	}
	if got := replyIDs(reply); !equalIDs(got, []string{"5", "2"}) {
		t.Errorf("ids = %v, want neutral ranking [5 2]", got)
	}
}

func TestHandleRecordsHistoryAndMood(t *testing.T) {
	moods := &fakeMoods{}
	h := newHandler(HandlerDeps{Moods: moods})

	h.Handle(context.Background(), models.RecommendationRequest{RequestID: "r1", UserID: "u1", MoodText: "so happy and cheerful", Limit: 5})
	h.Handle(context.Background(), models.RecommendationRequest{RequestID: "r2", UserID: "u1", MoodCategory: "tense", Limit: 5})
	h.Handle(context.Background(), models.RecommendationRequest{RequestID: "r3", MoodCategory: "tense", Limit: 5})

	if h.history.Size() != 4 {
		t.Errorf("history size = %d, want 4 (anonymous requests are not kept)", h.history.Size())
	}
	if len(moods.entries) != 1 || moods.entries[0] != "u1:joyful" {
		t.Errorf("mood entries = %v, want only the text request", moods.entries)
	}

	writer := &fakeHistory{}
	h.FlushHistory(context.Background(), writer)
	if len(writer.written) != 4 || h.history.Size() != 0 {
		t.Errorf("flushed %d records, %d left", len(writer.written), h.history.Size())
	}
	if writer.written[0].RequestID != "r1" || writer.written[0].CreatedAt != 1700000000 {
		t.Errorf("first record = %+v", writer.written[0])
	}
}

func TestFlushHistoryRetriesThenDrops(t *testing.T) {
	h := newHandler(HandlerDeps{})
	h.Handle(context.Background(), models.RecommendationRequest{UserID: "u1", MoodCategory: "tense", Limit: 1})

	writer := &fakeHistory{err: errors.New("throttled")}
	h.FlushHistory(context.Background(), writer)
	if writer.calls != 3 {
		t.Errorf("calls = %d, want 3", writer.calls)
	}
	if h.history.HasData() {
		t.Error("failed batch should be dropped")
	}

	writer = &fakeHistory{}
	h.FlushHistory(context.Background(), writer)
	if writer.calls != 0 {
		t.Error("empty buffer should not reach the writer")
	}
}

func TestHandleMessage(t *testing.T) {
	h := newHandler(HandlerDeps{})
	pub := &fakePublisher{}

	if !h.handleMessage(context.Background(), []byte("{not json"), pub, "results") {
		t.Error("undecodable message should be committed")
	}
	if len(pub.sent) != 0 {
		t.Error("undecodable message should not produce a reply")
	}

	ok := h.handleMessage(context.Background(), []byte(`{"request_id":"r9","mood_category":"joyful","limit":2}`), pub, "results")
	if !ok || len(pub.sent) != 1 {
		t.Fatalf("ok=%v sent=%d", ok, len(pub.sent))
	}
	sent := pub.sent[0]
	if sent.topic != "results" || sent.key != "r9" || sent.reply.Response == nil {
		t.Errorf("published %+v", sent)
	}

	failing := &fakePublisher{err: errors.New("broker gone")}
	if h.handleMessage(context.Background(), []byte(`{"request_id":"r10","mood_category":"joyful"}`), failing, "results") {
		t.Error("failed publish must not allow a commit")
	}
}
