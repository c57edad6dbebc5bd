package consumers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/moodreel/internal/clients"
	"github.com/spacesedan/moodreel/internal/clients/kafka_client"
	"github.com/spacesedan/moodreel/internal/db"
	"github.com/spacesedan/moodreel/internal/metrics"
	"github.com/spacesedan/moodreel/internal/models"
	"github.com/spacesedan/moodreel/internal/pipeline"
	"github.com/spacesedan/moodreel/internal/recommend"
	"github.com/spacesedan/moodreel/internal/utils"
)

var ErrEmptyRequest = errors.New("request needs mood_text or mood_category")

type RatingLoader interface {
	LoadRatings(ctx context.Context, userID string) ([]models.Rating, error)
}

type MoodRecorder interface {
	StoreMoodEntry(ctx context.Context, userID, text string, analysis models.MoodAnalysisResult) error
}

type ResponseCache interface {
	GetRecommendations(ctx context.Context, key string) (*models.RecommendationResponse, bool)
	SetRecommendations(ctx context.Context, key string, resp models.RecommendationResponse, ttl time.Duration) error
}

type HistoryWriter interface {
	BatchInsertRecommendations(ctx context.Context, records []models.RecommendationRecord) error
}

type ReplyPublisher interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

// HandlerDeps are the collaborators around the pipeline. Everything except
// Pipeline and Catalog is optional. A nil health flag counts as healthy.
type HandlerDeps struct {
	Pipeline     *pipeline.Pipeline
	Catalog      *CatalogSnapshot
	Ratings      RatingLoader
	Moods        MoodRecorder
	StoreHealthy *atomic.Bool
	Cache        ResponseCache
	CacheHealthy *atomic.Bool
	DefaultLimit int
	CacheTTL     time.Duration
}

type RecommendationHandler struct {
	deps    HandlerDeps
	history *utils.BatchBuffer[models.RecommendationRecord]
	now     func() time.Time
}

func NewRecommendationHandler(deps HandlerDeps) *RecommendationHandler {
	if deps.DefaultLimit <= 0 {
		deps.DefaultLimit = 10
	}
	return &RecommendationHandler{
		deps:    deps,
		history: utils.NewBatchBuffer[models.RecommendationRecord](utils.HISTORY_BATCH_SIZE),
		now:     time.Now,
	}
}

// inputFromRequest validates a request. An omitted limit (zero) takes the
// default; a negative one is rejected.
func inputFromRequest(req models.RecommendationRequest, defaultLimit int) (models.MoodInput, int, error) {
	limit := req.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	if limit < 0 {
		return models.MoodInput{}, 0, fmt.Errorf("%w: %d", recommend.ErrInvalidLimit, limit)
	}

	if strings.TrimSpace(req.MoodCategory) != "" {
		c, err := models.ParseMoodCategory(req.MoodCategory)
		if err != nil {
			return models.MoodInput{}, 0, err
		}
		return models.FromCategory(c), limit, nil
	}
	if strings.TrimSpace(req.MoodText) == "" {
		return models.MoodInput{}, 0, ErrEmptyRequest
	}
	return models.FromText(req.MoodText), limit, nil
}

func invalidReason(err error) string {
	switch {
	case errors.Is(err, ErrEmptyRequest):
		return "empty_input"
	case errors.Is(err, models.ErrUnknownCategory):
		return "unknown_category"
	case errors.Is(err, recommend.ErrInvalidLimit):
		return "invalid_limit"
	default:
		return "other"
	}
}

func errorReply(req models.RecommendationRequest, err error) models.RecommendationReply {
	metrics.IncInvalidRequest(invalidReason(err))
	return models.RecommendationReply{
		RequestID: req.RequestID,
		UserID:    req.UserID,
		Error:     err.Error(),
	}
}

func (h *RecommendationHandler) cacheUsable() bool {
	if h.deps.Cache == nil {
		return false
	}
	return h.deps.CacheHealthy == nil || h.deps.CacheHealthy.Load()
}

// storeUsable gates ratings and mood entries while PostgreSQL is down so a
// request does not wait on a dead pool.
func (h *RecommendationHandler) storeUsable() bool {
	return h.deps.StoreHealthy == nil || h.deps.StoreHealthy.Load()
}

// ratingsFor loads the user's ratings. A failed load falls back to a
// neutral profile.
func (h *RecommendationHandler) ratingsFor(ctx context.Context, userID string) []models.Rating {
	if h.deps.Ratings == nil || userID == "" || !h.storeUsable() {
		return nil
	}
	ratings, err := h.deps.Ratings.LoadRatings(ctx, userID)
	if err != nil {
		slog.Warn("[RecommendationConsumer] Using neutral profile, ratings unavailable",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		return nil
	}
	return ratings
}

// Handle answers one request. Failures the caller caused come back in the
// reply's Error field; the pipeline never sees a partially valid request.
func (h *RecommendationHandler) Handle(ctx context.Context, req models.RecommendationRequest) models.RecommendationReply {
	start := time.Now()
	defer metrics.ObserveRequestDuration(start)

	input, limit, err := inputFromRequest(req, h.deps.DefaultLimit)
	if err != nil {
		return errorReply(req, err)
	}

	items, catalogVersion := h.deps.Catalog.Current()
	ratings := h.ratingsFor(ctx, req.UserID)
	key := clients.CacheKey(h.deps.Pipeline.TablesVersion(), catalogVersion, RatingsVersion(ratings), req, limit)

	if h.cacheUsable() {
		cached, ok := h.deps.Cache.GetRecommendations(ctx, key)
		metrics.IncCacheLookup(ok)
		if ok {
			h.recordServed(ctx, req, input, *cached)
			return models.RecommendationReply{RequestID: req.RequestID, UserID: req.UserID, Response: cached}
		}
	}

	var profile models.PreferenceProfile
	if len(ratings) > 0 {
		profile = recommend.BuildProfile(ratings, items)
	}
	resp, err := h.deps.Pipeline.Process(input, items, profile, limit)
	if err != nil {
		return errorReply(req, err)
	}

	if h.cacheUsable() {
		if err := h.deps.Cache.SetRecommendations(ctx, key, resp, h.deps.CacheTTL); err != nil {
			slog.Warn("[RecommendationConsumer] Failed to cache response",
				slog.String("request_id", req.RequestID),
				slog.String("error", err.Error()))
		}
	}

	h.recordServed(ctx, req, input, resp)
	return models.RecommendationReply{RequestID: req.RequestID, UserID: req.UserID, Response: &resp}
}

// recordServed runs for every answered request, cached or computed: metrics,
// history rows and, for text requests, the mood entry.
func (h *RecommendationHandler) recordServed(ctx context.Context, req models.RecommendationRequest, input models.MoodInput, resp models.RecommendationResponse) {
	source := "text"
	if _, explicit := input.Category(); explicit {
		source = "explicit"
	}
	metrics.IncClassification(resp.Analysis.Category.String(), source)
	metrics.RecommendationsServed.Add(float64(resp.Total))
	if resp.Total == 0 {
		metrics.EmptyResults.Inc()
	}

	if req.UserID == "" {
		return
	}
	h.history.Add(db.NewRecommendationRecords(req.RequestID, req.UserID, resp, h.now())...)
	if h.deps.Moods != nil && source == "text" && h.storeUsable() {
		if err := h.deps.Moods.StoreMoodEntry(ctx, req.UserID, req.MoodText, resp.Analysis); err != nil {
			slog.Warn("[RecommendationConsumer] Failed to store mood entry",
				slog.String("user_id", req.UserID),
				slog.String("error", err.Error()))
		}
	}
}

// FlushHistory writes buffered history rows, retrying the whole batch a few
// times before dropping it.
func (h *RecommendationHandler) FlushHistory(ctx context.Context, writer HistoryWriter) {
	batch := h.history.GetAndClear()
	if len(batch) == 0 || writer == nil {
		return
	}

	var insertErr error
	for i := 0; i < 3; i++ {
		insertErr = writer.BatchInsertRecommendations(ctx, batch)
		if insertErr == nil {
			return
		}
		slog.Error("[RecommendationConsumer] Failed to write history",
			slog.String("error", insertErr.Error()),
			slog.Int("attempt", i+1))
	}
	slog.Error("[RecommendationConsumer] Dropping history batch",
		slog.Int("records", len(batch)))
}

// handleMessage decodes, answers and publishes one message. It reports
// whether the offset may be committed; an uncommitted request is delivered
// again after a restart or rebalance.
func (h *RecommendationHandler) handleMessage(ctx context.Context, value []byte, publisher ReplyPublisher, resultsTopic string) bool {
	var req models.RecommendationRequest
	if err := utils.DeserializeFromJSON(value, &req); err != nil {
		metrics.IncInvalidRequest("undecodable")
		// poison message, nothing to reply to
		return true
	}

	reply := h.Handle(ctx, req)
	if err := publisher.Publish(ctx, resultsTopic, req.RequestID, reply); err != nil {
		slog.Error("[RecommendationConsumer] Failed to publish reply",
			slog.String("request_id", req.RequestID),
			slog.String("error", err.Error()))
		return false
	}
	return true
}

// Consumer returns the loop registered for the requests topic.
func (h *RecommendationHandler) Consumer(publisher ReplyPublisher, writer HistoryWriter, resultsTopic string) kafka_client.ConsumerFunc {
	return func(ctx context.Context, consumer *kafka.Consumer) {
		iterator := kafka_client.NewKafkaMessageIterator(ctx, consumer)
		committer := kafka_client.NewCommitHandler(ctx, consumer)

		slog.Info("[RecommendationConsumer] Listening for requests...")

		ticker := time.NewTicker(utils.HISTORY_FLUSH_TIMEOUT)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Warn("[RecommendationConsumer] Stopping consumer...")
				h.FlushHistory(context.WithoutCancel(ctx), writer)
				return
			case <-ticker.C:
				h.FlushHistory(ctx, writer)
			default:
				msg, err := iterator.Next()
				if errors.Is(err, kafka_client.ErrNoMessage) {
					continue
				}
				if err != nil {
					utils.HandleConsumerError(err)
					continue
				}

				if !h.handleMessage(ctx, msg.Value, publisher, resultsTopic) {
					continue
				}
				if err := committer.Commit(msg); err != nil {
					utils.HandleConsumerError(err)
				}
				if h.history.Size() >= utils.HISTORY_BATCH_SIZE {
					h.FlushHistory(ctx, writer)
				}
			}
		}
	}
}
