package clients

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/spacesedan/moodreel/internal/models"
	"github.com/valkey-io/valkey-go"
)

var (
	valkeyInstance *ValkeyClient
	valkeyOnce     sync.Once
	valkeyErr      error
)

// ValkeyClient caches recommendation responses. Access to Client goes
// through the mutex because recreateClient swaps it.
type ValkeyClient struct {
	Client valkey.Client
	mu     sync.Mutex
}

func valkeyOptions() valkey.ClientOption {
	opts := valkey.ClientOption{
		InitAddress:      []string{getEnv("VALKEY_INIT_ADDRESS", "localhost:6379")},
		Password:         os.Getenv("VALKEY_PASSWORD"),
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}
	if os.Getenv("VALKEY_TLS") == "true" {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}

func connectValkey() (valkey.Client, error) {
	client, err := valkey.NewClient(valkeyOptions())
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", err)
	}
	return client, nil
}

func InitValkey() (*ValkeyClient, error) {
	valkeyOnce.Do(func() {
		client, err := connectValkey()
		if err != nil {
			valkeyErr = err
			return
		}
		slog.Info("[ValkeyClient] Successfully connected to valkey")
		valkeyInstance = &ValkeyClient{Client: client}
	})
	return valkeyInstance, valkeyErr
}

func CloseValkey() {
	if valkeyInstance != nil {
		valkeyInstance.client().Close()
	}
}

func (vc *ValkeyClient) client() valkey.Client {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	return vc.Client
}

func (vc *ValkeyClient) recreateClient() {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	slog.Warn("[ValkeyClient] Attempting to recreate Valkey client...")
	client, err := connectValkey()
	if err != nil {
		slog.Error("[ValkeyClient] Recreate failed", slog.String("error", err.Error()))
		return
	}
	vc.Client.Close()
	vc.Client = client
	slog.Info("[ValkeyClient] Successfully reconnected to valkey")
}

// CacheKey identifies a response by everything that can change it: the
// tables version, the catalog snapshot, the user and their ratings, the mood
// input and the limit.
func CacheKey(tablesVersion, catalogVersion, ratingsVersion string, req models.RecommendationRequest, limit int) string {
	d := xxhash.New()
	for _, part := range []string{
		tablesVersion,
		catalogVersion,
		req.UserID,
		ratingsVersion,
		strings.ToLower(strings.TrimSpace(req.MoodCategory)),
		req.MoodText,
		strconv.Itoa(limit),
	} {
		_, _ = d.WriteString(part)
		_, _ = d.Write([]byte{0})
	}
	return VALKEY_RECOMMENDATION_PREFIX + strconv.FormatUint(d.Sum64(), 16)
}

// GetRecommendations returns the cached response, if any. Errors count as
// a miss.
func (vc *ValkeyClient) GetRecommendations(ctx context.Context, key string) (*models.RecommendationResponse, bool) {
	res := vc.DoWithRetry(ctx, func(c valkey.Client) valkey.Completed {
		return c.B().Get().Key(key).Build()
	}, MAX_RETRIES)
	b, err := res.AsBytes()
	if err != nil {
		if !valkey.IsValkeyNil(err) {
			slog.Warn("[ValkeyClient] Cache lookup failed",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
		return nil, false
	}

	var resp models.RecommendationResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		slog.Warn("[ValkeyClient] Dropping undecodable cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, false
	}
	return &resp, true
}

func (vc *ValkeyClient) SetRecommendations(ctx context.Context, key string, resp models.RecommendationResponse, ttl time.Duration) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("[ValkeyClient] failed to encode response: %w", err)
	}

	seconds := max(int64(ttl/time.Second), 1)
	res := vc.DoWithRetry(ctx, func(c valkey.Client) valkey.Completed {
		return c.B().Set().Key(key).Value(valkey.BinaryString(b)).ExSeconds(seconds).Build()
	}, MAX_RETRIES)
	if err := res.Error(); err != nil {
		return fmt.Errorf("[ValkeyClient] failed to cache response: %w", err)
	}
	return nil
}

func (vc *ValkeyClient) Healthy(ctx context.Context) bool {
	c := vc.client()
	return c.Do(ctx, c.B().Ping().Build()).Error() == nil
}

// DoWithRetry builds a fresh command per attempt; a completed command must
// not be reused once Do has returned.
func (vc *ValkeyClient) DoWithRetry(ctx context.Context, build func(valkey.Client) valkey.Completed, retries int) valkey.ValkeyResult {
	var result valkey.ValkeyResult
	for i := 0; i < retries; i++ {
		c := vc.client()
		result = c.Do(ctx, build(c))
		err := result.Error()
		if err == nil || valkey.IsValkeyNil(err) {
			break
		}

		slog.Warn("[ValkeyClient] Do failed",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))

		if isConnectionError(err) {
			vc.recreateClient()
		}
		time.Sleep(RETRY_DELAY)
	}

	return result
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "i/o timeout")
}
