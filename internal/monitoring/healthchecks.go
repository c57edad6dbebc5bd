package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const HEALTHCHECK_INTERVAL = 15 * time.Second

// HealthCheck reports whether a dependency is usable right now.
type HealthCheck func(ctx context.Context) bool

// MonitorHealth runs check on every tick and stores the outcome in healthy
// until ctx is done. State changes are logged once.
func MonitorHealth(ctx context.Context, name string, interval time.Duration, check HealthCheck, healthy *atomic.Bool) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, interval/2)
			isHealthy := check(probeCtx)
			cancel()

			was := healthy.Swap(isHealthy)
			switch {
			case was && !isHealthy:
				slog.Warn("[HealthCheck] Dependency is unhealthy", slog.String("dependency", name))
			case !was && isHealthy:
				slog.Info("[HealthCheck] Dependency recovered", slog.String("dependency", name))
			}
		}
	}
}
