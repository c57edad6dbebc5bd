package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Classifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moodreel_classifications_total",
		Help: "Resolved mood categories by source (text or explicit)",
	}, []string{"category", "source"})
	RecommendationsServed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "moodreel_recommendations_served_total",
		Help: "Total recommendation results returned",
	})
	EmptyResults = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "moodreel_empty_results_total",
		Help: "Requests that matched no catalog item",
	})
	InvalidRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moodreel_invalid_requests_total",
		Help: "Requests rejected for violating the caller contract",
	}, []string{"reason"})
	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moodreel_cache_lookups_total",
		Help: "Recommendation cache lookups by outcome",
	}, []string{"outcome"})
	RequestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "moodreel_request_duration_seconds",
		Help:    "Time to serve one recommendation request",
		Buckets: prometheus.DefBuckets,
	})
	CatalogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "moodreel_catalog_items",
		Help: "Items in the current catalog snapshot",
	})
)

func init() {
	prometheus.MustRegister(Classifications, RecommendationsServed, EmptyResults,
		InvalidRequests, CacheLookups, RequestDuration, CatalogSize)
}

// StartServer exposes /metrics and /health on addr. An empty addr disables it.
func StartServer(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("[Metrics] Server stopped",
				slog.String("addr", addr),
				slog.String("error", err.Error()))
		}
	}()
	slog.Info("[Metrics] Serving metrics", slog.String("addr", addr))
}

func ObserveRequestDuration(start time.Time) {
	RequestDuration.Observe(time.Since(start).Seconds())
}

func IncClassification(category, source string) {
	Classifications.WithLabelValues(category, source).Inc()
}

func IncInvalidRequest(reason string) { InvalidRequests.WithLabelValues(reason).Inc() }

func IncCacheLookup(hit bool) {
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	CacheLookups.WithLabelValues("miss").Inc()
}
