package config

import (
	"os"
	"strconv"
	"time"
)

const (
	SENTIMENT_BACKEND_LEXICON = "lexicon"
	SENTIMENT_BACKEND_VADER   = "vader"
)

type AppConfig struct {
	Env              string
	TablesPath       string
	SentimentBackend string
	DefaultLimit     int
	CatalogRefresh   time.Duration
	CacheTTL         time.Duration
	MetricsAddr      string
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func GetAppConfig() AppConfig {
	return AppConfig{
		Env:              getEnv("APP_ENV", "dev"),
		TablesPath:       getEnv("MOOD_TABLES_PATH", ""),
		SentimentBackend: getEnv("SENTIMENT_BACKEND", SENTIMENT_BACKEND_LEXICON),
		DefaultLimit:     getEnvInt("RECOMMEND_DEFAULT_LIMIT", 10),
		CatalogRefresh:   getEnvDuration("CATALOG_REFRESH_INTERVAL", 10*time.Minute),
		CacheTTL:         getEnvDuration("RECOMMEND_CACHE_TTL", 15*time.Minute),
		MetricsAddr:      getEnv("METRICS_ADDR", ":9090"),
	}
}
