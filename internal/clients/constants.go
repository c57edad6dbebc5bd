package clients

import (
	"os"
	"time"
)

const (
	MAX_RETRIES = 3
	RETRY_DELAY = 250 * time.Millisecond

	DEFAULT_AWS_REGION   = "us-west-2"
	DEFAULT_AWS_ENDPOINT = "http://localhost:8000"

	VALKEY_RECOMMENDATION_PREFIX = "moodreel:recs:"
)

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}
