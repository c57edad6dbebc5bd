package kafka_client

import "time"

const (
	KAFKA_TOPIC_RECOMMENDATION_REQUESTS = "recommendation-requests" // mood text or category plus user and limit
	KAFKA_TOPIC_RECOMMENDATION_RESULTS  = "recommendation-results"  // ranked results or an error per request
)

const (
	MAX_RETRIES  = 5
	RETRY_DELAY  = 2 * time.Second
	POLL_TIMEOUT = time.Second
)
