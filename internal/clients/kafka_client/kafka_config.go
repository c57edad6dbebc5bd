package kafka_client

import "os"

type KafkaConfig struct {
	Broker        string
	GroupID       string
	Topic         string
	ResultsTopic  string
	TransactionID string
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func GetKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Broker:        getEnv("KAFKA_BROKER", "localhost:29092"),
		GroupID:       getEnv("KAFKA_CONSUMER_GROUP_ID", "moodreel-consumer-group"),
		Topic:         getEnv("KAFKA_CONSUMER_TOPIC", KAFKA_TOPIC_RECOMMENDATION_REQUESTS),
		ResultsTopic:  getEnv("KAFKA_RESULTS_TOPIC", KAFKA_TOPIC_RECOMMENDATION_RESULTS),
		TransactionID: getEnv("KAFKA_TRANSACTIONAL_ID", "moodreel-producer-1"),
	}
}
