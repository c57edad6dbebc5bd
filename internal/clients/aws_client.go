package clients

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

var (
	awsCfg   aws.Config
	awsErr   error
	awsOnce  sync.Once
	endpoint string
)

// GetAWSConfig loads the shared config once. AWS_ENDPOINT points the SDK at
// a local DynamoDB in development; leave it empty to use the regional one.
func GetAWSConfig(ctx context.Context) (aws.Config, error) {
	awsOnce.Do(func() {
		region := getEnv("AWS_REGION", DEFAULT_AWS_REGION)
		endpoint = getEnv("AWS_ENDPOINT", DEFAULT_AWS_ENDPOINT)

		slog.Info("[AWSClient] Initializing AWS Config...",
			slog.String("region", region),
			slog.String("endpoint", endpoint))

		cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
		if err != nil {
			awsErr = fmt.Errorf("[AWSClient] failed to load AWS config: %w", err)
			return
		}

		awsCfg = cfg
		slog.Info("[AWSClient] AWS Config Initialized")
	})

	return awsCfg, awsErr
}

func GetDynamoDBClient(ctx context.Context) (*dynamodb.Client, error) {
	cfg, err := GetAWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}
