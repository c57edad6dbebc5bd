package db

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spacesedan/moodreel/internal/models"
)

const (
	RECOMMENDATION_HISTORY_TABLE_NAME = "RecommendationHistory"
	DYNAMODB_BATCH_SIZE               = 25
	HISTORY_TTL                       = 30 * 24 * time.Hour
)

// DynamoDBAPI is the subset of *dynamodb.Client the history store calls.
type DynamoDBAPI interface {
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

type HistoryStore struct {
	client  DynamoDBAPI
	table   string
	backoff time.Duration
}

func NewHistoryStore(client DynamoDBAPI) *HistoryStore {
	return &HistoryStore{
		client:  client,
		table:   RECOMMENDATION_HISTORY_TABLE_NAME,
		backoff: 500 * time.Millisecond,
	}
}

// NewRecommendationRecords flattens a served response into history rows.
func NewRecommendationRecords(requestID, userID string, resp models.RecommendationResponse, at time.Time) []models.RecommendationRecord {
	records := make([]models.RecommendationRecord, 0, len(resp.Recommendations))
	for i, rec := range resp.Recommendations {
		records = append(records, models.RecommendationRecord{
			UserID:       userID,
			SortKey:      fmt.Sprintf("%d#%s#%03d", at.Unix(), requestID, i),
			RequestID:    requestID,
			ItemID:       rec.Item.ID,
			Title:        rec.Item.Title,
			Score:        rec.Score,
			MoodCategory: rec.MatchedCategory,
			Confidence:   rec.Confidence,
			Rationale:    rec.Rationale,
			CreatedAt:    at.Unix(),
		})
	}
	return records
}

func RecordToDynamoDBItem(rec models.RecommendationRecord) map[string]types.AttributeValue {
	item := make(map[string]types.AttributeValue)

	item["user_id"] = &types.AttributeValueMemberS{Value: rec.UserID}
	item["sk"] = &types.AttributeValueMemberS{Value: rec.SortKey}
	item["request_id"] = &types.AttributeValueMemberS{Value: rec.RequestID}
	item["item_id"] = &types.AttributeValueMemberS{Value: rec.ItemID}
	item["score"] = &types.AttributeValueMemberN{Value: strconv.FormatFloat(rec.Score, 'f', -1, 64)}
	item["mood_category"] = &types.AttributeValueMemberS{Value: rec.MoodCategory.String()}
	item["confidence"] = &types.AttributeValueMemberN{Value: strconv.FormatFloat(rec.Confidence, 'f', -1, 64)}
	item["created_at"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.CreatedAt, 10)}
	item["ttl"] = &types.AttributeValueMemberN{
		Value: strconv.FormatInt(time.Unix(rec.CreatedAt, 0).Add(HISTORY_TTL).Unix(), 10),
	}

	if rec.Title != "" {
		item["title"] = &types.AttributeValueMemberS{Value: rec.Title}
	}
	if rec.Rationale != "" {
		item["rationale"] = &types.AttributeValueMemberS{Value: rec.Rationale}
	}

	return item
}

func (h *HistoryStore) BatchInsertRecommendations(ctx context.Context, records []models.RecommendationRecord) error {
	for i := 0; i < len(records); i += DYNAMODB_BATCH_SIZE {
		select {
		case <-ctx.Done():
			slog.Warn("[DynamoDB] context canceled")
			return ctx.Err()
		default:
		}

		end := min(i+DYNAMODB_BATCH_SIZE, len(records))
		writeRequests := make([]types.WriteRequest, 0, end-i)
		for _, rec := range records[i:end] {
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: RecordToDynamoDBItem(rec)},
			})
		}

		if err := h.writeBatch(ctx, writeRequests); err != nil {
			return err
		}
	}

	slog.Info("[DynamoDB] Stored recommendation history", slog.Int("count", len(records)))
	return nil
}

func (h *HistoryStore) writeBatch(ctx context.Context, writeRequests []types.WriteRequest) error {
	out, err := h.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{h.table: writeRequests},
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to batch write recommendation history: %w", err)
	}

	retryCount := 0
	backoff := h.backoff
	for len(out.UnprocessedItems) > 0 && retryCount < 3 {
		time.Sleep(backoff)
		backoff *= 2

		slog.Warn("[DynamoDB] Retrying unprocessed history items...",
			slog.Int("attempt", retryCount+1),
			slog.Int("remaining", len(out.UnprocessedItems[h.table])))

		out, err = h.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: out.UnprocessedItems,
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Retry error %w", err)
		}
		retryCount++
	}

	if len(out.UnprocessedItems) > 0 {
		slog.Error("[DynamoDB] Some history items failed after retries",
			slog.Int("remaining", len(out.UnprocessedItems[h.table])))
	}
	return nil
}

// GetUserHistory returns the newest records first.
func (h *HistoryStore) GetUserHistory(ctx context.Context, userID string, limit int32) ([]models.RecommendationRecord, error) {
	out, err := h.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(h.table),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("[DynamoDB] History query failed: %w", err)
	}

	var records []models.RecommendationRecord
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
		slog.Error("[DynamoDB] Unable to unmarshal history page", slog.String("error", err.Error()))
		return nil, err
	}
	return records, nil
}
