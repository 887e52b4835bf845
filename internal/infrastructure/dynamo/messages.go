package dynamo

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-chat-push/internal/domain"
)

// MessageRepo serves the retention sweeper over the conversations and
// messages tables.
type MessageRepo struct {
	client             API
	conversationsTable string
	messagesTable      string
	pageSize           int32
}

func NewMessageRepo(client API, conversationsTable, messagesTable string, pageSize int32) *MessageRepo {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &MessageRepo{
		client:             client,
		conversationsTable: conversationsTable,
		messagesTable:      messagesTable,
		pageSize:           pageSize,
	}
}

func (r *MessageRepo) ListConversations(ctx context.Context) iter.Seq2[[]domain.Conversation, error] {
	return func(yield func([]domain.Conversation, error) bool) {
		input := &dynamodb.ScanInput{
			TableName: aws.String(r.conversationsTable),
			Limit:     aws.Int32(r.pageSize),
		}
		for {
			out, err := r.client.Scan(ctx, input)
			if err != nil {
				yield(nil, fmt.Errorf("scan conversations: %w", err))
				return
			}
			var page []domain.Conversation
			if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
				yield(nil, fmt.Errorf("unmarshal conversations: %w", err))
				return
			}
			if len(page) > 0 && !yield(page, nil) {
				return
			}
			if len(out.LastEvaluatedKey) == 0 {
				return
			}
			input.ExclusiveStartKey = out.LastEvaluatedKey
		}
	}
}

// ListExpired returns the keys of every message in the conversation whose
// timestamp is strictly before cutoff.
func (r *MessageRepo) ListExpired(ctx context.Context, conversationID string, cutoff time.Time) ([]domain.MessageKey, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.messagesTable),
		KeyConditionExpression: aws.String("#pk = :pk"),
		FilterExpression:       aws.String("#ts < :cutoff"),
		ProjectionExpression:   aws.String("#pk, #sk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": attrConversationID,
			"#sk": attrMessageID,
			"#ts": attrTimestamp,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: conversationID},
			":cutoff": &types.AttributeValueMemberN{Value: strconv.FormatInt(cutoff.UnixMilli(), 10)},
		},
		Limit: aws.Int32(r.pageSize),
	}

	var keys []domain.MessageKey
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query messages of %s: %w", conversationID, err)
		}
		var page []domain.Message
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal messages: %w", err)
		}
		for _, m := range page {
			keys = append(keys, domain.MessageKey{ConversationID: conversationID, MessageID: m.MessageID})
		}
		if len(out.LastEvaluatedKey) == 0 {
			return keys, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// DeleteBatch deletes keys in one transaction. Conversations with more
// expired messages than a transaction allows are committed in consecutive
// transactions; a failed chunk stops the batch. The returned count covers
// the chunks committed before any failure.
func (r *MessageRepo) DeleteBatch(ctx context.Context, conversationID string, keys []domain.MessageKey) (int, error) {
	deleted := 0
	for chunk := range slices.Chunk(keys, maxTransactItems) {
		items := make([]types.TransactWriteItem, 0, len(chunk))
		for _, k := range chunk {
			items = append(items, types.TransactWriteItem{
				Delete: &types.Delete{
					TableName: aws.String(r.messagesTable),
					Key:       compositeKey(attrConversationID, conversationID, attrMessageID, k.MessageID),
				},
			})
		}
		if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: items,
		}); err != nil {
			return deleted, fmt.Errorf("delete %d messages of %s: %w", len(chunk), conversationID, err)
		}
		deleted += len(chunk)
	}
	return deleted, nil
}
