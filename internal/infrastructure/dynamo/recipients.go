package dynamo

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-chat-push/internal/domain"
)

// RecipientRepo reads notification profiles from the users table.
type RecipientRepo struct {
	client    API
	tableName string
	pageSize  int32
}

func NewRecipientRepo(client API, tableName string, pageSize int32) *RecipientRepo {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &RecipientRepo{client: client, tableName: tableName, pageSize: pageSize}
}

func (r *RecipientRepo) Get(ctx context.Context, userID string) (*domain.Recipient, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(attrUserID, userID),
	})
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var rcpt domain.Recipient
	if err := attributevalue.UnmarshalMap(out.Item, &rcpt); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &rcpt, nil
}

// ClearToken removes the delivery token. The update is conditional on the
// user existing so it never creates a stub item; a missing user or an
// already-absent token both succeed.
func (r *RecipientRepo) ClearToken(ctx context.Context, userID string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		attrUpdatedAt: time.Now().UTC(),
	}, attrToken)
	if err != nil {
		return err
	}
	ue.Names["#pk"] = attrUserID
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(attrUserID, userID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil
		}
		return fmt.Errorf("clear token for %s: %w", userID, err)
	}
	return nil
}

// ListWithToken scans the users that carry a token, one DynamoDB page per
// yielded chunk. Iteration stops after the first error.
func (r *RecipientRepo) ListWithToken(ctx context.Context) iter.Seq2[[]domain.Recipient, error] {
	return func(yield func([]domain.Recipient, error) bool) {
		input := &dynamodb.ScanInput{
			TableName:                aws.String(r.tableName),
			FilterExpression:         aws.String("attribute_exists(#tok)"),
			ExpressionAttributeNames: map[string]string{"#tok": attrToken},
			Limit:                    aws.Int32(r.pageSize),
		}
		for {
			out, err := r.client.Scan(ctx, input)
			if err != nil {
				yield(nil, fmt.Errorf("scan users: %w", err))
				return
			}
			var page []domain.Recipient
			if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
				yield(nil, fmt.Errorf("unmarshal users: %w", err))
				return
			}
			// filtered pages can be empty while more remain
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
