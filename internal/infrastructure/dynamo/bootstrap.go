package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-chat-push/internal/config"
)

type tableCreator interface {
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// Bootstrap creates the users, conversations and messages tables when they
// are missing. Existing tables are left alone.
func Bootstrap(ctx context.Context, client tableCreator, tables config.DynamoTables) {
	createTable(ctx, client, hashTable(tables.Users, attrUserID))
	createTable(ctx, client, hashTable(tables.Conversations, attrConversationID))

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Messages),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrConversationID), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrMessageID), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrConversationID), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(attrMessageID), KeyType: types.KeyTypeRange},
		},
	})
}

func hashTable(name, hashKey string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(name),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(hashKey), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
		},
	}
}

func createTable(ctx context.Context, client tableCreator, input *dynamodb.CreateTableInput) {
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			slog.Warn("could not create table", "table", *input.TableName, "err", err)
		}
		return
	}
	slog.Info("created table", "table", *input.TableName)
}
