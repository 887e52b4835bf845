package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-chat-push/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func userItem(id, token string) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		attrUserID: &types.AttributeValueMemberS{Value: id},
		"email":    &types.AttributeValueMemberS{Value: id + "@x.com"},
		"notification_settings": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"enabled": &types.AttributeValueMemberBOOL{Value: true},
			"sound":   &types.AttributeValueMemberBOOL{Value: false},
		}},
	}
	if token != "" {
		item[attrToken] = &types.AttributeValueMemberS{Value: token}
	}
	return item
}

func TestRecipientRepo_Get(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return *in.TableName == "users" && startKey(in.Key) == "U1"
	})).Return(&dynamodb.GetItemOutput{Item: userItem("U1", "tok1")}, nil)

	r, err := NewRecipientRepo(api, "users", 0).Get(context.Background(), "U1")

	require.NoError(t, err)
	assert.Equal(t, "U1", r.UserID)
	assert.Equal(t, "tok1", r.DeliveryToken())
	assert.True(t, r.NotificationsEnabled())
	assert.False(t, r.SoundEnabled())
}

func TestRecipientRepo_Get_MissingSettingsUseDefaults(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		attrUserID: &types.AttributeValueMemberS{Value: "U2"},
	}}, nil)

	r, err := NewRecipientRepo(api, "users", 0).Get(context.Background(), "U2")

	require.NoError(t, err)
	assert.False(t, r.HasToken())
	assert.True(t, r.NotificationsEnabled())
	assert.True(t, r.SoundEnabled())
}

func TestRecipientRepo_Get_NotFound(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := NewRecipientRepo(api, "users", 0).Get(context.Background(), "ghost")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecipientRepo_ClearToken_RemovesAttribute(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		return *in.UpdateExpression == "SET #f0 = :v0 REMOVE #r0" &&
			in.ExpressionAttributeNames["#r0"] == attrToken &&
			*in.ConditionExpression == "attribute_exists(#pk)" &&
			startKey(in.Key) == "U1"
	})).Return(&dynamodb.UpdateItemOutput{}, nil).Once()

	err := NewRecipientRepo(api, "users", 0).ClearToken(context.Background(), "U1")

	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestRecipientRepo_ClearToken_MissingUserIsNoop(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{Message: strPtr("gone")})

	err := NewRecipientRepo(api, "users", 0).ClearToken(context.Background(), "ghost")

	assert.NoError(t, err)
}

func TestRecipientRepo_ClearToken_Error(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	err := NewRecipientRepo(api, "users", 0).ClearToken(context.Background(), "U1")

	assert.ErrorContains(t, err, "throttled")
}

func TestRecipientRepo_ListWithToken_Paginates(t *testing.T) {
	api := &mockAPI{}
	api.On("Scan", mock.Anything, "").Return(&dynamodb.ScanOutput{
		Items:            []map[string]types.AttributeValue{userItem("U1", "t1"), userItem("U2", "t2")},
		LastEvaluatedKey: strKey(attrUserID, "U2"),
	}, nil).Once()
	// a fully filtered page is skipped, not yielded
	api.On("Scan", mock.Anything, "U2").Return(&dynamodb.ScanOutput{
		LastEvaluatedKey: strKey(attrUserID, "U5"),
	}, nil).Once()
	api.On("Scan", mock.Anything, "U5").Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{userItem("U6", "t6")},
	}, nil).Once()

	var pages [][]domain.Recipient
	for page, err := range NewRecipientRepo(api, "users", 2).ListWithToken(context.Background()) {
		require.NoError(t, err)
		pages = append(pages, page)
	}

	require.Len(t, pages, 2)
	assert.Len(t, pages[0], 2)
	assert.Equal(t, "U6", pages[1][0].UserID)
	api.AssertExpectations(t)
}

func TestRecipientRepo_ListWithToken_StopsOnError(t *testing.T) {
	api := &mockAPI{}
	api.On("Scan", mock.Anything, "").Return(&dynamodb.ScanOutput{
		Items:            []map[string]types.AttributeValue{userItem("U1", "t1")},
		LastEvaluatedKey: strKey(attrUserID, "U1"),
	}, nil).Once()
	api.On("Scan", mock.Anything, "U1").Return(nil, errors.New("scan broke")).Once()

	var errs []error
	n := 0
	for page, err := range NewRecipientRepo(api, "users", 1).ListWithToken(context.Background()) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		n += len(page)
	}

	assert.Equal(t, 1, n)
	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "scan broke")
}

func TestRecipientRepo_ListWithToken_EarlyBreak(t *testing.T) {
	api := &mockAPI{}
	api.On("Scan", mock.Anything, "").Return(&dynamodb.ScanOutput{
		Items:            []map[string]types.AttributeValue{userItem("U1", "t1")},
		LastEvaluatedKey: strKey(attrUserID, "U1"),
	}, nil).Once()

	for range NewRecipientRepo(api, "users", 1).ListWithToken(context.Background()) {
		break
	}

	api.AssertNumberOfCalls(t, "Scan", 1)
}

func strPtr(s string) *string { return &s }
