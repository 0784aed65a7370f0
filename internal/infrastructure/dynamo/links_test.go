package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sabflip/account-link/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct{ mock.Mock }

func (m *mockAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	if out, _ := args.Get(0).(*dynamodb.GetItemOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	return &dynamodb.PutItemOutput{}, args.Error(0)
}

func (m *mockAPI) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	args := m.Called(ctx, in)
	return &dynamodb.TransactWriteItemsOutput{}, args.Error(0)
}

func newRepo(api *mockAPI) *LinkRepo {
	return NewLinkRepo(api, "pending_verifications", "linked_accounts")
}

func TestPutVerification_WritesWholeItem(t *testing.T) {
	api := &mockAPI{}
	api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		uid, ok := in.Item["user_id"].(*types.AttributeValueMemberS)
		_, hasHash := in.Item["code_hash"]
		return *in.TableName == "pending_verifications" && ok && uid.Value == "u1" && hasHash
	})).Return(nil)

	err := newRepo(api).PutVerification(context.Background(), &domain.VerificationRequest{
		UserID: "u1", RequestID: "r1", CodeHash: "h", ExpiresAt: time.Now().Unix(),
	})
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestGetVerification_NotFound(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := newRepo(api).GetVerification(context.Background(), "u1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestGetVerification_Unmarshals(t *testing.T) {
	item, err := attributevalue.MarshalMap(&domain.VerificationRequest{UserID: "u1", RequestID: "r9", ExternalUsername: "Builderman"})
	require.NoError(t, err)
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return in.ConsistentRead != nil && *in.ConsistentRead
	})).Return(&dynamodb.GetItemOutput{Item: item}, nil)

	v, err := newRepo(api).GetVerification(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "r9", v.RequestID)
	assert.Equal(t, "Builderman", v.ExternalUsername)
}

func TestCompleteVerification_BuildsConditionalTransaction(t *testing.T) {
	api := &mockAPI{}
	var captured *dynamodb.TransactWriteItemsInput
	api.On("TransactWriteItems", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*dynamodb.TransactWriteItemsInput) }).
		Return(nil)

	v := &domain.VerificationRequest{UserID: "u1", RequestID: "r1"}
	err := newRepo(api).CompleteVerification(context.Background(), v, &domain.LinkedAccount{UserID: "u1", ExternalUserID: 156})
	require.NoError(t, err)
	require.NotNil(t, captured)
	require.Len(t, captured.TransactItems, 2)

	upd := captured.TransactItems[0].Update
	require.NotNil(t, upd)
	assert.Equal(t, "SET #f0 = :v0", *upd.UpdateExpression)
	assert.Equal(t, "#rid = :rid AND #c = :f", *upd.ConditionExpression)
	rid := upd.ExpressionAttributeValues[":rid"].(*types.AttributeValueMemberS)
	assert.Equal(t, "r1", rid.Value)

	put := captured.TransactItems[1].Put
	require.NotNil(t, put)
	assert.Equal(t, "linked_accounts", *put.TableName)
	assert.Equal(t, "attribute_not_exists(#uid)", *put.ConditionExpression)
}

func TestCompleteVerification_CancelledMapsToConflict(t *testing.T) {
	api := &mockAPI{}
	api.On("TransactWriteItems", mock.Anything, mock.Anything).Return(&types.TransactionCanceledException{})

	err := newRepo(api).CompleteVerification(context.Background(),
		&domain.VerificationRequest{UserID: "u1", RequestID: "r1"}, &domain.LinkedAccount{UserID: "u1"})
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestGetLinkedAccount_NotFound(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := newRepo(api).GetLinkedAccount(context.Background(), "u1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestGetLinkedAccount_ConsistentRead(t *testing.T) {
	api := &mockAPI{}
	item, err := attributevalue.MarshalMap(&domain.LinkedAccount{UserID: "u1", ExternalUserID: 156})
	require.NoError(t, err)
	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return in.ConsistentRead != nil && *in.ConsistentRead && *in.TableName == "linked_accounts"
	})).Return(&dynamodb.GetItemOutput{Item: item}, nil)

	acct, err := newRepo(api).GetLinkedAccount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(156), acct.ExternalUserID)
	api.AssertExpectations(t)
}
