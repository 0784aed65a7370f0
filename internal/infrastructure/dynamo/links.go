package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sabflip/account-link/internal/domain"
)

// API is the subset of *dynamodb.Client used by LinkRepo.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// LinkRepo stores pending verifications and linked accounts.
// pending_verifications PK: user_id (one slot per user, PutItem overwrites).
// linked_accounts PK: user_id.
type LinkRepo struct {
	client             API
	verificationsTable string
	accountsTable      string
}

func NewLinkRepo(client API, verificationsTable, accountsTable string) *LinkRepo {
	return &LinkRepo{client: client, verificationsTable: verificationsTable, accountsTable: accountsTable}
}

func (r *LinkRepo) PutVerification(ctx context.Context, v *domain.VerificationRequest) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.verificationsTable),
		Item:      item,
	})
	return err
}

func (r *LinkRepo) GetVerification(ctx context.Context, userID string) (*domain.VerificationRequest, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.verificationsTable),
		Key:            strKey(fieldUserID, userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	var v domain.VerificationRequest
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// CompleteVerification consumes v and writes acct in one transaction. The
// transaction is cancelled when the stored request is no longer v (superseded
// or already consumed) or the user is already linked.
func (r *LinkRepo) CompleteVerification(ctx context.Context, v *domain.VerificationRequest, acct *domain.LinkedAccount) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldConsumed: true})
	if err != nil {
		return err
	}
	ue.Names["#rid"] = fieldRequestID
	ue.Names["#c"] = fieldConsumed
	ue.Values[":rid"] = &types.AttributeValueMemberS{Value: v.RequestID}
	ue.Values[":f"] = &types.AttributeValueMemberBOOL{Value: false}

	item, err := attributevalue.MarshalMap(acct)
	if err != nil {
		return fmt.Errorf("marshal linked account: %w", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Update: &types.Update{
				TableName:                 aws.String(r.verificationsTable),
				Key:                       strKey(fieldUserID, v.UserID),
				UpdateExpression:          aws.String(ue.Expr),
				ConditionExpression:       aws.String("#rid = :rid AND #c = :f"),
				ExpressionAttributeNames:  ue.Names,
				ExpressionAttributeValues: ue.Values,
			}},
			{Put: &types.Put{
				TableName:                aws.String(r.accountsTable),
				Item:                     item,
				ConditionExpression:      aws.String("attribute_not_exists(#uid)"),
				ExpressionAttributeNames: map[string]string{"#uid": fieldUserID},
			}},
		},
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("verification superseded or account already linked: %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *LinkRepo) GetLinkedAccount(ctx context.Context, userID string) (*domain.LinkedAccount, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.accountsTable),
		Key:            strKey(fieldUserID, userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("linked account not found: %w", domain.ErrNotFound)
	}
	var a domain.LinkedAccount
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
