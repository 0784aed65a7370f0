package dynamo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sabflip/account-link/internal/config"
)

// AdminAPI is the subset of *dynamodb.Client used to provision tables.
type AdminAPI interface {
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	UpdateTimeToLive(ctx context.Context, in *dynamodb.UpdateTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error)
}

const tableActiveTimeout = 2 * time.Minute

// Bootstrap creates the link tables if they don't already exist. Existing
// tables are left untouched.
func Bootstrap(ctx context.Context, client AdminAPI, tables config.DynamoTables) {
	if createTable(ctx, client, userKeyedTable(tables.PendingVerifications)) {
		// Expired requests are already inert; TTL only reclaims storage.
		waitActive(ctx, client, tables.PendingVerifications)
		enableTTL(ctx, client, tables.PendingVerifications, fieldExpiresAt)
	}
	createTable(ctx, client, userKeyedTable(tables.LinkedAccounts))
}

func userKeyedTable(name string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(name),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(fieldUserID), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(fieldUserID), KeyType: types.KeyTypeHash},
		},
	}
}

// createTable reports whether the table was newly created.
func createTable(ctx context.Context, client AdminAPI, input *dynamodb.CreateTableInput) bool {
	_, err := client.CreateTable(ctx, input)
	var inUse *types.ResourceInUseException
	switch {
	case err == nil:
		slog.Info("created table", "table", *input.TableName)
		return true
	case errors.As(err, &inUse):
		return false
	default:
		slog.Warn("could not create table", "table", *input.TableName, "err", err)
		return false
	}
}

func waitActive(ctx context.Context, client AdminAPI, tableName string) {
	w := dynamodb.NewTableExistsWaiter(client)
	if err := w.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(tableName)}, tableActiveTimeout); err != nil {
		slog.Warn("table not active", "table", tableName, "err", err)
	}
}

func enableTTL(ctx context.Context, client AdminAPI, tableName, ttlAttr string) {
	_, err := client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			Enabled:       aws.Bool(true),
			AttributeName: aws.String(ttlAttr),
		},
	})
	if err != nil {
		slog.Warn("could not enable TTL", "table", tableName, "err", err)
	}
}
