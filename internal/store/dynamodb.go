package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/newsroomlabs/usage-insight/internal/config"
)

// DynamoStore implements UsageStore against DynamoDB tables.
type DynamoStore struct {
	client *dynamodb.Client
}

// NewDynamoStore builds a store from the runtime AWS configuration. The
// endpoint override supports DynamoDB Local in development.
func NewDynamoStore(ctx context.Context, cfg config.AWSConfig) (*DynamoStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &DynamoStore{client: client}, nil
}

// NewDynamoStoreFromClient wraps an existing client.
func NewDynamoStoreFromClient(client *dynamodb.Client) *DynamoStore {
	return &DynamoStore{client: client}
}

// FetchUsageRecords scans the table with the given filter, following
// pagination until the scan is exhausted.
func (s *DynamoStore) FetchUsageRecords(ctx context.Context, table string, filter Filter) ([]Record, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(table),
	}
	applyFilter(input, filter)

	var records []Record
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		var batch []Record
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal %s items: %w", table, err)
		}
		records = append(records, batch...)
	}
	return records, nil
}

// SearchUserByEmail scans a user directory table for a matching email.
func (s *DynamoStore) SearchUserByEmail(ctx context.Context, table string, email string) (Record, error) {
	emailAttr, err := attributevalue.Marshal(email)
	if err != nil {
		return nil, fmt.Errorf("marshal email: %w", err)
	}
	input := &dynamodb.ScanInput{
		TableName:        aws.String(table),
		FilterExpression: aws.String("email = :email"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": emailAttr,
		},
	}
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		if len(page.Items) == 0 {
			continue
		}
		var rec Record
		if err := attributevalue.UnmarshalMap(page.Items[0], &rec); err != nil {
			return nil, fmt.Errorf("unmarshal %s item: %w", table, err)
		}
		return rec, nil
	}
	return nil, nil
}

func applyFilter(input *dynamodb.ScanInput, filter Filter) {
	values := map[string]types.AttributeValue{}
	switch {
	case filter.UserID != "" && filter.Contains != "":
		input.FilterExpression = aws.String("userId = :userId AND contains(#sk, :yearMonth)")
		input.ExpressionAttributeNames = map[string]string{"#sk": filter.SortKeyField}
		values[":userId"] = &types.AttributeValueMemberS{Value: filter.UserID}
		values[":yearMonth"] = &types.AttributeValueMemberS{Value: filter.Contains}
	case filter.UserID != "":
		input.FilterExpression = aws.String("userId = :userId")
		values[":userId"] = &types.AttributeValueMemberS{Value: filter.UserID}
	case filter.Contains != "":
		input.FilterExpression = aws.String("contains(#sk, :yearMonth)")
		input.ExpressionAttributeNames = map[string]string{"#sk": filter.SortKeyField}
		values[":yearMonth"] = &types.AttributeValueMemberS{Value: filter.Contains}
	default:
		return
	}
	input.ExpressionAttributeValues = values
}
