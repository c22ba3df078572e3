package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client the store uses
type DynamoAPI interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoStore keeps the claim database in a DynamoDB table keyed by "id"
type DynamoStore struct {
	client DynamoAPI
	table  string
}

// NewDynamoStore creates a store over an existing table
func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

// Scan pages through the whole table, projecting only what matching needs
func (s *DynamoStore) Scan(ctx context.Context) ([]Record, error) {
	input := &dynamodb.ScanInput{
		TableName:                aws.String(s.table),
		ProjectionExpression:     aws.String("#id, #claim, #embedding"),
		ExpressionAttributeNames: map[string]string{"#id": "id", "#claim": "claim", "#embedding": "embedding"},
	}

	var records []Record
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}

		var batch []Record
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("decode scan page: %w", err)
		}
		records = append(records, batch...)
	}
	return records, nil
}

// Get returns the full record
func (s *DynamoStore) Get(ctx context.Context, id string) (*Record, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}},
	})
	if err != nil {
		return nil, fmt.Errorf("get claim %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	var r Record
	if err := attributevalue.UnmarshalMap(out.Item, &r); err != nil {
		return nil, fmt.Errorf("decode claim %s: %w", id, err)
	}
	return &r, nil
}

// UpdateEmbedding writes the vector onto an existing item. The condition
// keeps a write for a deleted id from recreating a partial item.
func (s *DynamoStore) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	value, err := attributevalue.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(s.table),
		Key:                      map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}},
		UpdateExpression:         aws.String("SET #embedding = :embedding"),
		ConditionExpression:      aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#embedding": "embedding", "#id": "id"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":embedding": value,
		},
	})
	if err != nil {
		return fmt.Errorf("update embedding for %s: %w", id, err)
	}
	return nil
}

// Put inserts or replaces a record
func (s *DynamoStore) Put(ctx context.Context, record Record) error {
	if record.ID == "" {
		return fmt.Errorf("record id is required")
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("encode claim %s: %w", record.ID, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put claim %s: %w", record.ID, err)
	}
	return nil
}
