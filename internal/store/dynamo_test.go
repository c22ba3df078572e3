package store

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo is an in-memory table that pages scans one item at a time
type fakeDynamo struct {
	items     map[string]map[string]types.AttributeValue
	order     []string
	scanCalls int
	updateErr error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func keyOf(key map[string]types.AttributeValue) string {
	if s, ok := key["id"].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeDynamo) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scanCalls++
	start := 0
	if in.ExclusiveStartKey != nil {
		last := keyOf(in.ExclusiveStartKey)
		start = sort.SearchStrings(f.order, last) + 1
	}
	out := &dynamodb.ScanOutput{}
	if start < len(f.order) {
		id := f.order[start]
		out.Items = []map[string]types.AttributeValue{f.items[id]}
		if start+1 < len(f.order) {
			out.LastEvaluatedKey = map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}}
		}
	}
	return out, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	id := keyOf(in.Key)
	item, ok := f.items[id]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	item["embedding"] = in.ExpressionAttributeValues[":embedding"]
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	id := keyOf(in.Item)
	if _, exists := f.items[id]; !exists {
		f.order = append(f.order, id)
		sort.Strings(f.order)
	}
	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func TestDynamoStore(t *testing.T) {
	fake := newFakeDynamo()
	exerciseStore(t, NewDynamoStore(fake, "claims"))

	if fake.scanCalls < 2 {
		t.Errorf("expected the paginator to follow LastEvaluatedKey, got %d scan calls", fake.scanCalls)
	}
}

func TestDynamoStore_UpdateFailure(t *testing.T) {
	fake := newFakeDynamo()
	fake.updateErr = errors.New("throttled")
	s := NewDynamoStore(fake, "claims")

	if err := s.UpdateEmbedding(context.Background(), "c1", []float32{1}); err == nil {
		t.Error("expected update error to propagate")
	}
}
