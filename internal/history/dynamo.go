package history

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoStore persists health records in a DynamoDB table, one item per
// record keyed by its timestamp. This is the managed-table analog of
// the local JSON file: same three operations, different durability.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
}

// NewDynamoStore builds the AWS client for region and returns a store
// writing to tableName. Credential resolution follows the default AWS
// chain (env, shared config, instance role).
func NewDynamoStore(ctx context.Context, region, tableName string) (*DynamoStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("history: load AWS config: %w", err)
	}
	return &DynamoStore{
		client:    dynamodb.NewFromConfig(cfg),
		tableName: tableName,
	}, nil
}

// Load scans the whole table and returns records sorted ascending by
// timestamp. Rows with unparsable timestamps are skipped.
func (s *DynamoStore) Load(ctx context.Context) ([]Record, error) {
	items, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		rec, ok := itemToRecord(item)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records, nil
}

// Append writes one record as a PutItem. Re-appending the same
// timestamp overwrites the existing row, which keeps the operation
// idempotent.
func (s *DynamoStore) Append(ctx context.Context, rec Record) error {
	healthy := "0"
	if rec.Healthy {
		healthy = "1"
	}
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"timestamp": &types.AttributeValueMemberS{
				Value: rec.Timestamp.UTC().Format(timestampFormat),
			},
			"healthy": &types.AttributeValueMemberN{Value: healthy},
		},
	})
	if err != nil {
		return fmt.Errorf("history: dynamodb put: %w", err)
	}
	return nil
}

// ListRaw scans the table and dumps each row as stored, plus a count.
func (s *DynamoStore) ListRaw(ctx context.Context, w io.Writer) error {
	items, err := s.scan(ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		ts, healthy := "?", "?"
		if v, ok := item["timestamp"].(*types.AttributeValueMemberS); ok {
			ts = v.Value
		}
		if v, ok := item["healthy"].(*types.AttributeValueMemberN); ok {
			healthy = v.Value
		}
		fmt.Fprintf(w, "{timestamp: %s, healthy: %s}\n", ts, healthy)
	}
	fmt.Fprintf(w, "Total entities: %d\n", len(items))
	return nil
}

// scan pages through the whole table.
func (s *DynamoStore) scan(ctx context.Context) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("history: dynamodb scan: %w", err)
		}
		items = append(items, out.Items...)
		if out.LastEvaluatedKey == nil {
			return items, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// itemToRecord converts one table row into a Record.
func itemToRecord(item map[string]types.AttributeValue) (Record, bool) {
	tsAttr, ok := item["timestamp"].(*types.AttributeValueMemberS)
	if !ok {
		return Record{}, false
	}
	ts, err := ParseTimestamp(tsAttr.Value)
	if err != nil {
		return Record{}, false
	}
	rec := Record{Timestamp: ts}
	if h, ok := item["healthy"].(*types.AttributeValueMemberN); ok {
		rec.Healthy = h.Value != "0"
	}
	return rec, true
}
