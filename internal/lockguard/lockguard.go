// Package lockguard inspects the external Terraform lock table before any
// mutating flow runs. The lock itself is owned by Terraform; this package
// only observes it and, with explicit operator confirmation, clears a stale
// entry. Lock presence is a plain item count against the table, with no
// freshness heuristic.
package lockguard

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client the guard needs.
type DynamoAPI interface {
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Status is the observed state of the lock table.
type Status struct {
	Count   int
	LockID  string
	Info    string
	Created string
}

// Held reports whether any lock is outstanding.
func (s Status) Held() bool {
	return s.Count > 0
}

// Guard checks and clears locks in one DynamoDB table.
type Guard struct {
	client DynamoAPI
	table  string
}

func New(client DynamoAPI, table string) *Guard {
	return &Guard{client: client, table: table}
}

// Check scans the lock table and returns the outstanding lock count plus
// the details of the first lock found, if any.
func (g *Guard) Check(ctx context.Context) (Status, error) {
	out, err := g.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(g.table),
	})
	if err != nil {
		return Status{}, fmt.Errorf("failed to scan lock table %s: %w", g.table, err)
	}

	st := Status{Count: int(out.Count)}
	if len(out.Items) > 0 {
		st.LockID = stringAttr(out.Items[0], "LockID")
		st.Info = stringAttr(out.Items[0], "Info")
		st.Created = stringAttr(out.Items[0], "Created")
	}
	return st, nil
}

// Remove deletes the lock entry keyed by its opaque identifier. Destructive:
// callers must have passed the explicit confirmation step first.
func (g *Guard) Remove(ctx context.Context, lockID string) error {
	if lockID == "" {
		return fmt.Errorf("refusing to remove lock with empty id")
	}
	_, err := g.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(g.table),
		Key: map[string]dbtypes.AttributeValue{
			"LockID": &dbtypes.AttributeValueMemberS{Value: lockID},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to remove lock %s from %s: %w", lockID, g.table, err)
	}
	return nil
}

func stringAttr(item map[string]dbtypes.AttributeValue, key string) string {
	if v, ok := item[key].(*dbtypes.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}
