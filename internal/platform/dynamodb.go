package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TableExists checks the lock table directly against DynamoDB.
func (c *Clients) TableExists(ctx context.Context, table string) (bool, error) {
	_, err := c.Dynamo.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	})
	if err != nil {
		var nf *dbtypes.ResourceNotFoundException
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return true, nil
}

// DeleteTable removes the lock table. Missing tables are treated as success
// so uninstall retries converge.
func (c *Clients) DeleteTable(ctx context.Context, table string) error {
	_, err := c.Dynamo.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(table),
	})
	if err != nil {
		var nf *dbtypes.ResourceNotFoundException
		if errors.As(err, &nf) {
			return nil
		}
		return fmt.Errorf("failed to delete table %s: %w", table, err)
	}
	return nil
}
