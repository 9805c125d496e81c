// Package lease implements the dispatcher's single-flight execution token as
// a DynamoDB row: a conditional put acquires the lease when it is absent or
// expired, so at most one dispatcher run is active at a time even when the
// schedule overlaps itself.
package lease

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/TrueSightDAO/agroverse-shop/internal/aws"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrUnavailable wraps transport failures; callers may retry on the next tick.
var ErrUnavailable = errors.New("lease store unavailable")

// Store encapsulates lease operations against DynamoDB.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttl       time.Duration
	nowFunc   func() time.Time
}

// NewStore returns a configured Store.
// ttl bounds how long a crashed holder can block the next run: an expired
// lease is stealable.
func NewStore(client aws.DynamoDBAPI, tableName string, ttl time.Duration) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
		nowFunc:   time.Now,
	}
}

// Acquire attempts to take the named lease for owner.
// Returns (true, nil) when the lease was taken.
// Returns (false, nil) when another holder has an unexpired lease.
// Returns (false, err) on transport failures.
func (s *Store) Acquire(ctx context.Context, name, owner string) (bool, error) {
	now := s.nowFunc()
	item := map[string]types.AttributeValue{
		"lease_name":  &types.AttributeValueMemberS{Value: name},
		"holder":      &types.AttributeValueMemberS{Value: owner},
		"acquired_at": &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)},
		"expires_at":  &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(s.ttl).Unix(), 10)},
	}
	input := &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(lease_name) OR expires_at < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	}
	if _, err := s.client.PutItem(ctx, input); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return false, nil
		}
		return false, fmt.Errorf("%w: put item: %v", ErrUnavailable, err)
	}
	return true, nil
}

// Release deletes the lease row if owner still holds it. Losing the lease to
// expiry mid-run is not an error: the delete is simply a no-op then.
func (s *Store) Release(ctx context.Context, name, owner string) error {
	input := &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"lease_name": &types.AttributeValueMemberS{Value: name},
		},
		ConditionExpression: awsString("holder = :owner"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	}
	if _, err := s.client.DeleteItem(ctx, input); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil
		}
		return fmt.Errorf("%w: delete item: %v", ErrUnavailable, err)
	}
	return nil
}

func awsString(s string) *string { return &s }
