package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TrueSightDAO/agroverse-shop/internal/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	// ErrNotFound means no record exists for the transaction id.
	ErrNotFound = errors.New("order not found")
	// ErrAlreadyExists means a record with the transaction id is already in
	// the table. Callers treat this as a successful duplicate replay.
	ErrAlreadyExists = errors.New("order already exists")
	// ErrTrackingSet means the tracking number was already written once.
	ErrTrackingSet = errors.New("tracking number already set")
	// ErrAlreadyNotified means the notified flag was already flipped.
	ErrAlreadyNotified = errors.New("order already notified")
	// ErrUnavailable wraps transport failures; callers may retry.
	ErrUnavailable = errors.New("order store unavailable")
)

// Store encapsulates operations on the orders table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Insert writes a new order row. The put is conditional on the transaction id
// not existing, so a concurrent identical insert cannot produce a second row:
// exactly one caller wins, every other gets ErrAlreadyExists.
func (s *Store) Insert(ctx context.Context, rec OrderRecord) error {
	if rec.TransactionID == "" {
		return fmt.Errorf("insert: empty transaction id")
	}
	now := s.nowFunc().UTC()
	if rec.PlacedAt.IsZero() {
		rec.PlacedAt = now
	}
	if rec.Status == "" {
		rec.Status = StatusPlaced
	}
	rec.LastUpdatedAt = now

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	input := &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(transaction_id)"),
	}
	if _, err := s.client.PutItem(ctx, input); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("%w: put item: %v", ErrUnavailable, err)
	}
	return nil
}

// Find fetches an order by transaction id.
func (s *Store) Find(ctx context.Context, transactionID string) (*OrderRecord, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       recordKey(transactionID),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get item: %v", ErrUnavailable, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var rec OrderRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &rec, nil
}

// SetTracking writes the tracking number once. The update is conditional on
// the field being absent or empty; the store never overwrites or clears a
// tracking number.
func (s *Store) SetTracking(ctx context.Context, transactionID, trackingNumber string) error {
	if trackingNumber == "" {
		return fmt.Errorf("set tracking: empty tracking number")
	}
	now := s.nowFunc().UTC()
	input := &dyn.UpdateItemInput{
		TableName:        &s.tableName,
		Key:              recordKey(transactionID),
		UpdateExpression: awsString("SET tracking_number = :tn, last_updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tn":    &types.AttributeValueMemberS{Value: trackingNumber},
			":ua":    &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			":empty": &types.AttributeValueMemberS{Value: ""},
		},
		ConditionExpression: awsString("attribute_exists(transaction_id) AND (attribute_not_exists(tracking_number) OR tracking_number = :empty)"),
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return s.conditionFailure(ctx, transactionID, ErrTrackingSet)
		}
		return fmt.Errorf("%w: update item: %v", ErrUnavailable, err)
	}
	return nil
}

// UpdateStatus records an externally driven status transition.
func (s *Store) UpdateStatus(ctx context.Context, transactionID, newStatus string) error {
	switch newStatus {
	case StatusPlaced, StatusProcessing, StatusShipped, StatusDelivered:
	default:
		return fmt.Errorf("update status: unknown status %q", newStatus)
	}
	now := s.nowFunc().UTC()
	input := &dyn.UpdateItemInput{
		TableName:                &s.tableName,
		Key:                      recordKey(transactionID),
		UpdateExpression:         awsString("SET #s = :new, last_updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new": &types.AttributeValueMemberS{Value: newStatus},
			":ua":  &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString("attribute_exists(transaction_id)"),
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: update item: %v", ErrUnavailable, err)
	}
	return nil
}

// MarkNotified flips the notified flag false -> true. The flip happens at
// most once per record: the update is conditional on notified being false,
// and nothing in the store ever sets it back.
func (s *Store) MarkNotified(ctx context.Context, transactionID string) error {
	now := s.nowFunc().UTC()
	input := &dyn.UpdateItemInput{
		TableName:        &s.tableName,
		Key:              recordKey(transactionID),
		UpdateExpression: awsString("SET notified = :true, last_updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true":  &types.AttributeValueMemberBOOL{Value: true},
			":false": &types.AttributeValueMemberBOOL{Value: false},
			":ua":    &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString("attribute_exists(transaction_id) AND notified = :false"),
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return s.conditionFailure(ctx, transactionID, ErrAlreadyNotified)
		}
		return fmt.Errorf("%w: update item: %v", ErrUnavailable, err)
	}
	return nil
}

// ScanAll returns a snapshot of every order row, paginating through the table.
// The snapshot is taken at call time; concurrent writes after a page is read
// are not reflected.
func (s *Store) ScanAll(ctx context.Context) ([]OrderRecord, error) {
	var records []OrderRecord
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:         &s.tableName,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrUnavailable, err)
		}
		var page []OrderRecord
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal scan page: %w", err)
		}
		records = append(records, page...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return records, nil
}

// conditionFailure disambiguates a conditional write failure: either the row
// is missing or the guarded transition already happened.
func (s *Store) conditionFailure(ctx context.Context, transactionID string, transitioned error) error {
	if _, err := s.Find(ctx, transactionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return transitioned
}

func recordKey(transactionID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"transaction_id": &types.AttributeValueMemberS{Value: transactionID},
	}
}

func awsString(s string) *string { return &s }
