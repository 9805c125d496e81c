package ledger

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is a small in-memory stand-in for the orders table. It
// understands just the condition expressions the Store issues.
// NOTE: intentionally minimal, not production-grade.
type mockDynamo struct {
	mu    sync.Mutex
	table map[string]map[string]types.AttributeValue

	pageSize int   // when > 0, Scan returns pages of this size
	failNext error // when set, the next call returns this error once

	putCalls    int
	getCalls    int
	updateCalls int
	scanCalls   int
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{table: map[string]map[string]types.AttributeValue{}}
}

func (m *mockDynamo) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	keyAttr := params.Item["transaction_id"]
	if keyAttr == nil {
		return nil, errors.New("missing transaction_id")
	}
	k := keyAttr.(*types.AttributeValueMemberS).Value
	if params.ConditionExpression != nil && strings.Contains(*params.ConditionExpression, "attribute_not_exists(transaction_id)") {
		if _, ok := m.table[k]; ok {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.table[k] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	k := params.Key["transaction_id"].(*types.AttributeValueMemberS).Value
	item, ok := m.table[k]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	k := params.Key["transaction_id"].(*types.AttributeValueMemberS).Value
	item, exists := m.table[k]

	cond := ""
	if params.ConditionExpression != nil {
		cond = *params.ConditionExpression
	}
	if strings.Contains(cond, "attribute_exists(transaction_id)") && !exists {
		return nil, &types.ConditionalCheckFailedException{}
	}
	if strings.Contains(cond, "tracking_number = :empty") {
		if tn, ok := item["tracking_number"].(*types.AttributeValueMemberS); ok && tn.Value != "" {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	if strings.Contains(cond, "notified = :false") {
		if nf, ok := item["notified"].(*types.AttributeValueMemberBOOL); ok && nf.Value {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}

	// naive apply of the update expressions the Store issues
	if v, ok := params.ExpressionAttributeValues[":tn"]; ok {
		item["tracking_number"] = v
	}
	if v, ok := params.ExpressionAttributeValues[":new"]; ok {
		item["status"] = v
	}
	if strings.Contains(cond, "notified = :false") {
		item["notified"] = &types.AttributeValueMemberBOOL{Value: true}
	}
	if v, ok := params.ExpressionAttributeValues[":ua"]; ok {
		item["last_updated_at"] = v
	}
	m.table[k] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (m *mockDynamo) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	return nil, errors.New("not supported by orders mock")
}

func (m *mockDynamo) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scanCalls++
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(m.table))
	for k := range m.table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	start := 0
	if v, ok := params.ExclusiveStartKey["transaction_id"]; ok {
		last := v.(*types.AttributeValueMemberS).Value
		for i, k := range keys {
			if k == last {
				start = i + 1
				break
			}
		}
	}
	end := len(keys)
	if m.pageSize > 0 && start+m.pageSize < end {
		end = start + m.pageSize
	}

	out := &dyn.ScanOutput{}
	for _, k := range keys[start:end] {
		out.Items = append(out.Items, m.table[k])
	}
	if end < len(keys) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"transaction_id": &types.AttributeValueMemberS{Value: keys[end-1]},
		}
	}
	return out, nil
}
