package aws

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

func TestLoadAWSConfig_DefaultRegion(t *testing.T) {
	t.Setenv("AWS_REGION", "")

	cfg, err := LoadAWSConfig(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Region != "us-east-1" {
		t.Fatalf("expected default region 'us-east-1', got %s", cfg.Region)
	}
}

func TestLoadAWSConfig_RegionFromEnv(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-west-1")

	cfg, err := LoadAWSConfig(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Region != "eu-west-1" {
		t.Fatalf("region mismatch, got %s", cfg.Region)
	}
}

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &sqs.SendMessageOutput{}, nil
}

func TestPublisher_SendReconciliationAlert(t *testing.T) {
	fake := &fakeSQS{}
	p := NewPublisher(fake, "https://sqs.example/queue")

	err := p.SendReconciliationAlert(context.Background(), `{"transaction_id":"tx_1"}`, map[string]string{
		"transaction_id": "tx_1",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(fake.inputs) != 1 {
		t.Fatalf("expected one message, got %d", len(fake.inputs))
	}
	in := fake.inputs[0]
	if *in.QueueUrl != "https://sqs.example/queue" {
		t.Fatalf("queue url mismatch: %s", *in.QueueUrl)
	}
	if *in.MessageBody != `{"transaction_id":"tx_1"}` {
		t.Fatalf("body mismatch: %s", *in.MessageBody)
	}
	attr, ok := in.MessageAttributes["transaction_id"]
	if !ok || *attr.StringValue != "tx_1" {
		t.Fatalf("attributes not mapped: %+v", in.MessageAttributes)
	}
}

func TestPublisher_SendFailure(t *testing.T) {
	p := NewPublisher(&fakeSQS{err: errors.New("throttled")}, "q")
	if err := p.SendReconciliationAlert(context.Background(), "{}", nil); err == nil {
		t.Fatalf("expected error")
	}
}

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMetrics_Count(t *testing.T) {
	fake := &fakeCloudWatch{}
	m := NewMetrics(fake, "AgroverseOrders", discardLogger())

	m.Count(context.Background(), MetricOrdersIngested)
	if len(fake.inputs) != 1 {
		t.Fatalf("expected one datum, got %d", len(fake.inputs))
	}
	in := fake.inputs[0]
	if *in.Namespace != "AgroverseOrders" {
		t.Fatalf("namespace mismatch: %s", *in.Namespace)
	}
	if len(in.MetricData) != 1 || *in.MetricData[0].MetricName != MetricOrdersIngested || *in.MetricData[0].Value != 1 {
		t.Fatalf("datum mismatch: %+v", in.MetricData)
	}
}

func TestMetrics_EmissionFailureIsSwallowed(t *testing.T) {
	m := NewMetrics(&fakeCloudWatch{err: errors.New("throttled")}, "NS", discardLogger())
	// must not panic or propagate
	m.Count(context.Background(), MetricNotificationsSent)
}
