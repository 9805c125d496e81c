package aws

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metric names emitted by the ledger core.
const (
	MetricOrdersIngested       = "OrdersIngested"
	MetricDuplicateEvents      = "DuplicateEvents"
	MetricNotificationsSent    = "NotificationsSent"
	MetricNotificationFailures = "NotificationFailures"
	MetricReconciliationAlerts = "ReconciliationAlerts"
)

// Metrics publishes operational counters to CloudWatch. Emission is
// best-effort: a metrics outage must never fail an order operation, so
// failures are logged and dropped.
type Metrics struct {
	client    CloudWatchAPI
	namespace string
	logger    *slog.Logger
	nowFunc   func() time.Time
}

// NewMetrics returns a Metrics recorder publishing under the given namespace.
func NewMetrics(client CloudWatchAPI, namespace string, logger *slog.Logger) *Metrics {
	return &Metrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
		nowFunc:   time.Now,
	}
}

// Count emits a count-of-one datum for the named metric.
func (m *Metrics) Count(ctx context.Context, name string) {
	m.CountN(ctx, name, 1)
}

// CountN emits a count datum with an explicit value.
func (m *Metrics) CountN(ctx context.Context, name string, value float64) {
	now := m.nowFunc()
	input := &cloudwatch.PutMetricDataInput{
		Namespace: &m.namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: &name,
				Value:      &value,
				Unit:       cwtypes.StandardUnitCount,
				Timestamp:  &now,
			},
		},
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Warn("metric emission failed", "metric", name, "error", err)
	}
}
