// Package webhook ingests payment-completion events. The one hard guarantee
// lives here: delivering the same event any number of times yields exactly
// one ledger row, because insertion is keyed by the processor's transaction
// id and a duplicate insert is treated as success.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stripe/stripe-go/v79/webhook"

	awsint "github.com/TrueSightDAO/agroverse-shop/internal/aws"
	"github.com/TrueSightDAO/agroverse-shop/internal/ledger"
)

var (
	// ErrBadSignature means the authenticity proof did not check out. Nothing
	// was written; there is no user-facing surface for this.
	ErrBadSignature = errors.New("webhook signature verification failed")
	// ErrBadPayload means the event body could not be parsed into the schema
	// or is missing the transaction id.
	ErrBadPayload = errors.New("malformed event payload")
)

// completedEventType is the only event type that triggers ingestion; every
// other type is acknowledged and discarded.
const completedEventType = "checkout.session.completed"

// Outcome reports what an accepted delivery did.
type Outcome int

const (
	// OutcomeIngested: a new order row was written.
	OutcomeIngested Outcome = iota + 1
	// OutcomeDuplicate: the row already existed; the replay was a no-op.
	OutcomeDuplicate
	// OutcomeIgnored: event type is not a payment completion.
	OutcomeIgnored
)

// inserter is the slice of the ledger store the ingestor needs.
type inserter interface {
	Insert(ctx context.Context, rec ledger.OrderRecord) error
}

// counter matches the CloudWatch metrics recorder.
type counter interface {
	Count(ctx context.Context, name string)
}

// Ingestor verifies and records completion events.
type Ingestor struct {
	ledger  inserter
	secret  string
	logger  *slog.Logger
	metrics counter
	nowFunc func() time.Time
}

// NewIngestor returns an Ingestor verifying signatures against secret.
// metrics may be nil.
func NewIngestor(store inserter, secret string, logger *slog.Logger, metrics counter) *Ingestor {
	return &Ingestor{
		ledger:  store,
		secret:  secret,
		logger:  logger,
		metrics: metrics,
		nowFunc: time.Now,
	}
}

// Ingest processes one raw delivery. Steps, in order: verify the signature,
// filter on event type, decode the payload, insert. A duplicate insert is a
// success. A store outage is surfaced (wrapping ledger.ErrUnavailable) so
// the HTTP layer can answer retryable and the sender redelivers; replay is
// safe by construction.
func (i *Ingestor) Ingest(ctx context.Context, payload []byte, sigHeader string) (Outcome, error) {
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, i.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	if string(event.Type) != completedEventType {
		i.logger.Debug("ignoring event", "type", event.Type, "event_id", event.ID)
		return OutcomeIgnored, nil
	}

	var sp sessionPayload
	if err := json.Unmarshal(event.Data.Raw, &sp); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if sp.ID == "" {
		return 0, fmt.Errorf("%w: missing transaction id", ErrBadPayload)
	}

	rec := sp.toRecord(i.nowFunc().UTC())
	switch err := i.ledger.Insert(ctx, rec); {
	case errors.Is(err, ledger.ErrAlreadyExists):
		i.logger.Info("duplicate completion event", "transaction_id", sp.ID, "event_id", event.ID)
		i.count(ctx, awsint.MetricDuplicateEvents)
		return OutcomeDuplicate, nil
	case err != nil:
		return 0, fmt.Errorf("insert order %s: %w", sp.ID, err)
	}

	i.logger.Info("order recorded",
		"transaction_id", sp.ID,
		"event_id", event.ID,
		"customer_email", rec.CustomerEmail,
		"items", len(rec.Items))
	i.count(ctx, awsint.MetricOrdersIngested)
	return OutcomeIngested, nil
}

func (i *Ingestor) count(ctx context.Context, name string) {
	if i.metrics != nil {
		i.metrics.Count(ctx, name)
	}
}
