// Package notify sends at-most-once shipment notifications. The dispatcher
// runs once per schedule tick: it takes an execution lease, scans the ledger
// snapshot for rows with a tracking number and an unset notified flag, sends
// one email per row, and flips the flag. No queue sits in this path.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	awsint "github.com/TrueSightDAO/agroverse-shop/internal/aws"
	"github.com/TrueSightDAO/agroverse-shop/internal/ledger"
)

// leaseName is the single-flight token shared by every dispatcher instance.
const leaseName = "notification-dispatch"

// ledgerAPI is the slice of the ledger store the dispatcher needs.
type ledgerAPI interface {
	ScanAll(ctx context.Context) ([]ledger.OrderRecord, error)
	MarkNotified(ctx context.Context, transactionID string) error
}

// leaseAPI matches the lease store.
type leaseAPI interface {
	Acquire(ctx context.Context, name, owner string) (bool, error)
	Release(ctx context.Context, name, owner string) error
}

// alertPublisher matches the operator reconciliation queue publisher.
type alertPublisher interface {
	SendReconciliationAlert(ctx context.Context, messageBody string, attributes map[string]string) error
}

// counter matches the CloudWatch metrics recorder.
type counter interface {
	Count(ctx context.Context, name string)
}

// Dispatcher performs one notification pass per Run call.
type Dispatcher struct {
	ledger  ledgerAPI
	leases  leaseAPI
	mailer  Mailer
	alerts  alertPublisher
	metrics counter
	logger  *slog.Logger
}

// NewDispatcher wires a Dispatcher. alerts and metrics may be nil.
func NewDispatcher(store ledgerAPI, leases leaseAPI, mailer Mailer, alerts alertPublisher, metrics counter, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		ledger:  store,
		leases:  leases,
		mailer:  mailer,
		alerts:  alerts,
		metrics: metrics,
		logger:  logger,
	}
}

// RunReport summarizes one dispatcher pass.
type RunReport struct {
	SkippedRun bool // lease was held by another run
	Scanned    int
	Eligible   int
	Sent       int
	Failed     int
}

// Run executes a single dispatch pass.
//
// A send failure leaves the record unnotified so the next run retries it; one
// bad address never blocks the rest of the scan. The known at-most-once gap
// (send succeeded, flag write failed) is logged distinctly and pushed to the
// operator queue for manual reconciliation. ctx is checked between records so
// a shutting-down host stops cleanly: processed rows stay marked, the rest
// wait for the next run.
func (d *Dispatcher) Run(ctx context.Context) (RunReport, error) {
	var report RunReport

	owner := uuid.NewString()
	acquired, err := d.leases.Acquire(ctx, leaseName, owner)
	if err != nil {
		return report, err
	}
	if !acquired {
		d.logger.Info("dispatch lease held, skipping run")
		report.SkippedRun = true
		return report, nil
	}
	// release must happen even when ctx was cancelled mid-scan
	releaseCtx := context.WithoutCancel(ctx)
	defer func() {
		if err := d.leases.Release(releaseCtx, leaseName, owner); err != nil {
			d.logger.Warn("lease release failed", "error", err)
		}
	}()

	records, err := d.ledger.ScanAll(ctx)
	if err != nil {
		return report, err
	}
	report.Scanned = len(records)

	for _, rec := range records {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		if rec.TrackingNumber == "" || rec.Notified {
			continue
		}
		report.Eligible++

		if rec.CustomerEmail == "" {
			d.logger.Warn("order has tracking but no customer email, skipping",
				"transaction_id", rec.TransactionID)
			continue
		}

		subject, body := composeShipmentEmail(rec)
		if err := d.mailer.Send(ctx, rec.CustomerEmail, subject, body); err != nil {
			report.Failed++
			d.count(ctx, awsint.MetricNotificationFailures)
			d.logger.Error("notification send failed, will retry next run",
				"transaction_id", rec.TransactionID,
				"error", err)
			continue
		}
		report.Sent++
		d.count(ctx, awsint.MetricNotificationsSent)

		switch err := d.ledger.MarkNotified(ctx, rec.TransactionID); {
		case err == nil:
		case errors.Is(err, ledger.ErrAlreadyNotified):
			// another actor flipped the flag between scan and send; the
			// customer may receive two emails for this order
			d.logger.Warn("record marked notified concurrently",
				"transaction_id", rec.TransactionID)
		default:
			d.reconcile(ctx, rec, err)
		}

		d.logger.Info("shipment notification sent",
			"transaction_id", rec.TransactionID,
			"tracking_number", rec.TrackingNumber)
	}
	return report, nil
}

// reconcile handles the accepted at-most-once gap: the email went out but the
// notified flag could not be persisted, so the next run would send again.
// Operators reconcile these by hand from the queue.
func (d *Dispatcher) reconcile(ctx context.Context, rec ledger.OrderRecord, cause error) {
	d.count(ctx, awsint.MetricReconciliationAlerts)
	d.logger.Error("NOTIFIED FLAG UNPERSISTED after successful send; manual reconciliation required",
		"transaction_id", rec.TransactionID,
		"tracking_number", rec.TrackingNumber,
		"customer_email", rec.CustomerEmail,
		"error", cause)

	if d.alerts == nil {
		return
	}
	body, _ := json.Marshal(map[string]string{
		"reason":          "notified_flag_unpersisted",
		"transaction_id":  rec.TransactionID,
		"tracking_number": rec.TrackingNumber,
		"error":           cause.Error(),
	})
	attrs := map[string]string{"transaction_id": rec.TransactionID}
	if err := d.alerts.SendReconciliationAlert(ctx, string(body), attrs); err != nil {
		d.logger.Error("reconciliation alert publish failed", "error", err)
	}
}

func (d *Dispatcher) count(ctx context.Context, name string) {
	if d.metrics != nil {
		d.metrics.Count(ctx, name)
	}
}
