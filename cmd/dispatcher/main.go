package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	internalaws "github.com/TrueSightDAO/agroverse-shop/internal/aws"
	"github.com/TrueSightDAO/agroverse-shop/internal/config"
	"github.com/TrueSightDAO/agroverse-shop/internal/lease"
	"github.com/TrueSightDAO/agroverse-shop/internal/ledger"
	"github.com/TrueSightDAO/agroverse-shop/internal/notify"
)

// The dispatcher runs as a scheduled Lambda: one EventBridge tick, one
// dispatch pass. The execution lease keeps overlapping ticks single-flight.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.ValidateDispatcher(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	clients, err := internalaws.NewAWSClients(context.Background())
	if err != nil {
		logger.Error("failed to init aws clients", "error", err)
		os.Exit(1)
	}

	store := ledger.NewStore(clients.DynamoDB, cfg.OrdersTable)
	leases := lease.NewStore(clients.DynamoDB, cfg.LeaseTable, cfg.LeaseTTL)
	mailer := notify.NewSESMailer(clients.SES, cfg.SenderEmail)
	metrics := internalaws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace, logger)

	var dispatcher *notify.Dispatcher
	if cfg.ReconciliationQueueURL != "" {
		alerts := internalaws.NewPublisher(clients.SQS, cfg.ReconciliationQueueURL)
		dispatcher = notify.NewDispatcher(store, leases, mailer, alerts, metrics, logger)
	} else {
		logger.Warn("RECONCILIATION_QUEUE_URL not set; mark failures will only be logged")
		dispatcher = notify.NewDispatcher(store, leases, mailer, nil, metrics, logger)
	}

	handler := func(ctx context.Context, ev events.CloudWatchEvent) error {
		report, err := dispatcher.Run(ctx)
		if err != nil {
			logger.Error("dispatch run failed", "error", err, "report", report)
			return err
		}
		logger.Info("dispatch run complete",
			"skipped_run", report.SkippedRun,
			"scanned", report.Scanned,
			"eligible", report.Eligible,
			"sent", report.Sent,
			"failed", report.Failed)
		return nil
	}

	// If RUN_LOCAL=true, perform a single pass and exit.
	if os.Getenv("RUN_LOCAL") == "true" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := handler(ctx, events.CloudWatchEvent{}); err != nil {
			os.Exit(1)
		}
		return
	}

	lambda.Start(handler)
}
