package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"

	internalaws "github.com/TrueSightDAO/agroverse-shop/internal/aws"
	"github.com/TrueSightDAO/agroverse-shop/internal/checkout"
	"github.com/TrueSightDAO/agroverse-shop/internal/config"
	"github.com/TrueSightDAO/agroverse-shop/internal/handlers"
	"github.com/TrueSightDAO/agroverse-shop/internal/ledger"
	"github.com/TrueSightDAO/agroverse-shop/internal/status"
	"github.com/TrueSightDAO/agroverse-shop/internal/webhook"
)

func setupRouter(cfg config.Config, clients *internalaws.AWSClients, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// bound every external call made on behalf of a request
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	store := ledger.NewStore(clients.DynamoDB, cfg.OrdersTable)
	metrics := internalaws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace, logger)
	sessions := &session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: cfg.StripeSecretKey}

	handlers.RegisterOrderRoutes(r, handlers.HandlerConfig{
		Gateway:    checkout.NewGateway(sessions, cfg.RedirectBase, logger),
		Ingestor:   webhook.NewIngestor(store, cfg.StripeWebhookSecret, logger, metrics),
		Reader:     status.NewReader(store),
		Admin:      store,
		AdminToken: cfg.AdminToken,
		Logger:     logger,
	})

	return r
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.ValidateAPI(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	clients, err := internalaws.NewAWSClients(context.Background())
	if err != nil {
		logger.Error("failed to init aws clients", "error", err)
		os.Exit(1)
	}

	r := setupRouter(cfg, clients, logger)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		addr := ":8080"
		logger.Info("running local server", "addr", addr)
		if err := r.Run(addr); err != nil {
			logger.Error("local server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
