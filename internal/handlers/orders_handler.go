package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TrueSightDAO/agroverse-shop/internal/checkout"
	"github.com/TrueSightDAO/agroverse-shop/internal/ledger"
	"github.com/TrueSightDAO/agroverse-shop/internal/webhook"
)

// SessionCreator matches checkout.Gateway.
type SessionCreator interface {
	CreateSession(ctx context.Context, req checkout.SessionRequest) (*checkout.Session, error)
}

// EventIngestor matches webhook.Ingestor.
type EventIngestor interface {
	Ingest(ctx context.Context, payload []byte, sigHeader string) (webhook.Outcome, error)
}

// StatusReader matches status.Reader.
type StatusReader interface {
	Lookup(ctx context.Context, sessionReference string) (*ledger.OrderRecord, error)
}

// TrackingWriter matches the ledger store's administrative writes.
type TrackingWriter interface {
	SetTracking(ctx context.Context, transactionID, trackingNumber string) error
	UpdateStatus(ctx context.Context, transactionID, newStatus string) error
}

// HandlerConfig groups dependencies for the order API routes.
type HandlerConfig struct {
	Gateway    SessionCreator
	Ingestor   EventIngestor
	Reader     StatusReader
	Admin      TrackingWriter
	AdminToken string
	Logger     *slog.Logger
}

// RegisterOrderRoutes registers the ledger's HTTP surface.
func RegisterOrderRoutes(r *gin.Engine, cfg HandlerConfig) {
	r.POST("/api/checkout", createCheckoutSession(cfg))
	r.POST("/api/webhook", ingestEvent(cfg))
	r.GET("/api/order-status", orderStatus(cfg))

	admin := r.Group("/api/admin", requireAdminToken(cfg))
	admin.PATCH("/orders/:transactionId/tracking", setTracking(cfg))
}

func createCheckoutSession(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.SessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
			return
		}

		sess, err := cfg.Gateway.CreateSession(c.Request.Context(), req)
		if err != nil {
			var ue *checkout.UpstreamError
			switch {
			case errors.Is(err, checkout.ErrInvalidCart):
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_cart"})
			case errors.As(err, &ue):
				// processor detail stays in the logs, never in the response
				c.JSON(http.StatusBadGateway, gin.H{"error": "payment_provider_error"})
			default:
				cfg.Logger.Error("checkout session failed", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
			}
			return
		}
		c.JSON(http.StatusOK, sess)
	}
}

func ingestEvent(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable_body"})
			return
		}

		_, err = cfg.Ingestor.Ingest(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"received": true})
		case errors.Is(err, webhook.ErrBadSignature):
			// machine-to-machine surface: log, reject, no detail to the caller
			cfg.Logger.Warn("webhook signature rejected", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_signature"})
		case errors.Is(err, webhook.ErrBadPayload):
			cfg.Logger.Warn("webhook payload rejected", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		case errors.Is(err, ledger.ErrUnavailable):
			// non-2xx makes the sender redeliver; replay is idempotent
			cfg.Logger.Error("ingestion failed, store unavailable", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store_unavailable"})
		default:
			cfg.Logger.Error("ingestion failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		}
	}
}

func orderStatus(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref := c.Query("sessionReference")
		rec, err := cfg.Reader.Lookup(c.Request.Context(), ref)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"status": "success", "order": rec})
		case errors.Is(err, ledger.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, ledger.ErrUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store_unavailable"})
		default:
			cfg.Logger.Error("status lookup failed", "session_reference", ref, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		}
	}
}

type trackingUpdateRequest struct {
	TrackingNumber string `json:"trackingNumber" binding:"required"`
	Status         string `json:"status"`
}

// setTracking is the administrative write the dispatcher later picks up.
func setTracking(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		txID := c.Param("transactionId")
		var req trackingUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
			return
		}

		err := cfg.Admin.SetTracking(c.Request.Context(), txID, req.TrackingNumber)
		switch {
		case err == nil:
		case errors.Is(err, ledger.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		case errors.Is(err, ledger.ErrTrackingSet):
			c.JSON(http.StatusConflict, gin.H{"error": "tracking_already_set"})
			return
		case errors.Is(err, ledger.ErrUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store_unavailable"})
			return
		default:
			cfg.Logger.Error("tracking update failed", "transaction_id", txID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
			return
		}

		if req.Status != "" {
			if err := cfg.Admin.UpdateStatus(c.Request.Context(), txID, req.Status); err != nil {
				cfg.Logger.Error("status update failed", "transaction_id", txID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "status_update_failed"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	}
}

func requireAdminToken(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.AdminToken == "" || c.GetHeader("X-Admin-Token") != cfg.AdminToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
