package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/stripe/stripe-go/v79"
)

var (
	// ErrInvalidCart covers every malformed-input rejection; no upstream call
	// is made for these.
	ErrInvalidCart = errors.New("invalid cart")
	// ErrEmptyCart is the specific no-items case.
	ErrEmptyCart = fmt.Errorf("%w: cart has no items", ErrInvalidCart)
)

// UpstreamError carries the payment processor's rejection. Message is for
// operator logs; user-facing surfaces must show a generic message instead.
type UpstreamError struct {
	Message string
	Code    string
	cause   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("payment provider rejected session request (%s): %s", e.Code, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.cause }

// sessionCreator is the slice of the Stripe checkout client the gateway
// needs. *session.Client satisfies it; tests provide fakes.
type sessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// Gateway turns a cart snapshot into an external payment session.
//
// Session creation is NOT idempotent upstream: a failed call must not be
// auto-retried with the same payload, so the gateway makes exactly one
// attempt and surfaces the outcome.
type Gateway struct {
	sessions     sessionCreator
	redirectBase string
	validate     *validatorv10.Validate
	logger       *slog.Logger
}

// NewGateway returns a Gateway creating sessions through the given client.
// redirectBase is the default success/cancel URL base when the request does
// not select one.
func NewGateway(sessions sessionCreator, redirectBase string, logger *slog.Logger) *Gateway {
	return &Gateway{
		sessions:     sessions,
		redirectBase: redirectBase,
		validate:     newValidator(),
		logger:       logger,
	}
}

// CreateSession validates the cart, creates the checkout session, and
// returns the redirect target plus the session reference. The session id
// doubles as the ledger's transaction id once the completion event arrives.
func (g *Gateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if len(req.Cart.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if err := g.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCart, err)
	}

	base := req.RedirectBase
	if base == "" {
		base = g.redirectBase
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(base + "/checkout-success.html?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(base + "/checkout-cancelled.html"),
	}
	params.Context = ctx
	params.AddMetadata("cart_reference", req.Cart.CartReference)
	for _, it := range req.Cart.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(it.CatalogItemRef),
			Quantity: stripe.Int64(int64(it.Quantity)),
		})
	}
	if req.ShippingAddress != nil {
		if hint, err := json.Marshal(req.ShippingAddress); err == nil {
			params.AddMetadata("shipping_hint", string(hint))
		}
	}

	sess, err := g.sessions.New(params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) {
			g.logger.Error("checkout session rejected",
				"cart_reference", req.Cart.CartReference,
				"code", se.Code,
				"detail", se.Msg)
			return nil, &UpstreamError{Message: se.Msg, Code: string(se.Code), cause: err}
		}
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	g.logger.Info("checkout session created",
		"session_reference", sess.ID,
		"cart_reference", req.Cart.CartReference)
	return &Session{
		RedirectURL:      sess.URL,
		SessionReference: sess.ID,
	}, nil
}
