// Package status resolves a session reference to the current order record
// for client polling.
package status

import (
	"context"
	"fmt"

	"github.com/TrueSightDAO/agroverse-shop/internal/ledger"
)

// finder is the slice of the ledger store the reader needs.
type finder interface {
	Find(ctx context.Context, transactionID string) (*ledger.OrderRecord, error)
}

// Reader serves idempotent status lookups. The session reference is the
// ledger's transaction id by gateway contract, so the lookup is a point read
// with no mapping table and no cache: every call reflects the store's state
// at call time.
type Reader struct {
	ledger finder
}

// NewReader returns a Reader over the given store.
func NewReader(store finder) *Reader {
	return &Reader{ledger: store}
}

// Lookup returns the order for the session reference.
// ledger.ErrNotFound is terminal; ledger.ErrUnavailable is retryable.
func (r *Reader) Lookup(ctx context.Context, sessionReference string) (*ledger.OrderRecord, error) {
	if sessionReference == "" {
		return nil, fmt.Errorf("%w: empty session reference", ledger.ErrNotFound)
	}
	return r.ledger.Find(ctx, sessionReference)
}
