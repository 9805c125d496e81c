package status

import (
	"context"
	"errors"
	"testing"

	"github.com/TrueSightDAO/agroverse-shop/internal/ledger"
)

type fakeFinder struct {
	records map[string]*ledger.OrderRecord
	err     error
	calls   int
}

func (f *fakeFinder) Find(ctx context.Context, txID string) (*ledger.OrderRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	rec, ok := f.records[txID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return rec, nil
}

func TestLookup_ReturnsRecord(t *testing.T) {
	want := &ledger.OrderRecord{TransactionID: "cs_1", Status: ledger.StatusPlaced}
	f := &fakeFinder{records: map[string]*ledger.OrderRecord{"cs_1": want}}
	r := NewReader(f)

	got, err := r.Lookup(context.Background(), "cs_1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != want {
		t.Fatalf("wrong record: %+v", got)
	}

	// pure read: repeated lookups hit the store every time, no caching
	for n := 0; n < 4; n++ {
		if _, err := r.Lookup(context.Background(), "cs_1"); err != nil {
			t.Fatalf("repeat lookup: %v", err)
		}
	}
	if f.calls != 5 {
		t.Fatalf("expected 5 store reads, got %d", f.calls)
	}
}

func TestLookup_NotFound(t *testing.T) {
	r := NewReader(&fakeFinder{})
	if _, err := r.Lookup(context.Background(), "cs_missing"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLookup_EmptyReference(t *testing.T) {
	f := &fakeFinder{}
	r := NewReader(f)
	if _, err := r.Lookup(context.Background(), ""); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if f.calls != 0 {
		t.Fatalf("empty reference must not hit the store")
	}
}

func TestLookup_UnavailableDistinctFromNotFound(t *testing.T) {
	f := &fakeFinder{err: ledger.ErrUnavailable}
	r := NewReader(f)
	_, err := r.Lookup(context.Background(), "cs_1")
	if !errors.Is(err, ledger.ErrUnavailable) || errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("outage must be retryable, not NotFound: %v", err)
	}
}
