/*
ledger.go - Append-only record of saved receipts

PURPOSE:
  Remembers every receipt that reached the books, keyed by idempotency
  key. Retrying a partially submitted batch consults the ledger so a
  receipt that was saved (but whose acknowledgement was lost) is not
  posted a second time.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: receipts are never updated or deleted here
  2. IDEMPOTENT: a key is recorded at most once

SEE ALSO:
  - batch.go: Submitter contract
  - store/sqlite/sqlite.go: SQLite LedgerStore
*/
package receipts

import (
	"context"
	"errors"
)

// ErrDuplicateIdempotencyKey is returned when a receipt with the same
// idempotency key was already recorded.
var ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

// LedgerStore persists recorded receipts.
type LedgerStore interface {
	// AppendReceipt records r. Returns ErrDuplicateIdempotencyKey if the key exists.
	AppendReceipt(ctx context.Context, batchID string, r PlannedReceipt) error

	// ReceiptExists checks if the idempotency key was recorded.
	ReceiptExists(ctx context.Context, idempotencyKey string) (bool, error)
}

// LedgerSubmitter wraps a Submitter with the ledger: receipts already in
// the ledger are skipped, new ones are recorded after a successful submit.
// A nil Next makes the ledger itself the books.
type LedgerSubmitter struct {
	BatchID string
	Store   LedgerStore
	Next    Submitter
}

func (l *LedgerSubmitter) SubmitReceipt(ctx context.Context, r PlannedReceipt) error {
	if r.IdempotencyKey != "" {
		exists, err := l.Store.ReceiptExists(ctx, r.IdempotencyKey)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
	}
	if l.Next != nil {
		if err := l.Next.SubmitReceipt(ctx, r); err != nil {
			return err
		}
	}
	err := l.Store.AppendReceipt(ctx, l.BatchID, r)
	if errors.Is(err, ErrDuplicateIdempotencyKey) {
		return nil
	}
	return err
}
