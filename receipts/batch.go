/*
batch.go - Submission tracking for a set of split receipts

PURPOSE:
  Each split receipt is saved by a separate request. Those requests are
  not atomic as a group, so a batch remembers which receipts were saved
  and which were not. A partial failure is a recoverable state: retrying
  the batch submits only what is still outstanding.

STATUS FLOW:
  pending ──submit ok──▶ submitted
     │
     └──submit error──▶ failed ──retry ok──▶ submitted

SUBMISSION ORDER:
  Receipts are submitted in sequence order. The first failure stops the
  run so document numbers are never saved out of order; later receipts
  stay pending.

IDEMPOTENCY:
  Every receipt carries "<batchID>-<series>-<docNo>" as its idempotency key.
  LedgerSubmitter uses it so a retry never posts the same receipt twice.

SEE ALSO:
  - ledger.go: Append-only record of saved receipts
  - store.go: Batch persistence
*/
package receipts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusPending   Status = "pending"
	StatusSubmitted Status = "submitted"
	StatusFailed    Status = "failed"
)

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusSubmitted, StatusFailed:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

var (
	// ErrBatchNotFound is returned by batch stores for unknown IDs.
	ErrBatchNotFound = errors.New("receipt batch not found")

	// ErrReceiptNotInBatch is returned when a document number is not part of the batch.
	ErrReceiptNotInBatch = errors.New("receipt not in batch")

	// ErrInvalidStatus is returned for unknown status names.
	ErrInvalidStatus = errors.New("invalid receipt status")

	// ErrAlreadySubmitted is returned when moving a saved receipt back.
	ErrAlreadySubmitted = errors.New("receipt already submitted")
)

// =============================================================================
// BATCH
// =============================================================================

// Entry is one planned receipt and what happened to it.
type Entry struct {
	PlannedReceipt
	Status      Status
	Error       string
	SubmittedAt time.Time
}

// Batch is the set of receipts produced from one original payment.
type Batch struct {
	ID             string
	Series         string
	Party          string
	OriginalAmount decimal.Decimal
	CreatedAt      time.Time
	Entries        []Entry
}

// NewBatch wraps a plan, assigning idempotency keys.
func NewBatch(id string, plan []PlannedReceipt, createdAt time.Time) *Batch {
	b := &Batch{ID: id, CreatedAt: createdAt, OriginalAmount: decimal.Zero}
	for _, r := range plan {
		r.IdempotencyKey = fmt.Sprintf("%s-%s-%d", id, r.Series, r.DocumentNumber)
		b.Entries = append(b.Entries, Entry{PlannedReceipt: r, Status: StatusPending})
		b.OriginalAmount = b.OriginalAmount.Add(r.Amount)
		b.Series = r.Series
		b.Party = r.Party
	}
	return b
}

// Outstanding returns receipts not yet submitted, in sequence order.
func (b *Batch) Outstanding() []PlannedReceipt {
	var out []PlannedReceipt
	for _, e := range b.Entries {
		if e.Status != StatusSubmitted {
			out = append(out, e.PlannedReceipt)
		}
	}
	return out
}

// Complete reports whether every receipt was saved.
func (b *Batch) Complete() bool {
	for _, e := range b.Entries {
		if e.Status != StatusSubmitted {
			return false
		}
	}
	return true
}

// SubmittedAmount sums the receipts already saved.
func (b *Batch) SubmittedAmount() decimal.Decimal {
	total := decimal.Zero
	for _, e := range b.Entries {
		if e.Status == StatusSubmitted {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// Mark records an outcome reported by an external submitter.
func (b *Batch) Mark(docNo int, status Status, reason string, at time.Time) error {
	for i := range b.Entries {
		e := &b.Entries[i]
		if e.DocumentNumber != docNo {
			continue
		}
		if e.Status == StatusSubmitted && status != StatusSubmitted {
			return fmt.Errorf("%w: %s/%d", ErrAlreadySubmitted, e.Series, docNo)
		}
		e.Status = status
		e.Error = reason
		if status == StatusSubmitted {
			e.SubmittedAt = at
			e.Error = ""
		}
		return nil
	}
	return fmt.Errorf("%w: %d", ErrReceiptNotInBatch, docNo)
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submitter saves one receipt.
type Submitter interface {
	SubmitReceipt(ctx context.Context, r PlannedReceipt) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, r PlannedReceipt) error

func (f SubmitterFunc) SubmitReceipt(ctx context.Context, r PlannedReceipt) error {
	return f(ctx, r)
}

// PartialSubmissionError lists which receipts of a batch were saved.
type PartialSubmissionError struct {
	BatchID   string
	Submitted []int // document numbers saved, including earlier runs
	Failed    int   // document number that failed
	Pending   []int // document numbers not attempted
	Err       error
}

func (e *PartialSubmissionError) Error() string {
	return fmt.Sprintf("batch %s partially submitted: saved %v, failed %d, pending %v: %v",
		e.BatchID, e.Submitted, e.Failed, e.Pending, e.Err)
}

func (e *PartialSubmissionError) Unwrap() error {
	return e.Err
}

// Submit sends every outstanding receipt in order, recording each outcome
// on the batch. It stops at the first failure and returns a
// *PartialSubmissionError.
func (b *Batch) Submit(ctx context.Context, sub Submitter, now func() time.Time) error {
	log := zerolog.Ctx(ctx).With().Str("batch_id", b.ID).Logger()
	if now == nil {
		now = time.Now
	}

	for i := range b.Entries {
		e := &b.Entries[i]
		if e.Status == StatusSubmitted {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = sub.SubmitReceipt(ctx, e.PlannedReceipt)
		}
		if err != nil {
			e.Status = StatusFailed
			e.Error = err.Error()
			log.Warn().Err(err).Int("doc_no", e.DocumentNumber).Msg("receipt submission failed")
			return b.partial(e.DocumentNumber, err)
		}
		e.Status = StatusSubmitted
		e.Error = ""
		e.SubmittedAt = now()
		log.Debug().Int("doc_no", e.DocumentNumber).Str("amount", e.Amount.StringFixed(2)).Msg("receipt submitted")
	}
	return nil
}

func (b *Batch) partial(failed int, err error) *PartialSubmissionError {
	pe := &PartialSubmissionError{BatchID: b.ID, Failed: failed, Err: err}
	for _, e := range b.Entries {
		switch {
		case e.Status == StatusSubmitted:
			pe.Submitted = append(pe.Submitted, e.DocumentNumber)
		case e.DocumentNumber != failed:
			pe.Pending = append(pe.Pending, e.DocumentNumber)
		}
	}
	return pe
}
