package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/warp/invoice-engine/receipts"
)

// =============================================================================
// SPLITTING AND PLANNING
// =============================================================================

// SplitReceipt splits an amount into receipt-sized parts.
func (h *Handler) SplitReceipt(w http.ResponseWriter, r *http.Request) {
	var req SplitRequest
	if !h.decode(w, r, &req) {
		return
	}
	splits, err := h.Splitter.Split(req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := SplitResponse{NeedsSplit: h.Splitter.NeedsSplit(req.Amount), Splits: make([]SplitDTO, len(splits))}
	for i, s := range splits {
		resp.Splits[i] = SplitDTO{SequenceOffset: s.SequenceOffset, Amount: s.Amount.StringFixed(2)}
	}
	writeJSON(w, http.StatusOK, resp)
}

// PlanReceipts numbers and narrates the splits without persisting them.
func (h *Handler) PlanReceipts(w http.ResponseWriter, r *http.Request) {
	plan, ok := h.plan(w, r)
	if !ok {
		return
	}
	out := make([]PlannedReceiptDTO, len(plan))
	for i, p := range plan {
		out[i] = toPlannedReceiptDTO(p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) plan(w http.ResponseWriter, r *http.Request) ([]receipts.PlannedReceipt, bool) {
	var req PlanRequest
	if !h.decode(w, r, &req) {
		return nil, false
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid date: %s", req.Date), err)
		return nil, false
	}
	if req.CashDiscount.IsNegative() {
		writeError(w, http.StatusBadRequest, "Cash discount cannot be negative", nil)
		return nil, false
	}
	plan, err := h.Splitter.Plan(receipts.PlanInput{
		Series:       req.Series,
		StartNumber:  req.StartNumber,
		Date:         date,
		Party:        req.Party,
		Amount:       req.Amount,
		CashDiscount: req.CashDiscount,
		Narration:    req.Narration,
	})
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return plan, true
}

// =============================================================================
// BATCHES
// =============================================================================

// CreateBatch persists a plan as a batch so partial submissions can be
// tracked and retried.
func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	plan, ok := h.plan(w, r)
	if !ok {
		return
	}
	batch := receipts.NewBatch(uuid.NewString(), plan, h.Now().UTC())
	if err := h.Store.SaveBatch(r.Context(), batch); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save batch", err)
		return
	}
	zerolog.Ctx(r.Context()).Info().
		Str("batch_id", batch.ID).
		Int("receipts", len(batch.Entries)).
		Str("amount", batch.OriginalAmount.StringFixed(2)).
		Msg("receipt batch created")
	writeJSON(w, http.StatusCreated, toBatchDTO(batch))
}

// GetBatch returns a batch with per-receipt status.
func (h *Handler) GetBatch(w http.ResponseWriter, r *http.Request) {
	batch, err := h.Store.LoadBatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBatchDTO(batch))
}

// SubmitBatch submits the outstanding receipts of a batch in order.
func (h *Handler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	batch, err := h.submitBatch(r.Context(), chi.URLParam(r, "id"))

	var partial *receipts.PartialSubmissionError
	switch {
	case errors.As(err, &partial):
		failed := partial.Failed
		writeJSON(w, http.StatusBadGateway, SubmitBatchResponse{
			Batch:     toBatchDTO(batch),
			Submitted: partial.Submitted,
			Failed:    &failed,
			Pending:   partial.Pending,
			Error:     partial.Err.Error(),
		})
	case err != nil:
		writeDomainError(w, err)
	default:
		writeJSON(w, http.StatusOK, SubmitBatchResponse{Batch: toBatchDTO(batch)})
	}
}

// submitBatch loads, submits and saves a batch. The batch is saved even
// when submission stops part way, so the next attempt resumes after the
// receipts already saved.
func (h *Handler) submitBatch(ctx context.Context, id string) (*receipts.Batch, error) {
	h.batchMu.Lock()
	defer h.batchMu.Unlock()

	batch, err := h.Store.LoadBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if batch.Complete() {
		return batch, nil
	}

	sub := &receipts.LedgerSubmitter{BatchID: batch.ID, Store: h.Store, Next: h.Submitter}
	submitErr := batch.Submit(ctx, sub, h.Now)

	// Record progress even if the request was cancelled mid-way.
	if err := h.Store.SaveBatch(context.WithoutCancel(ctx), batch); err != nil {
		return batch, fmt.Errorf("failed to save batch progress: %w", err)
	}
	return batch, submitErr
}

// MarkReceiptStatus records the outcome of a receipt submitted by the
// client itself. Saved receipts are added to the ledger.
func (h *Handler) MarkReceiptStatus(w http.ResponseWriter, r *http.Request) {
	docNo, err := strconv.Atoi(chi.URLParam(r, "docno"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid document number", err)
		return
	}
	var req MarkStatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	status, err := receipts.ParseStatus(req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.batchMu.Lock()
	defer h.batchMu.Unlock()

	ctx := r.Context()
	batch, err := h.Store.LoadBatch(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := batch.Mark(docNo, status, req.Error, h.Now().UTC()); err != nil {
		writeDomainError(w, err)
		return
	}
	if status == receipts.StatusSubmitted {
		for _, e := range batch.Entries {
			if e.DocumentNumber != docNo {
				continue
			}
			if err := h.Store.AppendReceipt(ctx, batch.ID, e.PlannedReceipt); err != nil && !errors.Is(err, receipts.ErrDuplicateIdempotencyKey) {
				writeError(w, http.StatusInternalServerError, "Failed to record receipt", err)
				return
			}
		}
	}
	if err := h.Store.SaveBatch(ctx, batch); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save batch", err)
		return
	}
	writeJSON(w, http.StatusOK, toBatchDTO(batch))
}
