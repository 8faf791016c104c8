package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/warp/invoice-engine/billing"
)

// defaultDraftLines is the number of empty lines a new draft starts with.
const defaultDraftLines = 1

// =============================================================================
// DRAFT LIFECYCLE
// =============================================================================

// CreateDraft opens a new draft document.
func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req CreateDraftRequest
	if !h.decode(w, r, &req) {
		return
	}
	lines := req.Lines
	if lines == 0 {
		lines = defaultDraftLines
	}

	doc := billing.NewDocument(req.Series, lines)
	doc.ID = uuid.NewString()
	doc.Number = req.Number
	doc.Party = req.Party
	doc.Salesman = req.Salesman

	if err := h.Store.SaveDraft(r.Context(), doc); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save draft", err)
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("draft_id", doc.ID).Str("series", doc.Series).Msg("draft created")
	writeJSON(w, http.StatusCreated, DraftResponse{Draft: toDocumentDTO(doc)})
}

// GetDraft returns a draft as stored.
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Store.LoadDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DraftResponse{Draft: toDocumentDTO(doc)})
}

// DeleteDraft discards a draft.
func (h *Handler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	h.draftMu.Lock()
	defer h.draftMu.Unlock()

	id := chi.URLParam(r, "id")
	if _, err := h.Store.LoadDraft(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.Store.DeleteDraft(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete draft", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateHeader changes series, number, party or salesman.
func (h *Handler) UpdateHeader(w http.ResponseWriter, r *http.Request) {
	var req UpdateHeaderRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.mutateDraft(w, r, func(_ context.Context, _ *billing.LineEngine, doc billing.Document) (draftResult, error) {
		if req.Series != nil {
			doc.Series = *req.Series
		}
		if req.Number != nil {
			doc.Number = *req.Number
		}
		if req.Party != nil {
			doc.Party = *req.Party
		}
		if req.Salesman != nil {
			doc.Salesman = *req.Salesman
		}
		return draftResult{doc: doc}, nil
	})
}

// =============================================================================
// LINE OPERATIONS
// =============================================================================

// AddLine appends an empty line.
func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	h.mutateDraftStatus(w, r, http.StatusCreated, func(_ context.Context, eng *billing.LineEngine, doc billing.Document) (draftResult, error) {
		return draftResult{doc: eng.AddLine(doc), outcome: &billing.Outcome{Focus: billing.FocusItem}}, nil
	})
}

// RemoveLine drops a line.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	idx, err := lineIndex(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.mutateDraft(w, r, func(_ context.Context, eng *billing.LineEngine, doc billing.Document) (draftResult, error) {
		out, err := eng.RemoveLine(doc, idx)
		return draftResult{doc: out}, err
	})
}

// SelectItem selects a catalog item on a line. When the party has history
// for the item, the last pricing is returned as a suggestion.
func (h *Handler) SelectItem(w http.ResponseWriter, r *http.Request) {
	idx, err := lineIndex(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req SelectItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.mutateDraft(w, r, func(ctx context.Context, eng *billing.LineEngine, doc billing.Document) (draftResult, error) {
		out, outcome, err := eng.SelectItem(doc, idx, req.Code)
		if err != nil {
			return draftResult{}, err
		}
		res := draftResult{doc: out, outcome: &outcome}
		if outcome.Conflict == nil && !outcome.UnknownItem && req.Code != "" && out.Party != "" {
			last, err := h.Store.LastTransaction(ctx, req.Code, out.Party)
			if err != nil {
				return draftResult{}, err
			}
			res.suggestion = last
		}
		if outcome.Conflict != nil {
			zerolog.Ctx(ctx).Debug().Str("item", req.Code).Int("line", idx).
				Int("conflict_line", outcome.Conflict.ConflictIndex).Msg("duplicate item rejected")
		}
		return res, nil
	})
}

// SelectWarehouse picks the warehouse of a line.
func (h *Handler) SelectWarehouse(w http.ResponseWriter, r *http.Request) {
	idx, err := lineIndex(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req SelectWarehouseRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.mutateDraft(w, r, func(_ context.Context, eng *billing.LineEngine, doc billing.Document) (draftResult, error) {
		out, outcome, err := eng.SelectWarehouse(doc, idx, req.Code)
		return draftResult{doc: out, outcome: &outcome}, err
	})
}

// SwapUnit toggles a two-unit item between its units.
func (h *Handler) SwapUnit(w http.ResponseWriter, r *http.Request) {
	idx, err := lineIndex(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.mutateDraft(w, r, func(_ context.Context, eng *billing.LineEngine, doc billing.Document) (draftResult, error) {
		out, outcome, err := eng.SwapUnit(doc, idx)
		return draftResult{doc: out, outcome: &outcome}, err
	})
}

// EditField changes one pricing field and re-prices the line.
func (h *Handler) EditField(w http.ResponseWriter, r *http.Request) {
	idx, err := lineIndex(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req EditFieldRequest
	if !h.decode(w, r, &req) {
		return
	}
	field, err := billing.ParseField(req.Field)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.mutateDraft(w, r, func(_ context.Context, eng *billing.LineEngine, doc billing.Document) (draftResult, error) {
		out, outcome, err := eng.EditField(doc, idx, field, req.Value)
		return draftResult{doc: out, outcome: &outcome}, err
	})
}

// ApplyHistory pre-fills a line with the pricing last billed to the party.
// Without history the draft is returned unchanged.
func (h *Handler) ApplyHistory(w http.ResponseWriter, r *http.Request) {
	idx, err := lineIndex(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.mutateDraft(w, r, func(ctx context.Context, eng *billing.LineEngine, doc billing.Document) (draftResult, error) {
		if idx < 0 || idx >= len(doc.Lines) {
			return draftResult{}, fmt.Errorf("%w: %d", billing.ErrLineOutOfRange, idx)
		}
		if doc.Party == "" {
			return draftResult{}, errPartyRequired
		}
		itemCode := doc.Lines[idx].ItemCode
		if itemCode == "" {
			return draftResult{}, billing.ErrNoItem
		}
		last, err := h.Store.LastTransaction(ctx, itemCode, doc.Party)
		if err != nil {
			return draftResult{}, err
		}
		out, outcome, err := eng.ApplyLastTransaction(doc, idx, last)
		return draftResult{doc: out, outcome: &outcome, suggestion: last}, err
	})
}

// RefreshDraft re-derives stock limits and prices after master data changed.
func (h *Handler) RefreshDraft(w http.ResponseWriter, r *http.Request) {
	h.mutateDraft(w, r, func(_ context.Context, eng *billing.LineEngine, doc billing.Document) (draftResult, error) {
		return draftResult{doc: eng.Refresh(doc)}, nil
	})
}

// =============================================================================
// VALIDATION AND SUBMISSION
// =============================================================================

// ValidateDraft refreshes the draft against current stock and validates it.
func (h *Handler) ValidateDraft(w http.ResponseWriter, r *http.Request) {
	h.draftMu.Lock()
	defer h.draftMu.Unlock()

	ctx := r.Context()
	doc, ok := h.refreshedDraft(w, r)
	if !ok {
		return
	}
	if err := h.Store.SaveDraft(ctx, doc); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save draft", err)
		return
	}
	if err := h.Documents.Validate(doc); err != nil {
		writeDomainError(w, err)
		return
	}
	totals := toTotalsDTO(billing.Totals(doc))
	writeJSON(w, http.StatusOK, ValidationDTO{Valid: true, Totals: &totals})
}

// SubmitDraft validates the draft, then records each line's pricing as the
// party's history and removes the draft atomically, and returns the
// submission payload.
func (h *Handler) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	h.draftMu.Lock()
	defer h.draftMu.Unlock()

	ctx := r.Context()
	doc, ok := h.refreshedDraft(w, r)
	if !ok {
		return
	}
	payload, err := billing.BuildPayload(h.Documents, doc)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := h.Store.CompleteSubmission(ctx, doc.ID, doc.Party, doc.HistoryEntries()); err != nil {
		if billing.IsNotFound(err) {
			writeDomainError(w, err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to complete submission", err)
		return
	}

	zerolog.Ctx(ctx).Info().
		Str("draft_id", doc.ID).
		Str("party", doc.Party).
		Int("lines", len(payload.Lines)).
		Str("grand_total", payload.Totals.GrandTotal.StringFixed(2)).
		Msg("draft submitted")
	writeJSON(w, http.StatusCreated, toPayloadDTO(payload))
}

func (h *Handler) refreshedDraft(w http.ResponseWriter, r *http.Request) (billing.Document, bool) {
	ctx := r.Context()
	doc, err := h.Store.LoadDraft(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return billing.Document{}, false
	}
	eng, err := h.lineEngine(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load master data", err)
		return billing.Document{}, false
	}
	return eng.Refresh(doc), true
}

// =============================================================================
// MUTATION PLUMBING
// =============================================================================

var errPartyRequired = errors.New("select a party before applying history")

type draftResult struct {
	doc        billing.Document
	outcome    *billing.Outcome
	suggestion *billing.LastTransaction
}

type draftOp func(ctx context.Context, eng *billing.LineEngine, doc billing.Document) (draftResult, error)

func (h *Handler) mutateDraft(w http.ResponseWriter, r *http.Request, op draftOp) {
	h.mutateDraftStatus(w, r, http.StatusOK, op)
}

// mutateDraftStatus loads the draft, applies op and saves the result. A
// failed op leaves the stored draft untouched.
func (h *Handler) mutateDraftStatus(w http.ResponseWriter, r *http.Request, status int, op draftOp) {
	h.draftMu.Lock()
	defer h.draftMu.Unlock()

	ctx := r.Context()
	doc, err := h.Store.LoadDraft(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	eng, err := h.lineEngine(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load master data", err)
		return
	}

	res, err := op(ctx, eng, doc)
	if errors.Is(err, errPartyRequired) {
		writeError(w, http.StatusBadRequest, "Party required", err)
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := h.Store.SaveDraft(ctx, res.doc); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save draft", err)
		return
	}

	resp := DraftResponse{Draft: toDocumentDTO(res.doc), Suggestion: toLastTransactionDTO(res.suggestion)}
	if res.outcome != nil {
		resp.Outcome = toOutcomeDTO(*res.outcome)
	}
	writeJSON(w, status, resp)
}
