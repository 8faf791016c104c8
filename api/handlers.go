/*
handlers.go - HTTP API handlers for the invoice and receipt engines

PURPOSE:
  Exposes the billing line engine and the receipt splitter via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Pricing:
    POST   /api/pricing/cascade                  Run the price cascade

  Master data:
    PUT    /api/catalog                          Replace the item catalog
    GET    /api/catalog/{code}                   Get one item
    GET    /api/stock                            Current stock snapshot rows
    PUT    /api/stock                            Replace the stock snapshot
    PUT    /api/warehouses                       Replace accessible warehouses

  Drafts (see drafts.go):
    POST   /api/drafts                           Open a draft document
    GET    /api/drafts/{id}                      Get a draft
    DELETE /api/drafts/{id}                      Discard a draft
    PUT    /api/drafts/{id}/header               Party, salesman, series
    POST   /api/drafts/{id}/lines                Append an empty line
    DELETE /api/drafts/{id}/lines/{index}        Remove a line
    POST   /api/drafts/{id}/lines/{index}/item   Select item
    POST   /api/drafts/{id}/lines/{index}/warehouse
    POST   /api/drafts/{id}/lines/{index}/swap-unit
    POST   /api/drafts/{id}/lines/{index}/field  Edit a pricing field
    POST   /api/drafts/{id}/lines/{index}/history Apply last pricing
    POST   /api/drafts/{id}/refresh              Re-derive stock and prices
    POST   /api/drafts/{id}/validate             Validate, return totals
    POST   /api/drafts/{id}/submit               Validate, record history

  Receipts (see receipts.go):
    POST   /api/receipts/split                   Split an amount
    POST   /api/receipts/plan                    Number and narrate splits
    POST   /api/receipts/batches                 Persist a plan as a batch
    GET    /api/receipts/batches/{id}            Get batch status
    POST   /api/receipts/batches/{id}/submit     Submit outstanding receipts
    POST   /api/receipts/batches/{id}/splits/{docno}/status

  Scenarios (see scenarios.go, non-production only):
    GET    /api/scenarios                        List demo scenarios
    GET    /api/scenarios/current                Currently loaded scenario
    POST   /api/scenarios/load                   Reset and load a scenario

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - Catalogs: JSON to catalog/stock conversion
  - Documents: Document validation rules
  - Splitter, Submitter: Receipt splitting and forwarding
  The line engine is rebuilt per request from the stored catalog, stock
  snapshot and warehouse list, so master data updates apply immediately.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input, bad line index, unknown field
  - 404: Draft, item or batch not found
  - 409: Receipt already submitted
  - 422: Document failed validation
  - 502: Receipt batch only partially submitted
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/warp/invoice-engine/billing"
	"github.com/warp/invoice-engine/factory"
	"github.com/warp/invoice-engine/receipts"
	"github.com/warp/invoice-engine/store/sqlite"
)

// maxBodyBytes bounds request bodies; catalog uploads are the largest.
const maxBodyBytes = 8 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Catalogs  *factory.CatalogFactory
	Documents billing.DocumentValidator
	Splitter  receipts.Splitter

	// Submitter forwards receipts to the accounting system. Nil records
	// them in the local ledger only.
	Submitter receipts.Submitter

	Logger zerolog.Logger
	Now    func() time.Time

	validate *validator.Validate

	// Drafts and batches are read-modify-write; one writer at a time.
	draftMu sync.Mutex
	batchMu sync.Mutex

	scenarioMu      sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:    store,
		Catalogs: factory.NewCatalogFactory(),
		Splitter: receipts.NewSplitter(),
		Logger:   zerolog.Nop(),
		Now:      time.Now,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// lineEngine builds a line engine over the stored master data.
func (h *Handler) lineEngine(ctx context.Context) (*billing.LineEngine, error) {
	catalog, err := h.Store.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	stock, err := h.Store.LoadStock(ctx)
	if err != nil {
		return nil, err
	}
	warehouses, err := h.Store.LoadWarehouses(ctx)
	if err != nil {
		return nil, err
	}
	return &billing.LineEngine{Catalog: catalog, Stock: stock, Warehouses: warehouses}, nil
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports whether the database answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthDTO{Status: "degraded", Database: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, HealthDTO{Status: "ok", Database: "ok"})
}

// =============================================================================
// PRICING
// =============================================================================

// PriceCascade evaluates the price cascade for ad-hoc inputs.
func (h *Handler) PriceCascade(w http.ResponseWriter, r *http.Request) {
	var req CascadeRequest
	if !h.decode(w, r, &req) {
		return
	}
	result := billing.PriceCascade(billing.CascadeInput{
		Qty:                 req.Qty,
		Rate:                req.Rate,
		SchemeFlat:          req.SchemeFlat,
		SchemePercent:       req.SchemePercent,
		CashDiscountPercent: req.CashDiscountPercent,
	})
	writeJSON(w, http.StatusOK, toCascadeDTO(result))
}

// =============================================================================
// MASTER DATA
// =============================================================================

// ReplaceCatalog replaces the item catalog with the uploaded JSON array.
func (h *Handler) ReplaceCatalog(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	items, err := h.Catalogs.ParseCatalog(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid catalog", err)
		return
	}
	if err := h.Store.ReplaceCatalog(r.Context(), items); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save catalog", err)
		return
	}
	zerolog.Ctx(r.Context()).Info().Int("items", len(items)).Msg("catalog replaced")
	writeJSON(w, http.StatusOK, map[string]int{"items": len(items)})
}

// GetCatalogItem returns one catalog item.
func (h *Handler) GetCatalogItem(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	catalog, err := h.Store.LoadCatalog(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load catalog", err)
		return
	}
	item, ok := catalog.GetItem(code)
	if !ok {
		writeError(w, http.StatusNotFound, "Item not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, h.Catalogs.CatalogToJSON(*item))
}

// GetStock returns the stored stock snapshot as flat rows.
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.Store.LoadStock(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load stock", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Catalogs.StockToJSON(stock))
}

// ReplaceStock replaces the stock snapshot.
func (h *Handler) ReplaceStock(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	stock, err := h.Catalogs.ParseStock(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid stock snapshot", err)
		return
	}
	if err := h.Store.ReplaceStock(r.Context(), stock); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save stock", err)
		return
	}
	zerolog.Ctx(r.Context()).Info().Int("items", len(stock)).Msg("stock snapshot replaced")
	writeJSON(w, http.StatusOK, map[string]int{"items": len(stock)})
}

// ReplaceWarehouses replaces the list of warehouses the user may pick.
func (h *Handler) ReplaceWarehouses(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	whs, err := h.Catalogs.ParseWarehouses(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid warehouse list", err)
		return
	}
	if err := h.Store.ReplaceWarehouses(r.Context(), whs); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save warehouses", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"warehouses": whs})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine and store errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var verr *billing.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, toValidationDTO(verr))
	case billing.IsNotFound(err),
		errors.Is(err, receipts.ErrBatchNotFound),
		errors.Is(err, receipts.ErrReceiptNotInBatch):
		writeError(w, http.StatusNotFound, "Not found", err)
	case billing.IsClientError(err),
		errors.Is(err, receipts.ErrNonPositiveAmount),
		errors.Is(err, receipts.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	case errors.Is(err, receipts.ErrAlreadySubmitted):
		writeError(w, http.StatusConflict, "Receipt already submitted", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func toValidationDTO(verr *billing.ValidationError) ValidationDTO {
	dto := ValidationDTO{
		Valid:    false,
		Code:     verr.Code(),
		Message:  verr.Error(),
		ItemCode: verr.ItemCode,
	}
	if verr.LineIndex >= 0 {
		idx := verr.LineIndex
		dto.LineIndex = &idx
	}
	if errors.Is(verr, billing.ErrQuantityExceedsStock) {
		dto.Requested = verr.Requested.String()
		dto.Limit = verr.Limit.String()
	}
	return dto
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return nil, false
	}
	return body, true
}

// decode reads a JSON body into dst and runs struct validation. It writes
// the error response itself and reports whether the handler may proceed.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			details := make(map[string]string, len(fieldErrs))
			for _, fe := range fieldErrs {
				details[fe.Field()] = fe.Tag()
			}
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Code: "invalid_request", Details: details})
			return false
		}
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// lineIndex parses the {index} URL parameter.
func lineIndex(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", billing.ErrLineOutOfRange, raw)
	}
	return idx, nil
}
