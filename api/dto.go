/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the billing and receipts domain types from the external API contract:
  - snake_case field names
  - amounts rendered as strings with two decimals
  - request validation via struct tags

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Pricing:
    CascadeRequest, CascadeDTO

  Drafts:
    CreateDraftRequest, UpdateHeaderRequest, DocumentDTO, LineDTO,
    OutcomeDTO, DraftResponse, ValidationDTO, TotalsDTO, PayloadDTO

  Line operations:
    SelectItemRequest, SelectWarehouseRequest, EditFieldRequest

  Receipts:
    SplitRequest, SplitDTO, PlanRequest, PlannedReceiptDTO, BatchDTO,
    MarkStatusRequest

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Request types carry go-playground/validator tags. Handler.decode runs
  them before any domain call.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/catalog.go: Catalog and stock JSON types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/invoice-engine/billing"
	"github.com/warp/invoice-engine/receipts"
)

// =============================================================================
// PRICING
// =============================================================================

// CascadeRequest holds raw pricing inputs. Malformed values count as zero.
type CascadeRequest struct {
	Qty                 string `json:"qty"`
	Rate                string `json:"rate"`
	SchemeFlat          string `json:"scheme_flat"`
	SchemePercent       string `json:"scheme_percent"`
	CashDiscountPercent string `json:"cash_discount_percent"`
}

// CascadeDTO is the price cascade result.
type CascadeDTO struct {
	Gross                 string `json:"gross"`
	SchemeValue           string `json:"scheme_value"`
	NetBeforeCashDiscount string `json:"net_before_cash_discount"`
	CashDiscountValue     string `json:"cash_discount_value"`
	Net                   string `json:"net"`
}

func toCascadeDTO(r billing.CascadeResult) CascadeDTO {
	return CascadeDTO{
		Gross:                 r.Gross.StringFixed(2),
		SchemeValue:           r.SchemeValue.String(),
		NetBeforeCashDiscount: r.NetBeforeCashDiscount.String(),
		CashDiscountValue:     r.CashDiscountValue.String(),
		Net:                   r.Net.StringFixed(2),
	}
}

// =============================================================================
// DRAFTS
// =============================================================================

// CreateDraftRequest opens a new document.
type CreateDraftRequest struct {
	Series   string `json:"series" validate:"required,max=16"`
	Number   int    `json:"number" validate:"gte=0"`
	Lines    int    `json:"lines" validate:"gte=0,lte=500"`
	Party    string `json:"party"`
	Salesman string `json:"salesman"`
}

// UpdateHeaderRequest replaces the document header. Omitted fields are kept.
type UpdateHeaderRequest struct {
	Series   *string `json:"series" validate:"omitempty,min=1,max=16"`
	Number   *int    `json:"number" validate:"omitempty,gte=0"`
	Party    *string `json:"party"`
	Salesman *string `json:"salesman"`
}

// SelectItemRequest selects a catalog item on a line. Empty code clears it.
type SelectItemRequest struct {
	Code string `json:"code"`
}

// SelectWarehouseRequest picks the warehouse of a line. Empty code unsets it.
type SelectWarehouseRequest struct {
	Code string `json:"code"`
}

// EditFieldRequest changes one pricing field of a line.
type EditFieldRequest struct {
	Field string `json:"field" validate:"required,oneof=qty rate schemeFlat schemePercent cashDiscountPercent"`
	Value string `json:"value"`
}

// LineDTO is one document line.
type LineDTO struct {
	Index               int    `json:"index"`
	ItemCode            string `json:"item_code"`
	ItemName            string `json:"item_name,omitempty"`
	Unit                string `json:"unit"`
	OtherUnit           string `json:"other_unit,omitempty"`
	Pack                string `json:"pack"`
	GSTPercent          string `json:"gst_percent"`
	Warehouse           string `json:"warehouse"`
	Qty                 string `json:"qty"`
	Rate                string `json:"rate"`
	SchemeFlat          string `json:"scheme_flat"`
	SchemePercent       string `json:"scheme_percent"`
	CashDiscountPercent string `json:"cash_discount_percent"`
	TotalStock          string `json:"total_stock"`
	StockLimit          string `json:"stock_limit"`
	Gross               string `json:"gross"`
	Net                 string `json:"net"`
}

// DocumentDTO is a draft document.
type DocumentDTO struct {
	ID       string    `json:"id"`
	Series   string    `json:"series"`
	Number   int       `json:"number"`
	Party    string    `json:"party"`
	Salesman string    `json:"salesman"`
	Lines    []LineDTO `json:"lines"`
	Totals   TotalsDTO `json:"totals"`
}

// TotalsDTO sums the priced lines.
type TotalsDTO struct {
	Gross      string `json:"gross"`
	Net        string `json:"net"`
	GST        string `json:"gst"`
	GrandTotal string `json:"grand_total"`
	Lines      int    `json:"lines"`
}

// ConflictDTO describes a rejected duplicate selection.
type ConflictDTO struct {
	ItemCode      string `json:"item_code"`
	LineIndex     int    `json:"line_index"`
	ConflictIndex int    `json:"conflict_index"`
	Message       string `json:"message"`
}

// OverStockDTO is the soft over-stock warning.
type OverStockDTO struct {
	ItemCode  string `json:"item_code"`
	Warehouse string `json:"warehouse"`
	Requested string `json:"requested"`
	Limit     string `json:"limit"`
	Message   string `json:"message"`
}

// OutcomeDTO reports side results of a line operation.
type OutcomeDTO struct {
	Conflict    *ConflictDTO  `json:"conflict,omitempty"`
	OverStock   *OverStockDTO `json:"over_stock,omitempty"`
	UnknownItem bool          `json:"unknown_item,omitempty"`
	Focus       string        `json:"focus,omitempty"`
}

// LastTransactionDTO is the pricing last billed to the party for an item.
type LastTransactionDTO struct {
	Rate                string `json:"rate"`
	Qty                 string `json:"qty"`
	SchemeFlat          string `json:"scheme_flat"`
	SchemePercent       string `json:"scheme_percent"`
	CashDiscountPercent string `json:"cash_discount_percent"`
}

// DraftResponse wraps a draft with the outcome of the operation applied.
type DraftResponse struct {
	Draft      DocumentDTO         `json:"draft"`
	Outcome    *OutcomeDTO         `json:"outcome,omitempty"`
	Suggestion *LastTransactionDTO `json:"suggestion,omitempty"`
}

// ValidationDTO is the result of validating a draft.
type ValidationDTO struct {
	Valid     bool       `json:"valid"`
	Code      string     `json:"code,omitempty"`
	Message   string     `json:"message,omitempty"`
	LineIndex *int       `json:"line_index,omitempty"`
	ItemCode  string     `json:"item_code,omitempty"`
	Requested string     `json:"requested,omitempty"`
	Limit     string     `json:"limit,omitempty"`
	Totals    *TotalsDTO `json:"totals,omitempty"`
}

// PayloadLineDTO is one submitted line.
type PayloadLineDTO struct {
	ItemCode            string `json:"item_code"`
	Unit                string `json:"unit"`
	Warehouse           string `json:"warehouse"`
	Qty                 string `json:"qty"`
	Rate                string `json:"rate"`
	SchemeFlat          string `json:"scheme_flat"`
	SchemePercent       string `json:"scheme_percent"`
	CashDiscountPercent string `json:"cash_discount_percent"`
	GSTPercent          string `json:"gst_percent"`
	Gross               string `json:"gross"`
	Net                 string `json:"net"`
}

// PayloadDTO is the submitted document.
type PayloadDTO struct {
	Series   string           `json:"series"`
	Number   int              `json:"number"`
	Party    string           `json:"party"`
	Salesman string           `json:"salesman,omitempty"`
	Lines    []PayloadLineDTO `json:"lines"`
	Totals   TotalsDTO        `json:"totals"`
}

func toTotalsDTO(t billing.DocumentTotals) TotalsDTO {
	return TotalsDTO{
		Gross:      t.Gross.StringFixed(2),
		Net:        t.Net.StringFixed(2),
		GST:        t.GST.StringFixed(2),
		GrandTotal: t.GrandTotal.StringFixed(2),
		Lines:      t.Lines,
	}
}

func toDocumentDTO(doc billing.Document) DocumentDTO {
	dto := DocumentDTO{
		ID:       doc.ID,
		Series:   doc.Series,
		Number:   doc.Number,
		Party:    doc.Party,
		Salesman: doc.Salesman,
		Lines:    make([]LineDTO, len(doc.Lines)),
		Totals:   toTotalsDTO(billing.Totals(doc)),
	}
	for i, l := range doc.Lines {
		ld := LineDTO{
			Index:               i,
			ItemCode:            l.ItemCode,
			Unit:                l.Unit,
			Pack:                l.Pack,
			GSTPercent:          l.GSTPercent,
			Warehouse:           l.Warehouse,
			Qty:                 l.Qty,
			Rate:                l.Rate,
			SchemeFlat:          l.SchemeFlat,
			SchemePercent:       l.SchemePercent,
			CashDiscountPercent: l.CashDiscountPercent,
			TotalStock:          l.TotalStock.String(),
			StockLimit:          l.StockLimit.String(),
			Gross:               l.Gross.StringFixed(2),
			Net:                 l.Net.StringFixed(2),
		}
		if l.Item != nil {
			ld.ItemName = l.Item.Name
			if l.Item.HasTwoUnits() {
				ld.OtherUnit = l.Item.OtherUnit(l.Unit)
			}
		}
		dto.Lines[i] = ld
	}
	return dto
}

func toOutcomeDTO(o billing.Outcome) *OutcomeDTO {
	dto := &OutcomeDTO{UnknownItem: o.UnknownItem, Focus: string(o.Focus)}
	if c := o.Conflict; c != nil {
		dto.Conflict = &ConflictDTO{
			ItemCode:      c.ItemCode,
			LineIndex:     c.LineIndex,
			ConflictIndex: c.ConflictIndex,
			Message:       c.Error(),
		}
	}
	if w := o.OverStock; w != nil {
		dto.OverStock = &OverStockDTO{
			ItemCode:  w.ItemCode,
			Warehouse: w.Warehouse,
			Requested: w.Requested.String(),
			Limit:     w.Limit.String(),
			Message:   w.Error(),
		}
	}
	return dto
}

func toLastTransactionDTO(last *billing.LastTransaction) *LastTransactionDTO {
	if last == nil {
		return nil
	}
	return &LastTransactionDTO{
		Rate:                last.Rate,
		Qty:                 last.Qty,
		SchemeFlat:          last.SchemeFlat,
		SchemePercent:       last.SchemePercent,
		CashDiscountPercent: last.CashDiscountPercent,
	}
}

func toPayloadDTO(p billing.Payload) PayloadDTO {
	dto := PayloadDTO{
		Series:   p.Series,
		Number:   p.Number,
		Party:    p.Party,
		Salesman: p.Salesman,
		Lines:    make([]PayloadLineDTO, len(p.Lines)),
		Totals:   toTotalsDTO(p.Totals),
	}
	for i, l := range p.Lines {
		dto.Lines[i] = PayloadLineDTO{
			ItemCode:            l.ItemCode,
			Unit:                l.Unit,
			Warehouse:           l.Warehouse,
			Qty:                 l.Qty.String(),
			Rate:                l.Rate.String(),
			SchemeFlat:          l.SchemeFlat.String(),
			SchemePercent:       l.SchemePercent.String(),
			CashDiscountPercent: l.CashDiscountPercent.String(),
			GSTPercent:          l.GSTPercent.String(),
			Gross:               l.Gross.StringFixed(2),
			Net:                 l.Net.StringFixed(2),
		}
	}
	return dto
}

// =============================================================================
// RECEIPTS
// =============================================================================

// SplitRequest asks for the split of a receipt amount.
type SplitRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// SplitDTO is one split amount.
type SplitDTO struct {
	SequenceOffset int    `json:"sequence_offset"`
	Amount         string `json:"amount"`
}

// SplitResponse lists splits in sequence order.
type SplitResponse struct {
	NeedsSplit bool       `json:"needs_split"`
	Splits     []SplitDTO `json:"splits"`
}

// PlanRequest describes the original receipt to split and number.
type PlanRequest struct {
	Series       string          `json:"series" validate:"required,max=16"`
	StartNumber  int             `json:"start_number" validate:"gte=1"`
	Date         string          `json:"date" validate:"required,datetime=2006-01-02"`
	Party        string          `json:"party" validate:"required"`
	Amount       decimal.Decimal `json:"amount"`
	CashDiscount decimal.Decimal `json:"cash_discount"`
	Narration    string          `json:"narration" validate:"max=250"`
}

// PlannedReceiptDTO is one receipt of a plan or batch.
type PlannedReceiptDTO struct {
	SequenceOffset int    `json:"sequence_offset"`
	DocumentNumber int    `json:"document_number"`
	Series         string `json:"series"`
	Date           string `json:"date"`
	Party          string `json:"party"`
	Amount         string `json:"amount"`
	CashDiscount   string `json:"cash_discount"`
	Narration      string `json:"narration"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	Status         string `json:"status,omitempty"`
	Error          string `json:"error,omitempty"`
	SubmittedAt    string `json:"submitted_at,omitempty"`
}

// BatchDTO is a persisted set of split receipts.
type BatchDTO struct {
	ID              string              `json:"id"`
	Series          string              `json:"series"`
	Party           string              `json:"party"`
	OriginalAmount  string              `json:"original_amount"`
	SubmittedAmount string              `json:"submitted_amount"`
	Complete        bool                `json:"complete"`
	CreatedAt       string              `json:"created_at"`
	Receipts        []PlannedReceiptDTO `json:"receipts"`
}

// SubmitBatchResponse reports a submission attempt.
type SubmitBatchResponse struct {
	Batch     BatchDTO `json:"batch"`
	Submitted []int    `json:"submitted,omitempty"`
	Failed    *int     `json:"failed,omitempty"`
	Pending   []int    `json:"pending,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// MarkStatusRequest records the outcome of a receipt submitted elsewhere.
type MarkStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending submitted failed"`
	Error  string `json:"error"`
}

func toPlannedReceiptDTO(r receipts.PlannedReceipt) PlannedReceiptDTO {
	return PlannedReceiptDTO{
		SequenceOffset: r.SequenceOffset,
		DocumentNumber: r.DocumentNumber,
		Series:         r.Series,
		Date:           r.Date.Format("2006-01-02"),
		Party:          r.Party,
		Amount:         r.Amount.StringFixed(2),
		CashDiscount:   r.CashDiscount.StringFixed(2),
		Narration:      r.Narration,
		IdempotencyKey: r.IdempotencyKey,
	}
}

func toBatchDTO(b *receipts.Batch) BatchDTO {
	dto := BatchDTO{
		ID:              b.ID,
		Series:          b.Series,
		Party:           b.Party,
		OriginalAmount:  b.OriginalAmount.StringFixed(2),
		SubmittedAmount: b.SubmittedAmount().StringFixed(2),
		Complete:        b.Complete(),
		CreatedAt:       b.CreatedAt.UTC().Format(time.RFC3339),
		Receipts:        make([]PlannedReceiptDTO, len(b.Entries)),
	}
	for i, e := range b.Entries {
		r := toPlannedReceiptDTO(e.PlannedReceipt)
		r.Status = string(e.Status)
		r.Error = e.Error
		if !e.SubmittedAt.IsZero() {
			r.SubmittedAt = e.SubmittedAt.UTC().Format(time.RFC3339)
		}
		dto.Receipts[i] = r
	}
	return dto
}

// =============================================================================
// COMMON
// =============================================================================

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest selects a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// HealthDTO is the health check body.
type HealthDTO struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
