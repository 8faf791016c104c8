/*
Package billing provides the invoice line-pricing and stock-allocation engine.

PURPOSE:
  This package contains the calculation and allocation rules behind an
  invoice (or purchase/sales) document: pricing a line, converting its
  unit, resolving warehouse stock, keeping catalog items unique across
  lines, and deciding whether the whole document may be submitted.

KEY CONCEPTS IN THIS FILE (types.go):
  - CatalogItem: Read-only catalog data for one item
  - StockMap: itemCode -> warehouseCode -> available quantity
  - WarehouseList: Warehouses visible to the current user, in display order
  - Line: One item entry of a document (owned by the document)
  - Document: Ordered lines plus the counterparty header

DESIGN PRINCIPLES:
  1. Value semantics: engine operations take a Document and return a new one
  2. Precision: Uses decimal.Decimal for every monetary/quantity value
  3. Total functions: malformed numeric text degrades to zero, never errors
  4. Explicit derivation: stock limits are recomputed at the trigger points,
     never cached across item/warehouse changes

USAGE:
  engine := &billing.LineEngine{Catalog: catalog, Stock: stock, Warehouses: whs}
  doc := billing.NewDocument("INV", 1)
  doc, out, err := engine.SelectItem(doc, 0, "X001")
  doc, out, err = engine.EditField(doc, 0, billing.FieldQty, "10")

SEE ALSO:
  - cascade.go: PriceCascade
  - stock.go: StockAllocator and ResolveStockLimit
  - line.go: LineEngine state transitions
  - validate.go: DocumentValidator
*/
package billing

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// CATALOG - External, read-only item data
// =============================================================================

// CatalogItem is one sellable item as supplied by the catalog lookup.
// Numeric fields arrive as text from the external catalog and are parsed
// leniently when used.
type CatalogItem struct {
	Code          string
	Name          string
	PrimaryUnit   string
	SecondaryUnit string // empty when the item has a single unit
	Multiplier    string // pieces per secondary unit
	MRP           string
	BaseRate      string // rate for the primary unit
	GSTPercent    string
	Pack          string
}

// HasTwoUnits reports whether a unit swap is meaningful for this item.
func (c CatalogItem) HasTwoUnits() bool {
	return c.SecondaryUnit != "" && c.SecondaryUnit != c.PrimaryUnit
}

// OtherUnit returns the unit a swap from current would move to.
func (c CatalogItem) OtherUnit(current string) string {
	if current == c.SecondaryUnit {
		return c.PrimaryUnit
	}
	return c.SecondaryUnit
}

// =============================================================================
// STOCK - Snapshot of available quantities
// =============================================================================

// StockMap maps itemCode -> warehouseCode -> available quantity.
// Missing entries mean zero stock.
type StockMap map[string]map[string]decimal.Decimal

// Quantity returns the stock of item in warehouse, zero when unknown.
func (s StockMap) Quantity(itemCode, warehouse string) decimal.Decimal {
	byWarehouse, ok := s[itemCode]
	if !ok {
		return decimal.Zero
	}
	qty, ok := byWarehouse[warehouse]
	if !ok {
		return decimal.Zero
	}
	return qty
}

// WarehouseList is the ordered set of warehouse codes the user may use.
type WarehouseList []string

// Contains reports whether code is an accessible warehouse.
func (w WarehouseList) Contains(code string) bool {
	for _, c := range w {
		if c == code {
			return true
		}
	}
	return false
}

// =============================================================================
// LINE - One item entry of a document
// =============================================================================

// Line holds the editable and derived state of one document line.
//
// Editable pricing fields are kept as the text the user typed so that a
// half-typed value ("12.") survives round trips; they are parsed on every
// PriceCascade run.
type Line struct {
	ItemCode string
	Item     *CatalogItem

	Unit       string
	Pack       string
	GSTPercent string
	Warehouse  string

	Qty                 string
	Rate                string
	SchemeFlat          string
	SchemePercent       string
	CashDiscountPercent string

	// Derived
	TotalStock decimal.Decimal
	StockLimit decimal.Decimal
	Gross      decimal.Decimal
	Net        decimal.Decimal
}

// IsEmpty reports whether no item is selected on the line.
func (l Line) IsEmpty() bool {
	return l.ItemCode == ""
}

// cleared returns the empty line state.
func cleared() Line {
	return Line{
		TotalStock: decimal.Zero,
		StockLimit: decimal.Zero,
		Gross:      decimal.Zero,
		Net:        decimal.Zero,
	}
}

// cascadeInput collects the pricing fields of the line.
func (l Line) cascadeInput() CascadeInput {
	return CascadeInput{
		Qty:                 l.Qty,
		Rate:                l.Rate,
		SchemeFlat:          l.SchemeFlat,
		SchemePercent:       l.SchemePercent,
		CashDiscountPercent: l.CashDiscountPercent,
	}
}

// =============================================================================
// DOCUMENT - Ordered lines plus header
// =============================================================================

// Document is an invoice (or purchase) being composed.
//
// INVARIANT: no two lines share a non-empty item code.
type Document struct {
	ID       string
	Series   string
	Number   int
	Party    string
	Salesman string
	Lines    []Line
}

// NewDocument returns a document with the given number of empty lines.
func NewDocument(series string, lines int) Document {
	doc := Document{Series: series, Lines: make([]Line, lines)}
	for i := range doc.Lines {
		doc.Lines[i] = cleared()
	}
	return doc
}

// clone copies the document so that engine operations never mutate the
// caller's value.
func (d Document) clone() Document {
	out := d
	out.Lines = make([]Line, len(d.Lines))
	copy(out.Lines, d.Lines)
	return out
}

// ItemLines returns the indexes of lines carrying an item code.
func (d Document) ItemLines() []int {
	var idx []int
	for i, l := range d.Lines {
		if !l.IsEmpty() {
			idx = append(idx, i)
		}
	}
	return idx
}

// =============================================================================
// HISTORICAL RATE SUGGESTION
// =============================================================================

// LastTransaction is the pricing used the last time item was billed to a party.
type LastTransaction struct {
	Rate                string
	Qty                 string
	SchemeFlat          string
	SchemePercent       string
	CashDiscountPercent string
}
