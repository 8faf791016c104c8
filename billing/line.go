/*
line.go - Lifecycle of a single document line

PURPOSE:
  LineEngine is the only mutation surface for a line. It composes the
  unit converter, stock allocator, duplicate guard and price cascade into
  the line's state-transition functions.

LINE LIFECYCLE:
  ┌────────┐  SelectItem   ┌──────────┐  SelectWarehouse  ┌──────────┐
  │ empty  │ ────────────▶ │  item    │ ────────────────▶ │ priced   │
  └────────┘               └──────────┘   (or auto)       └──────────┘
       ▲                        │                          │  EditField
       │   SelectItem("")       │                          │  SwapUnit
       └────────────────────────┴──────────────────────────┘  (re-price)

OPERATIONS:
  SelectItem(code)       ""/unknown -> clear; duplicate -> clear + Conflict;
                         else defaults from catalog, allocate stock, re-price
  SelectWarehouse(code)  stockLimit := ResolveStockLimit; qty is kept even
                         when it now exceeds the limit (OverStock is set)
  SwapUnit()             ConvertUnit to the other unit, re-price
  EditField(name, val)   update pricing field, re-price; qty above stock
                         sets OverStock without blocking the edit

VALUE SEMANTICS:
  Every operation returns a new Document. The input is never modified, so
  callers can keep the previous value for undo or diffing.

ERRORS:
  Only programmer errors are returned as error (bad index, unknown field,
  inaccessible warehouse). Everything the user can cause is reported in
  the Outcome.

SEE ALSO:
  - stock.go: StockAllocator
  - cascade.go: PriceCascade
  - duplicate.go: FindDuplicate
*/
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FIELDS AND OUTCOME
// =============================================================================

// Field names an editable pricing field of a line.
type Field string

const (
	FieldQty                 Field = "qty"
	FieldRate                Field = "rate"
	FieldSchemeFlat          Field = "schemeFlat"
	FieldSchemePercent       Field = "schemePercent"
	FieldCashDiscountPercent Field = "cashDiscountPercent"
)

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldQty, FieldRate, FieldSchemeFlat, FieldSchemePercent, FieldCashDiscountPercent:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// FocusHint tells the UI which input of the line should take focus next.
type FocusHint string

const (
	FocusNone      FocusHint = ""
	FocusItem      FocusHint = "item"
	FocusWarehouse FocusHint = "warehouse"
	FocusQty       FocusHint = "qty"
)

// Outcome reports what a line operation did beyond the new document value.
type Outcome struct {
	// Conflict is set when the item selection was rejected as a duplicate.
	Conflict *DuplicateItemError

	// OverStock is set when the line quantity exceeds its stock limit.
	OverStock *OverStockWarning

	// UnknownItem is set when the selected code is not in the catalog.
	UnknownItem bool

	Focus FocusHint
}

// =============================================================================
// LINE ENGINE
// =============================================================================

// LineEngine applies line operations against a catalog and stock snapshot.
// It holds no mutable state; re-create or update its fields when the
// catalog or stock snapshot is refreshed.
type LineEngine struct {
	Catalog    CatalogLookup
	Stock      StockMap
	Warehouses WarehouseList
}

func (e *LineEngine) allocator() StockAllocator {
	return StockAllocator{Stock: e.Stock, Warehouses: e.Warehouses}
}

// lineAt validates index and returns a working copy of the document.
func lineAt(doc Document, index int) (Document, error) {
	if index < 0 || index >= len(doc.Lines) {
		return doc, fmt.Errorf("%w: %d (document has %d lines)", ErrLineOutOfRange, index, len(doc.Lines))
	}
	return doc.clone(), nil
}

// item returns the catalog entry of the line, resolving it by code when
// the line was restored without one.
func (e *LineEngine) item(l Line) *CatalogItem {
	if l.Item != nil {
		return l.Item
	}
	if l.ItemCode == "" || e.Catalog == nil {
		return nil
	}
	item, ok := e.Catalog.GetItem(l.ItemCode)
	if !ok {
		return nil
	}
	return item
}

// SelectItem selects code on line index. An empty code deselects.
func (e *LineEngine) SelectItem(doc Document, index int, code string) (Document, Outcome, error) {
	out, err := lineAt(doc, index)
	if err != nil {
		return doc, Outcome{}, err
	}

	if code == "" {
		out.Lines[index] = cleared()
		return out, Outcome{Focus: FocusItem}, nil
	}

	if conflict, found := FindDuplicate(out, index, code); found {
		out.Lines[index] = cleared()
		return out, Outcome{
			Focus: FocusItem,
			Conflict: &DuplicateItemError{
				ItemCode:      code,
				LineIndex:     index,
				ConflictIndex: conflict,
			},
		}, nil
	}

	var item *CatalogItem
	if e.Catalog != nil {
		item, _ = e.Catalog.GetItem(code)
	}
	if item == nil {
		out.Lines[index] = cleared()
		return out, Outcome{Focus: FocusItem, UnknownItem: true}, nil
	}

	l := out.Lines[index]
	l.ItemCode = item.Code
	l.Item = item
	l.Unit = item.PrimaryUnit
	l.Rate, l.Pack = ConvertUnit(*item, item.PrimaryUnit)
	l.GSTPercent = item.GSTPercent
	l = e.allocator().Allocate(l)
	l = reprice(l)
	out.Lines[index] = l

	outcome := Outcome{Focus: FocusWarehouse, OverStock: overStock(l)}
	if l.Warehouse != "" {
		outcome.Focus = FocusQty
	}
	return out, outcome, nil
}

// SelectWarehouse sets the warehouse of line index and re-derives its stock
// limit. An empty code unsets the warehouse.
func (e *LineEngine) SelectWarehouse(doc Document, index int, code string) (Document, Outcome, error) {
	out, err := lineAt(doc, index)
	if err != nil {
		return doc, Outcome{}, err
	}
	if code != "" && !e.Warehouses.Contains(code) {
		return doc, Outcome{}, fmt.Errorf("%w: %s", ErrWarehouseNotAccessible, code)
	}

	l := out.Lines[index]
	l.Warehouse = code
	l.StockLimit = ResolveStockLimit(l.ItemCode, code, e.Stock)
	out.Lines[index] = l

	outcome := Outcome{OverStock: overStock(l)}
	if code == "" {
		outcome.Focus = FocusWarehouse
	} else {
		outcome.Focus = FocusQty
	}
	return out, outcome, nil
}

// SwapUnit toggles the line between the item's primary and secondary unit.
// Items with a single unit are left unchanged.
func (e *LineEngine) SwapUnit(doc Document, index int) (Document, Outcome, error) {
	out, err := lineAt(doc, index)
	if err != nil {
		return doc, Outcome{}, err
	}
	l := out.Lines[index]
	item := e.item(l)
	if item == nil || !item.HasTwoUnits() {
		return doc, Outcome{}, nil
	}

	target := item.OtherUnit(l.Unit)
	l.Rate, l.Pack = ConvertUnit(*item, target)
	l.Unit = target
	l = reprice(l)
	out.Lines[index] = l
	return out, Outcome{OverStock: overStock(l)}, nil
}

// EditField sets one pricing field and re-prices the line.
func (e *LineEngine) EditField(doc Document, index int, field Field, value string) (Document, Outcome, error) {
	out, err := lineAt(doc, index)
	if err != nil {
		return doc, Outcome{}, err
	}
	l := out.Lines[index]
	switch field {
	case FieldQty:
		l.Qty = value
	case FieldRate:
		l.Rate = value
	case FieldSchemeFlat:
		l.SchemeFlat = value
	case FieldSchemePercent:
		l.SchemePercent = value
	case FieldCashDiscountPercent:
		l.CashDiscountPercent = value
	default:
		return doc, Outcome{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	l = reprice(l)
	out.Lines[index] = l

	var outcome Outcome
	if field == FieldQty {
		outcome.OverStock = overStock(l)
	}
	return out, outcome, nil
}

// ApplyLastTransaction pre-fills the line's pricing from history and runs
// the cascade once. A nil suggestion leaves the document unchanged.
func (e *LineEngine) ApplyLastTransaction(doc Document, index int, last *LastTransaction) (Document, Outcome, error) {
	out, err := lineAt(doc, index)
	if err != nil {
		return doc, Outcome{}, err
	}
	if last == nil {
		return doc, Outcome{}, nil
	}
	l := out.Lines[index]
	if l.IsEmpty() {
		return doc, Outcome{}, ErrNoItem
	}
	l.Rate = last.Rate
	l.Qty = last.Qty
	l.SchemeFlat = last.SchemeFlat
	l.SchemePercent = last.SchemePercent
	l.CashDiscountPercent = last.CashDiscountPercent
	l = reprice(l)
	out.Lines[index] = l
	return out, Outcome{OverStock: overStock(l)}, nil
}

// =============================================================================
// DOCUMENT-LEVEL LINE MANAGEMENT
// =============================================================================

// AddLine appends an empty line.
func (e *LineEngine) AddLine(doc Document) Document {
	out := doc.clone()
	out.Lines = append(out.Lines, cleared())
	return out
}

// RemoveLine drops line index from the document.
func (e *LineEngine) RemoveLine(doc Document, index int) (Document, error) {
	out, err := lineAt(doc, index)
	if err != nil {
		return doc, err
	}
	out.Lines = append(out.Lines[:index], out.Lines[index+1:]...)
	return out, nil
}

// Refresh re-derives stock and pricing for every line after the stock
// snapshot or warehouse list changed. Warehouses no longer accessible are
// dropped and may be auto-selected again; a warehouse the user unset is left
// unset so validation still reports it.
func (e *LineEngine) Refresh(doc Document) Document {
	out := doc.clone()
	alloc := e.allocator()
	for i, l := range out.Lines {
		if l.IsEmpty() {
			continue
		}
		if item := e.item(l); item != nil {
			l.Item = item
		}
		l = alloc.Reconcile(l)
		out.Lines[i] = reprice(l)
	}
	return out
}

// overStock returns a warning when the line's integer quantity exceeds its
// stock limit.
func overStock(l Line) *OverStockWarning {
	if l.IsEmpty() {
		return nil
	}
	qty := decimal.NewFromInt(ParseLeadingInt(l.Qty))
	if !qty.GreaterThan(l.StockLimit) {
		return nil
	}
	return &OverStockWarning{
		ItemCode:  l.ItemCode,
		Warehouse: l.Warehouse,
		Requested: qty,
		Limit:     l.StockLimit,
	}
}
