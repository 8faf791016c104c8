/*
errors.go - Centralized error types for the billing engine

PURPOSE:
  All error types in one place for consistency and discoverability.

ERROR CATEGORIES:
  1. Rejected mutation - DuplicateItemError (line reverts to empty)
  2. Soft warning      - OverStockWarning (reported, never blocks editing)
  3. Hard validation   - ValidationError (blocks submission, fail-fast)
  4. Programmer errors - out-of-range line, unknown field, inaccessible warehouse

  Malformed numeric text is never an error; it degrades to zero.

USAGE:
  if err := validator.Validate(doc); err != nil {
      var verr *billing.ValidationError
      if errors.As(err, &verr) {
          scrollTo(verr.LineIndex)
      }
  }

SEE ALSO:
  - line.go: Produces DuplicateItemError and OverStockWarning
  - validate.go: Produces ValidationError
*/
package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateItem is returned when the item is already on another line.
	ErrDuplicateItem = errors.New("item already on another line")

	// ErrLineOutOfRange is returned for a line index outside the document.
	ErrLineOutOfRange = errors.New("line index out of range")

	// ErrUnknownField is returned when editing a field that is not a pricing field.
	ErrUnknownField = errors.New("unknown line field")

	// ErrWarehouseNotAccessible is returned when choosing a warehouse outside
	// the user's warehouse list.
	ErrWarehouseNotAccessible = errors.New("warehouse not accessible")

	// ErrNoItem is returned for operations that need a selected item.
	ErrNoItem = errors.New("no item selected on line")

	// ErrDraftNotFound is returned by draft stores for unknown IDs.
	ErrDraftNotFound = errors.New("draft not found")

	// Validation failures.
	ErrMissingParty         = errors.New("party is required")
	ErrMissingSalesman      = errors.New("salesman is required")
	ErrNoItems              = errors.New("at least one item required")
	ErrMissingWarehouse     = errors.New("missing warehouse")
	ErrMissingQuantity      = errors.New("missing quantity")
	ErrQuantityExceedsStock = errors.New("quantity exceeds stock")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicateItemError identifies the line that already holds the item.
type DuplicateItemError struct {
	ItemCode      string
	LineIndex     int // line where selection was attempted
	ConflictIndex int // line already holding the item
}

func (e *DuplicateItemError) Error() string {
	return fmt.Sprintf("item %s already on line %d", e.ItemCode, e.ConflictIndex+1)
}

func (e *DuplicateItemError) Unwrap() error {
	return ErrDuplicateItem
}

// OverStockWarning flags a quantity above the line's stock limit.
// Display-only: the quantity is kept as typed.
type OverStockWarning struct {
	ItemCode  string
	Warehouse string
	Requested decimal.Decimal
	Limit     decimal.Decimal
}

func (w *OverStockWarning) Error() string {
	return fmt.Sprintf("quantity %s exceeds stock %s for %s in %s",
		w.Requested, w.Limit, w.ItemCode, w.Warehouse)
}

// ValidationError is the single reason a document was rejected.
type ValidationError struct {
	Err       error
	ItemCode  string
	LineIndex int // -1 when no line is implicated
	Requested decimal.Decimal
	Limit     decimal.Decimal
}

func (e *ValidationError) Error() string {
	switch {
	case errors.Is(e.Err, ErrQuantityExceedsStock):
		return fmt.Sprintf("%s: %s requested %s, available %s",
			e.Err, e.ItemCode, e.Requested, e.Limit)
	case e.ItemCode != "":
		return fmt.Sprintf("%s: %s", e.Err, e.ItemCode)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Code returns a stable machine-readable reason.
func (e *ValidationError) Code() string {
	switch {
	case errors.Is(e.Err, ErrMissingParty):
		return "missing_party"
	case errors.Is(e.Err, ErrMissingSalesman):
		return "missing_salesman"
	case errors.Is(e.Err, ErrNoItems):
		return "no_items"
	case errors.Is(e.Err, ErrMissingWarehouse):
		return "missing_warehouse"
	case errors.Is(e.Err, ErrMissingQuantity):
		return "missing_quantity"
	case errors.Is(e.Err, ErrQuantityExceedsStock):
		return "quantity_exceeds_stock"
	}
	return "invalid"
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrLineOutOfRange) ||
		errors.Is(err, ErrUnknownField) ||
		errors.Is(err, ErrWarehouseNotAccessible) ||
		errors.Is(err, ErrNoItem)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDraftNotFound)
}
