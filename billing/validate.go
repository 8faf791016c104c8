/*
validate.go - Submission gate for a whole document

PURPOSE:
  Decides whether a document may be submitted. The check is fail-fast:
  the first problem found is the only one reported, together with the
  line the UI should bring into view.

CHECK ORDER:
  1. Party selected
  2. Salesman selected (only when the user's role requires it)
  3. At least one line with an item
  4. For each item line, in document order:
     a. warehouse set
     b. quantity present and positive
     c. quantity <= stockLimit

SEVERITY:
  The line-level over-stock check in line.go is a soft warning. Here the
  same condition is hard-blocking. Both tiers are kept.

SEE ALSO:
  - errors.go: ValidationError and sentinels
  - totals.go: Payload built once validation passes
*/
package billing

// DocumentValidator checks a document before submission.
type DocumentValidator struct {
	// SalesmanRequired is set when the user's role/assignment requires a
	// salesman on every document.
	SalesmanRequired bool
}

// Validate returns nil when doc may be submitted, otherwise a
// *ValidationError describing the first problem.
func (v DocumentValidator) Validate(doc Document) error {
	if doc.Party == "" {
		return &ValidationError{Err: ErrMissingParty, LineIndex: -1}
	}
	if v.SalesmanRequired && doc.Salesman == "" {
		return &ValidationError{Err: ErrMissingSalesman, LineIndex: -1}
	}

	items := doc.ItemLines()
	if len(items) == 0 {
		return &ValidationError{Err: ErrNoItems, LineIndex: -1}
	}

	for _, i := range items {
		if err := validateLine(doc.Lines[i], i); err != nil {
			return err
		}
	}
	return nil
}

func validateLine(l Line, index int) error {
	if l.Warehouse == "" {
		return &ValidationError{Err: ErrMissingWarehouse, ItemCode: l.ItemCode, LineIndex: index}
	}
	qty := ParseNumber(l.Qty)
	if qty.Sign() <= 0 {
		return &ValidationError{Err: ErrMissingQuantity, ItemCode: l.ItemCode, LineIndex: index}
	}
	if qty.GreaterThan(l.StockLimit) {
		return &ValidationError{
			Err:       ErrQuantityExceedsStock,
			ItemCode:  l.ItemCode,
			LineIndex: index,
			Requested: qty,
			Limit:     l.StockLimit,
		}
	}
	return nil
}
