package receipts

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PlanInput describes the original receipt before splitting.
type PlanInput struct {
	Series       string
	StartNumber  int
	Date         time.Time
	Party        string
	Amount       decimal.Decimal
	CashDiscount decimal.Decimal
	Narration    string
}

// PlannedReceipt is one receipt to be submitted.
type PlannedReceipt struct {
	SequenceOffset int
	DocumentNumber int
	Series         string
	Date           time.Time
	Party          string
	Amount         decimal.Decimal
	CashDiscount   decimal.Decimal
	Narration      string
	IdempotencyKey string
}

// Plan splits in.Amount and assigns document numbers, discount and
// narration. Document numbers run consecutively from in.StartNumber. The
// cash discount stays on the first receipt only.
func (s Splitter) Plan(in PlanInput) ([]PlannedReceipt, error) {
	splits, err := s.Split(in.Amount)
	if err != nil {
		return nil, err
	}

	out := make([]PlannedReceipt, len(splits))
	for i, sp := range splits {
		docNo := in.StartNumber + sp.SequenceOffset
		discount := decimal.Zero
		if sp.SequenceOffset == 0 {
			discount = in.CashDiscount
		}
		out[i] = PlannedReceipt{
			SequenceOffset: sp.SequenceOffset,
			DocumentNumber: docNo,
			Series:         in.Series,
			Date:           in.Date,
			Party:          in.Party,
			Amount:         sp.Amount,
			CashDiscount:   discount,
			Narration:      narration(in.Narration, in.Series, docNo, i, len(splits)),
		}
	}
	return out, nil
}

// narration references the receipt's own number and series. Split
// receipts also carry their position.
func narration(base, series string, docNo, i, n int) string {
	var b strings.Builder
	if base = strings.TrimSpace(base); base != "" {
		b.WriteString(base)
		b.WriteString(" - ")
	}
	fmt.Fprintf(&b, "Cash received vide %s/%d", series, docNo)
	if n > 1 {
		fmt.Fprintf(&b, " (part %d of %d)", i+1, n)
	}
	return b.String()
}
