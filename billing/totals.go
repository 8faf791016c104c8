package billing

import "github.com/shopspring/decimal"

// DocumentTotals sums the priced lines of a document.
type DocumentTotals struct {
	Gross      decimal.Decimal
	Net        decimal.Decimal // taxable value after scheme and cash discount
	GST        decimal.Decimal
	GrandTotal decimal.Decimal
	Lines      int
}

// Totals computes document totals over lines with an item.
// GST is charged on each line's net amount at the line's GST percent.
func Totals(doc Document) DocumentTotals {
	t := DocumentTotals{
		Gross:      decimal.Zero,
		Net:        decimal.Zero,
		GST:        decimal.Zero,
		GrandTotal: decimal.Zero,
	}
	for _, l := range doc.Lines {
		if l.IsEmpty() {
			continue
		}
		t.Lines++
		t.Gross = t.Gross.Add(l.Gross)
		t.Net = t.Net.Add(l.Net)
		t.GST = t.GST.Add(l.Net.Mul(ParseNumber(l.GSTPercent)).Div(hundred))
	}
	t.GST = Round2(t.GST)
	t.GrandTotal = Round2(t.Net.Add(t.GST))
	return t
}

// PayloadLine is one submitted line.
type PayloadLine struct {
	ItemCode            string
	Unit                string
	Warehouse           string
	Qty                 decimal.Decimal
	Rate                decimal.Decimal
	SchemeFlat          decimal.Decimal
	SchemePercent       decimal.Decimal
	CashDiscountPercent decimal.Decimal
	GSTPercent          decimal.Decimal
	Gross               decimal.Decimal
	Net                 decimal.Decimal
}

// Payload is the document reduced to what the submission layer needs.
type Payload struct {
	Series   string
	Number   int
	Party    string
	Salesman string
	Lines    []PayloadLine
	Totals   DocumentTotals
}

// BuildPayload validates doc and, when it passes, reduces it to a payload.
func BuildPayload(v DocumentValidator, doc Document) (Payload, error) {
	if err := v.Validate(doc); err != nil {
		return Payload{}, err
	}
	p := Payload{
		Series:   doc.Series,
		Number:   doc.Number,
		Party:    doc.Party,
		Salesman: doc.Salesman,
		Totals:   Totals(doc),
	}
	for _, l := range doc.Lines {
		if l.IsEmpty() {
			continue
		}
		p.Lines = append(p.Lines, PayloadLine{
			ItemCode:            l.ItemCode,
			Unit:                l.Unit,
			Warehouse:           l.Warehouse,
			Qty:                 ParseNumber(l.Qty),
			Rate:                ParseNumber(l.Rate),
			SchemeFlat:          ParseNumber(l.SchemeFlat),
			SchemePercent:       ParseNumber(l.SchemePercent),
			CashDiscountPercent: ParseNumber(l.CashDiscountPercent),
			GSTPercent:          ParseNumber(l.GSTPercent),
			Gross:               l.Gross,
			Net:                 l.Net,
		})
	}
	return p, nil
}
