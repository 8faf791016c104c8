/*
cascade.go - Line price cascade

PURPOSE:
  Converts a line's quantity, rate, scheme and cash-discount inputs into
  gross and net amounts. Safe to call on every keystroke.

CASCADE (order matters, it is not commutative):
  1. gross                 = qty * rate
  2. schemeValue           = qty * schemeFlat + gross * schemePercent / 100
  3. netBeforeCashDiscount = gross - schemeValue
  4. cashDiscountValue     = netBeforeCashDiscount * cashDiscountPercent / 100
  5. net                   = netBeforeCashDiscount - cashDiscountValue

  Intermediate values are carried at full precision; only Gross and Net
  are rounded to two places.

EXAMPLE:
  qty=10 rate=100 schemePercent=5 cashDiscountPercent=2
    gross=1000 schemeValue=50 netBeforeCD=950 cdValue=19 net=931

SEE ALSO:
  - line.go: Re-runs the cascade after every pricing edit
*/
package billing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// CascadeInput is the raw text of a line's pricing fields.
// Unparsable values count as zero.
type CascadeInput struct {
	Qty                 string
	Rate                string
	SchemeFlat          string
	SchemePercent       string
	CashDiscountPercent string
}

// CascadeResult holds the cascade output. Gross and Net are rounded;
// the intermediates are not.
type CascadeResult struct {
	Gross                 decimal.Decimal
	SchemeValue           decimal.Decimal
	NetBeforeCashDiscount decimal.Decimal
	CashDiscountValue     decimal.Decimal
	Net                   decimal.Decimal
}

// PriceCascade computes gross and net for one line.
func PriceCascade(in CascadeInput) CascadeResult {
	qty := ParseNumber(in.Qty)
	rate := ParseNumber(in.Rate)
	schemeFlat := ParseNumber(in.SchemeFlat)
	schemePercent := ParseNumber(in.SchemePercent)
	cdPercent := ParseNumber(in.CashDiscountPercent)

	gross := qty.Mul(rate)
	schemeValue := qty.Mul(schemeFlat).Add(gross.Mul(schemePercent).Div(hundred))
	netBeforeCD := gross.Sub(schemeValue)
	cdValue := netBeforeCD.Mul(cdPercent).Div(hundred)
	net := netBeforeCD.Sub(cdValue)

	return CascadeResult{
		Gross:                 Round2(gross),
		SchemeValue:           schemeValue,
		NetBeforeCashDiscount: netBeforeCD,
		CashDiscountValue:     cdValue,
		Net:                   Round2(net),
	}
}

// reprice re-runs the cascade and stores gross/net on the line.
func reprice(l Line) Line {
	res := PriceCascade(l.cascadeInput())
	l.Gross = res.Gross
	l.Net = res.Net
	return l
}
