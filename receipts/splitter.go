/*
Package receipts splits cash receipts that exceed the compliance ceiling.

PURPOSE:
  A single cash receipt may not exceed the reporting ceiling (20000).
  Larger payments are divided into an ordered sequence of receipts, each
  individually compliant, with consecutive document numbers.

ALGORITHM (integer cents, no epsilon):
  total <= ceiling -> [total]
  otherwise:
    remaining := total, ideal := ceiling
    while remaining > 0:
      take := remaining if ideal >= remaining else ideal
      emit take
      remaining -= take
      if remaining > 0:
        ideal := max(unit, floor((ideal - 1) / unit) * unit)

  First split is the ceiling, each following split is 500 smaller
  (19500, 19000, ...) until the remainder fits under the current ideal,
  at which point the remainder becomes the final split.

EXAMPLE:
  38000 -> [20000, 18000]
  45000 -> [20000, 19500, 5500]

INVARIANTS:
  - sum(splits) == total (to the cent)
  - every split but the last is a multiple of 500 and <= 20000
  - consecutive non-final splits decrease by exactly 500

SEE ALSO:
  - plan.go: Document numbers, cash discount, narration per split
  - batch.go: Tracking which splits were saved
*/
package receipts

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// DefaultCeiling is the largest amount allowed on one cash receipt.
	DefaultCeiling = 20000

	// DefaultRoundingUnit is the step between consecutive splits.
	DefaultRoundingUnit = 500
)

// ErrNonPositiveAmount is returned when splitting zero or a negative amount.
var ErrNonPositiveAmount = errors.New("amount must be positive")

// Split is one receipt amount and its position in the sequence.
type Split struct {
	Amount         decimal.Decimal
	SequenceOffset int
}

// Splitter divides amounts above Ceiling. Zero fields take the defaults.
type Splitter struct {
	Ceiling      decimal.Decimal
	RoundingUnit decimal.Decimal
}

// NewSplitter returns a splitter with the statutory ceiling and step.
func NewSplitter() Splitter {
	return Splitter{
		Ceiling:      decimal.NewFromInt(DefaultCeiling),
		RoundingUnit: decimal.NewFromInt(DefaultRoundingUnit),
	}
}

func (s Splitter) limits() (ceiling, unit int64) {
	c, u := s.Ceiling, s.RoundingUnit
	if c.IsZero() {
		c = decimal.NewFromInt(DefaultCeiling)
	}
	if u.IsZero() {
		u = decimal.NewFromInt(DefaultRoundingUnit)
	}
	return toCents(c), toCents(u)
}

// NeedsSplit reports whether total exceeds the ceiling.
func (s Splitter) NeedsSplit(total decimal.Decimal) bool {
	ceiling, _ := s.limits()
	return toCents(total) > ceiling
}

// Split divides total into compliant receipt amounts.
func (s Splitter) Split(total decimal.Decimal) ([]Split, error) {
	remaining := toCents(total)
	if remaining <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNonPositiveAmount, total)
	}
	ceiling, unit := s.limits()
	if unit <= 0 || ceiling <= 0 {
		return nil, fmt.Errorf("invalid splitter limits: ceiling %s, unit %s", s.Ceiling, s.RoundingUnit)
	}

	if remaining <= ceiling {
		return []Split{{Amount: fromCents(remaining), SequenceOffset: 0}}, nil
	}

	var splits []Split
	ideal := ceiling
	for remaining > 0 {
		take := ideal
		if ideal >= remaining {
			take = remaining
		}
		splits = append(splits, Split{Amount: fromCents(take), SequenceOffset: len(splits)})
		remaining -= take
		if remaining > 0 {
			ideal = max(unit, (ideal-100)/unit*unit)
		}
	}
	return splits, nil
}

// Amounts returns just the split amounts.
func Amounts(splits []Split) []decimal.Decimal {
	out := make([]decimal.Decimal, len(splits))
	for i, s := range splits {
		out[i] = s.Amount
	}
	return out
}

func toCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}
