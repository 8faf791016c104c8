package billing

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the display precision for monetary amounts.
const Places = 2

// ParseNumber reads user or catalog text as a decimal.
// Blank or malformed text is zero; it never fails.
func ParseNumber(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseLeadingInt reads the leading integer of s ("12.7" -> 12, "5kg" -> 5).
// Text without a leading integer is zero.
func ParseLeadingInt(s string) int64 {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	var n int64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' || n > math.MaxInt64/10-1 {
			break
		}
		n = n*10 + int64(c-'0')
	}
	if neg {
		return -n
	}
	return n
}

// Round2 rounds half away from zero to two places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}
