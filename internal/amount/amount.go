// Package amount parses and formats bid amounts with magnitude shorthand,
// so users can write "1.5m" instead of 1500000.
package amount

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidFormat indicates text that is neither a plain number nor a
// number with a known magnitude suffix.
var ErrInvalidFormat = errors.New("invalid amount format")

// suffix exponents: value is multiplied by 10^exp.
var suffixes = map[byte]int32{
	'k': 3,
	'm': 6,
	'b': 9,
	't': 12,
}

var units = []string{"", "K", "M", "B", "T"}

var thousand = decimal.NewFromInt(1000)

// Parse converts text like "250", "1.5k" or "2M" into a decimal amount.
// Suffixes are case-insensitive: k=1e3, m=1e6, b=1e9, t=1e12.
func Parse(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(strings.ToLower(text))
	if s == "" {
		return decimal.Zero, ErrInvalidFormat
	}

	var exp int32
	if e, ok := suffixes[s[len(s)-1]]; ok {
		exp = e
		s = s[:len(s)-1]
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidFormat
	}
	return d.Shift(exp), nil
}

// Format renders an amount compactly, scaling down by thousands and
// appending the matching unit: 1500 -> "1.5K", 2500000 -> "2.5M".
// No trailing zeros and no unnecessary decimal point are produced.
func Format(d decimal.Decimal) string {
	unit := 0
	v := d.Abs()
	for unit < len(units)-1 && v.GreaterThanOrEqual(thousand) {
		v = v.Div(thousand)
		d = d.Div(thousand)
		unit++
	}
	return trimZeros(d.String()) + units[unit]
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
