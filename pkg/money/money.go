// Package money formats integer cent amounts the way the studio shows them.
package money

import (
	"math"
	"strconv"
	"strings"
)

// FormatBRL renders cents as Brazilian reais, e.g. 500000 -> "R$ 5.000,00".
func FormatBRL(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	whole := strconv.FormatInt(cents/100, 10)
	frac := cents % 100

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString("R$ ")
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	if frac < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(frac, 10))
	return b.String()
}

// ToCents converts a reais amount to cents, rounding half away from zero.
func ToCents(reais float64) int64 {
	return int64(math.Round(reais * 100))
}

// FromCents converts cents back to reais.
func FromCents(cents int64) float64 {
	return float64(cents) / 100
}
