// Package core provides number formatting for result cells.
//
// Amounts in the expense table are plain decimals with no currency, so they
// are rendered with two fixed decimals and a thousands separator.
package core

import (
	"math"
	"strconv"
	"strings"
)

// FormatNumber renders a float with two decimals and comma thousands
// separators, e.g. 1234567.891 -> "1,234,567.89".
func FormatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	neg := f < 0
	if neg {
		f = -f
	}
	s := strconv.FormatFloat(f, 'f', 2, 64)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg && strings.Trim(s, "0.") != "" {
		b.WriteByte('-')
	}
	pre := len(intPart) % 3
	if pre > 0 {
		b.WriteString(intPart[:pre])
	}
	for i := pre; i < len(intPart); i += 3 {
		if b.Len() > 0 && !(b.Len() == 1 && neg) {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
