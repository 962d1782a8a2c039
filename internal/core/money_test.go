package core

import "testing"

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in  float64
		out string
	}{
		{0, "0.00"},
		{5, "5.00"},
		{85.714285, "85.71"},
		{999.999, "1,000.00"},
		{1234.5, "1,234.50"},
		{1234567.891, "1,234,567.89"},
		{-1234.5, "-1,234.50"},
		{-123, "-123.00"},
		{-0.001, "0.00"},
	}
	for _, tc := range cases {
		if got := FormatNumber(tc.in); got != tc.out {
			t.Fatalf("FormatNumber(%v) = %q, want %q", tc.in, got, tc.out)
		}
	}
}
