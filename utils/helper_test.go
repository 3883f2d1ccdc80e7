package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeAddress(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"123 Main St", "123 main st"},
		{"  123   MAIN  ST  ", "123 main st"},
		{"123\tMain\nSt", "123 main st"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeAddress(tc.in); got != tc.expected {
			t.Fatalf("NormalizeAddress(%q) expected %q, got %q", tc.in, tc.expected, got)
		}
	}
}

func TestDecimalOrZero(t *testing.T) {
	if got := DecimalOrZero(nil); !got.IsZero() {
		t.Fatalf("DecimalOrZero(nil) expected zero, got %s", got)
	}
	v := decimal.NewFromInt(42)
	if got := DecimalOrZero(&v); !got.Equal(v) {
		t.Fatalf("DecimalOrZero expected 42, got %s", got)
	}
}
