package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTax(t *testing.T) {
	tests := []struct {
		name          string
		subtotalCents int
		rateBps       int
		want          int
	}{
		{name: "flat 8 percent", subtotalCents: 200, rateBps: 800, want: 16},
		{name: "rounds half up", subtotalCents: 99, rateBps: 800, want: 8},              // 7.92 -> 8
		{name: "rounds down below half", subtotalCents: 105, rateBps: 400, want: 4},     // 4.2 -> 4
		{name: "exact midpoint rounds up", subtotalCents: 1250, rateBps: 100, want: 13}, // 12.5 -> 13
		{name: "zero subtotal", subtotalCents: 0, rateBps: 800, want: 0},
		{name: "negative subtotal", subtotalCents: -100, rateBps: 800, want: 0},
		{name: "zero rate", subtotalCents: 500, rateBps: 0, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Tax(tc.subtotalCents, tc.rateBps))
		})
	}
}

func TestFromFloat(t *testing.T) {
	assert.Equal(t, 399, FromFloat(3.99))
	assert.Equal(t, 100, FromFloat(1.0))
	assert.Equal(t, 0, FromFloat(0))
}

func TestToMajorUnits(t *testing.T) {
	assert.Equal(t, "9.14", ToMajorUnits(914))
	assert.Equal(t, "0.05", ToMajorUnits(5))
	assert.Equal(t, "10.00", ToMajorUnits(1000))
}
