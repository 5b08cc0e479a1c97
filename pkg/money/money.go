// Package money holds the integer-cent arithmetic shared by carts and orders.
package money

import "github.com/shopspring/decimal"

// TaxRateBasisPoints is the flat sales-tax rate applied to cart subtotals.
const TaxRateBasisPoints = 800

// Tax returns the tax in cents for a subtotal in cents, rounded half-up.
func Tax(subtotalCents int, rateBasisPoints int) int {
	if subtotalCents <= 0 || rateBasisPoints <= 0 {
		return 0
	}
	rate := decimal.New(int64(rateBasisPoints), -4)
	tax := decimal.NewFromInt(int64(subtotalCents)).Mul(rate)
	return int(tax.Round(0).IntPart())
}

// FromFloat converts a currency amount (e.g. 3.99) into cents.
func FromFloat(amount float64) int {
	return int(decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

// ToMajorUnits renders cents as a major-unit decimal string ("9.14").
func ToMajorUnits(cents int) string {
	return decimal.New(int64(cents), -2).StringFixed(2)
}
