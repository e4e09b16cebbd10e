package handler

import "github.com/shopspring/decimal"

// toDecimalPtr converts a JSON float into an optional money value
func toDecimalPtr(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

// toDecimal converts a JSON float into a money value
func toDecimal(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
