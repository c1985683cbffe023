package domain

import "github.com/shopspring/decimal"

// PricePrecision is the number of decimals kept on every monetary field.
const PricePrecision = 2

var hundred = decimal.NewFromInt(100)

// SetPrice normalizes a monetary amount to fixed 2-decimal precision.
// Applying it to an already normalized value returns the same value.
func SetPrice(value decimal.Decimal) decimal.Decimal {
	return value.Round(PricePrecision)
}

// Percent returns value × rate / 100 without rounding.
func Percent(value, rate decimal.Decimal) decimal.Decimal {
	return value.Mul(rate).Div(hundred)
}

// ApplyPercentOff returns value reduced by rate percent, unrounded.
func ApplyPercentOff(value, rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() {
		return value
	}
	return value.Mul(hundred.Sub(rate)).Div(hundred)
}
