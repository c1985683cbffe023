package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSetPriceIsStable(t *testing.T) {
	values := []string{"0", "10", "10.005", "10.004999", "-3.335", "1234567.891", "0.1", "19.999"}
	for _, raw := range values {
		value := decimal.RequireFromString(raw)
		once := SetPrice(value)
		twice := SetPrice(once)
		assert.True(t, once.Equal(twice), "value %s: %s != %s", raw, once, twice)
		assert.LessOrEqual(t, -once.Exponent(), int32(PricePrecision))
	}
}

func TestSetPriceRoundsHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, "10.01", SetPrice(decimal.RequireFromString("10.005")).StringFixed(2))
	assert.Equal(t, "-3.34", SetPrice(decimal.RequireFromString("-3.335")).StringFixed(2))
}

func TestDiscountValidate(t *testing.T) {
	assert.NoError(t, Discount{}.Validate())
	assert.NoError(t, Discount{Kind: DiscountPercent, Value: decimal.NewFromInt(100)}.Validate())
	assert.NoError(t, Discount{Kind: DiscountAmount, Value: decimal.NewFromInt(500)}.Validate())

	assert.ErrorIs(t, Discount{Value: decimal.NewFromInt(5)}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, Discount{Kind: DiscountPercent, Value: decimal.NewFromInt(101)}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, Discount{Kind: DiscountAmount, Value: decimal.NewFromInt(-1)}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, Discount{Kind: "ratio", Value: decimal.NewFromInt(1)}.Validate(), ErrInvalidInput)
}
