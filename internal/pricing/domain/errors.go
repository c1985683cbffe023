package domain

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid_input")
	ErrPricingLookupFailed = errors.New("pricing_lookup_failed")
)
