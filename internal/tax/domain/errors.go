package domain

import "errors"

var (
	ErrInvalidID      = errors.New("invalid_id")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidTaxCode = errors.New("invalid_tax_code")
	ErrInvalidTaxRate = errors.New("invalid_tax_rate")
	ErrDuplicateCode  = errors.New("duplicate_tax_code")
)
