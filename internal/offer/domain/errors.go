package domain

import "errors"

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotFound        = errors.New("not_found")
	ErrInvalidStatus   = errors.New("invalid_status")
	ErrInvalidClient   = errors.New("invalid_client")
	ErrInvalidLine     = errors.New("invalid_line")
	ErrInvalidShipping = errors.New("invalid_shipping")
	ErrDuplicateRef    = errors.New("duplicate_ref")
)
