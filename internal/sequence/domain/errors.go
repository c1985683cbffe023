package domain

import "errors"

var (
	ErrSequenceServiceFailed = errors.New("sequence_service_failed")
	ErrInvalidSequenceName   = errors.New("invalid_sequence_name")
	ErrInvalidTemplate       = errors.New("invalid_reference_template")
)
