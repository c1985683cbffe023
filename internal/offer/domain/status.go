package domain

import "strings"

// Status is the lifecycle state of an offer.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusValidated Status = "VALIDATED"
	StatusSigned    Status = "SIGNED"
	StatusNotSigned Status = "NOTSIGNED"
	StatusBilled    Status = "BILLED"
	StatusCanceled  Status = "CANCELED"
)

var statuses = []Status{
	StatusDraft,
	StatusValidated,
	StatusSigned,
	StatusNotSigned,
	StatusBilled,
	StatusCanceled,
}

// Statuses lists every valid status in lifecycle order.
func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

// ParseStatus accepts a status code case-insensitively.
func ParseStatus(raw string) (Status, error) {
	candidate := Status(strings.ToUpper(strings.TrimSpace(raw)))
	for _, s := range statuses {
		if s == candidate {
			return s, nil
		}
	}
	return "", ErrInvalidStatus
}

func (s Status) String() string { return string(s) }
