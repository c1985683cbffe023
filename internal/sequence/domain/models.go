// Package domain contains the persistent counters behind offer references.
package domain

import "time"

// OfferSequence is the counter name used for offer references.
const OfferSequence = "PC"

// Sequence is a named monotonic counter. Value holds the last issued number.
type Sequence struct {
	Name      string    `gorm:"size:128;primaryKey"`
	Value     int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Sequence) TableName() string { return "sequences" }
