package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Counter atomically increments a named counter and returns the new value.
// tx, when non-nil, lets a database backed counter join the caller's transaction.
type Counter interface {
	Next(ctx context.Context, tx *gorm.DB, name string) (int64, error)
}

// ReferenceCodeLookup returns the reference code configured on an entity.
type ReferenceCodeLookup interface {
	ReferenceCode(ctx context.Context, entityID string) (string, error)
}

// Assigner issues and normalizes offer references.
type Assigner interface {
	Assign(ctx context.Context, tx *gorm.DB, entityID string, createdAt time.Time) (string, error)
	Refresh(ref string, createdAt time.Time) string
}
