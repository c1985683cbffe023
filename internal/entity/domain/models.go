package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidEntityID = errors.New("invalid_entity_id")
	ErrEntityNotFound  = errors.New("entity_not_found")
)

// Entity is a selling entity. CptRef is the short code some deployments
// embed in offer references.
type Entity struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	CptRef    string       `gorm:"column:cpt_ref" json:"cpt_ref,omitempty"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (Entity) TableName() string { return "entities" }

type Repository interface {
	FindByID(ctx context.Context, id snowflake.ID) (*Entity, error)
}
