package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/offerdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	Status   Status
	ClientID snowflake.ID
	Ref      string
	// AfterID restricts results to offers older than the cursor.
	AfterID snowflake.ID
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, offer *Offer) error
	Update(ctx context.Context, db *gorm.DB, offer *Offer) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Offer, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*Offer, error)
	InsertHistory(ctx context.Context, db *gorm.DB, entry *HistoryEntry) error
}
