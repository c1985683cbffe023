package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, tax *Tax) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Tax, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Tax, error)
	FindDefault(ctx context.Context, db *gorm.DB) (*Tax, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Tax, error)
	Update(ctx context.Context, db *gorm.DB, tax *Tax) error
	ClearDefault(ctx context.Context, db *gorm.DB, exceptID snowflake.ID) error
}
