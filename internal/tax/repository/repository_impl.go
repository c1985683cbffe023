package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/offerdesk/internal/tax/domain"
	"github.com/smallbiznis/offerdesk/pkg/db/option"
	"gorm.io/gorm"
)

type repository struct{}

func NewRepository() taxdomain.Repository {
	return &repository{}
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, tax *taxdomain.Tax) error {
	return db.WithContext(ctx).Create(tax).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*taxdomain.Tax, error) {
	return first(db.WithContext(ctx).Where("id = ?", id))
}

func (r *repository) FindByCode(ctx context.Context, db *gorm.DB, code string) (*taxdomain.Tax, error) {
	return first(db.WithContext(ctx).Where("code = ?", code))
}

// FindDefault returns the active default tax, lowest sequence first.
func (r *repository) FindDefault(ctx context.Context, db *gorm.DB) (*taxdomain.Tax, error) {
	return first(db.WithContext(ctx).
		Where("is_default = ? AND is_active = ?", true, true).
		Order("sequence ASC").
		Order("id ASC"))
}

func (r *repository) List(ctx context.Context, db *gorm.DB, filter taxdomain.ListRequest) ([]taxdomain.Tax, error) {
	var items []taxdomain.Tax
	stmt := db.WithContext(ctx).Model(&taxdomain.Tax{})

	if filter.Code != "" {
		stmt = stmt.Where("code = ?", filter.Code)
	}
	if filter.Country != "" {
		stmt = stmt.Where("country = ?", filter.Country)
	}
	if filter.IsActive != nil {
		stmt = stmt.Where("is_active = ?", *filter.IsActive)
	}

	if filter.SortBy == "" {
		stmt = stmt.Order("sequence ASC").Order("id ASC")
	} else {
		stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
			"created_at": true,
			"updated_at": true,
			"code":       true,
			"sequence":   true,
			"rate":       true,
		})).Apply(stmt)
	}

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Update(ctx context.Context, db *gorm.DB, tax *taxdomain.Tax) error {
	return db.WithContext(ctx).
		Model(&taxdomain.Tax{}).
		Where("id = ?", tax.ID).
		Updates(map[string]any{
			"langs":        tax.Langs,
			"rate":         tax.Rate,
			"value":        tax.Value,
			"sequence":     tax.Sequence,
			"country":      tax.Country,
			"is_default":   tax.IsDefault,
			"is_active":    tax.IsActive,
			"sell_account": tax.SellAccount,
			"buy_account":  tax.BuyAccount,
			"is_on_paid":   tax.IsOnPaid,
			"updated_at":   tax.UpdatedAt,
		}).Error
}

// ClearDefault unsets is_default on every tax except exceptID.
func (r *repository) ClearDefault(ctx context.Context, db *gorm.DB, exceptID snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&taxdomain.Tax{}).
		Where("is_default = ? AND id <> ?", true, exceptID).
		Update("is_default", false).Error
}

func first(stmt *gorm.DB) (*taxdomain.Tax, error) {
	var tax taxdomain.Tax
	if err := stmt.First(&tax).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tax, nil
}
