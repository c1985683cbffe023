package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	offerdomain "github.com/smallbiznis/offerdesk/internal/offer/domain"
	pkgdb "github.com/smallbiznis/offerdesk/pkg/db"
	"github.com/smallbiznis/offerdesk/pkg/db/option"
	"github.com/smallbiznis/offerdesk/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() offerdomain.Repository {
	return &repo{}
}

// Insert writes the offer with its lines and tax totals. History is written
// separately through InsertHistory.
func (r *repo) Insert(ctx context.Context, db *gorm.DB, offer *offerdomain.Offer) error {
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(offer).Error; err != nil {
		return translateRefErr(err)
	}
	return r.writeChildren(ctx, db, offer)
}

// Update rewrites every column of the offer and replaces its lines and tax totals.
func (r *repo) Update(ctx context.Context, db *gorm.DB, offer *offerdomain.Offer) error {
	res := db.WithContext(ctx).
		Model(&offerdomain.Offer{}).
		Where("id = ?", offer.ID).
		Select("*").
		Omit(clause.Associations, "id", "created_at").
		Updates(offer)
	if res.Error != nil {
		return translateRefErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return offerdomain.ErrNotFound
	}

	if err := db.WithContext(ctx).Where("offer_id = ?", offer.ID).Delete(&offerdomain.Line{}).Error; err != nil {
		return err
	}
	if err := db.WithContext(ctx).Where("offer_id = ?", offer.ID).Delete(&offerdomain.TaxTotal{}).Error; err != nil {
		return err
	}
	return r.writeChildren(ctx, db, offer)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*offerdomain.Offer, error) {
	var offer offerdomain.Offer
	err := db.WithContext(ctx).
		Preload("Lines", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Preload("TaxTotals", func(tx *gorm.DB) *gorm.DB { return tx.Order("tva_tx ASC") }).
		Preload("History", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Where("id = ?", id).
		First(&offer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &offer, nil
}

// List returns up to page.Size()+1 offers, newest first. Snowflake IDs are
// time ordered so the id doubles as the cursor.
func (r *repo) List(ctx context.Context, db *gorm.DB, filter offerdomain.ListFilter, page pagination.Pagination) ([]*offerdomain.Offer, error) {
	var offers []*offerdomain.Offer
	stmt := db.WithContext(ctx).Model(&offerdomain.Offer{})

	if filter.Status != "" {
		stmt = option.ApplyOperator(option.Condition{Field: "status", Operator: option.EQ, Value: filter.Status}).Apply(stmt)
	}
	if filter.ClientID != 0 {
		stmt = option.ApplyOperator(option.Condition{Field: "client_id", Operator: option.EQ, Value: filter.ClientID}).Apply(stmt)
	}
	if filter.Ref != "" {
		stmt = option.ApplyOperator(option.Condition{Field: "ref", Operator: option.EQ, Value: filter.Ref}).Apply(stmt)
	}
	if filter.AfterID != 0 {
		stmt = option.ApplyOperator(option.Condition{Field: "id", Operator: option.LT, Value: filter.AfterID}).Apply(stmt)
	}

	stmt = option.WithLimit(page.Size() + 1).Apply(stmt)
	err := stmt.
		Preload("TaxTotals", func(tx *gorm.DB) *gorm.DB { return tx.Order("tva_tx ASC") }).
		Order("id DESC").
		Find(&offers).Error
	if err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *repo) InsertHistory(ctx context.Context, db *gorm.DB, entry *offerdomain.HistoryEntry) error {
	return db.WithContext(ctx).Create(entry).Error
}

// translateRefErr maps a unique violation on the offers row to ErrDuplicateRef;
// ref is the only unique column besides the primary key.
func translateRefErr(err error) error {
	if pkgdb.IsDuplicateKeyErr(err) {
		return fmt.Errorf("%w: %v", offerdomain.ErrDuplicateRef, err)
	}
	return err
}

func (r *repo) writeChildren(ctx context.Context, db *gorm.DB, offer *offerdomain.Offer) error {
	for i := range offer.Lines {
		offer.Lines[i].OfferID = offer.ID
	}
	for i := range offer.TaxTotals {
		offer.TaxTotals[i].OfferID = offer.ID
	}
	if len(offer.Lines) > 0 {
		if err := db.WithContext(ctx).Create(&offer.Lines).Error; err != nil {
			return err
		}
	}
	if len(offer.TaxTotals) > 0 {
		if err := db.WithContext(ctx).Create(&offer.TaxTotals).Error; err != nil {
			return err
		}
	}
	return nil
}
