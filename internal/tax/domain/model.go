package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// FallbackRate applies when no default tax is configured.
var FallbackRate = decimal.NewFromInt(20)

const DefaultCountry = "FR"

// Lang is a localized tax name. Label is the wording printed on documents.
type Lang struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Tax is a VAT rate or fixed levy available to offer lines.
type Tax struct {
	ID    snowflake.ID              `gorm:"primaryKey" json:"id"`
	Code  string                    `gorm:"size:32;not null;uniqueIndex" json:"code"`
	Langs datatypes.JSONSlice[Lang] `gorm:"not null" json:"langs"`

	// Rate is a percentage, Value a fixed amount.
	Rate  decimal.Decimal `gorm:"type:numeric(8,4);not null;default:0" json:"rate"`
	Value decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"value"`

	Sequence    int     `gorm:"not null;default:0" json:"sequence"`
	Country     string  `gorm:"size:8;not null;default:'FR'" json:"country"`
	IsDefault   bool    `gorm:"column:is_default;not null;default:false" json:"is_default"`
	IsActive    bool    `gorm:"column:is_active;not null;default:true" json:"is_active"`
	SellAccount *string `gorm:"type:text" json:"sell_account"`
	BuyAccount  *string `gorm:"type:text" json:"buy_account"`
	IsOnPaid    bool    `gorm:"column:is_on_paid;not null;default:false" json:"is_on_paid"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Tax) TableName() string { return "taxes" }

// Name is the first localized name, or empty.
func (t *Tax) Name() string {
	if len(t.Langs) == 0 {
		return ""
	}
	return t.Langs[0].Name
}

func (t *Tax) Validate() error {
	if strings.TrimSpace(t.Code) == "" {
		return ErrInvalidTaxCode
	}
	if t.Rate.IsNegative() || t.Value.IsNegative() {
		return ErrInvalidTaxRate
	}
	return nil
}
