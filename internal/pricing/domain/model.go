// Package domain holds the order totals model shared by offers and the calculator.
package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// DiscountKind is the unit of a document discount.
type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountAmount  DiscountKind = "amount"
)

// Discount applies to every line before tax. Kind is mandatory whenever Value is set.
type Discount struct {
	Kind  DiscountKind    `json:"kind" gorm:"column:kind;type:text"`
	Value decimal.Decimal `json:"value" gorm:"column:value;type:numeric(18,2);not null;default:0"`
}

func (d Discount) IsZero() bool {
	return d.Value.IsZero()
}

func (d Discount) Validate() error {
	if d.Value.IsNegative() {
		return fmt.Errorf("%w: discount must not be negative", ErrInvalidInput)
	}
	switch d.Kind {
	case DiscountPercent:
		if d.Value.GreaterThan(hundred) {
			return fmt.Errorf("%w: discount percent must be at most 100", ErrInvalidInput)
		}
	case DiscountAmount:
	case "":
		if !d.Value.IsZero() {
			return fmt.Errorf("%w: discount kind is required", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown discount kind %q", ErrInvalidInput, d.Kind)
	}
	return nil
}

// LineItem is one priced line. Discount is a percentage of the line.
type LineItem struct {
	Qty        decimal.Decimal `json:"qty" gorm:"column:qty;type:numeric(18,4);not null;default:0"`
	PuHT       decimal.Decimal `json:"pu_ht" gorm:"column:pu_ht;type:numeric(18,4);not null;default:0"`
	TvaTx      decimal.Decimal `json:"tva_tx" gorm:"column:tva_tx;type:numeric(6,3);not null;default:0"`
	Discount   decimal.Decimal `json:"discount" gorm:"column:discount;type:numeric(6,3);not null;default:0"`
	UnitWeight decimal.Decimal `json:"unit_weight" gorm:"column:unit_weight;type:numeric(18,4);not null;default:0"`

	TotalHT  decimal.Decimal `json:"total_ht" gorm:"column:total_ht;type:numeric(18,2);not null;default:0"`
	TotalTVA decimal.Decimal `json:"total_tva" gorm:"column:total_tva;type:numeric(18,2);not null;default:0"`
	TotalTTC decimal.Decimal `json:"total_ttc" gorm:"column:total_ttc;type:numeric(18,2);not null;default:0"`
	Weight   decimal.Decimal `json:"weight" gorm:"column:weight;type:numeric(18,4);not null;default:0"`
}

type ShippingCharge struct {
	TotalHT  decimal.Decimal `json:"total_ht" gorm:"column:total_ht;type:numeric(18,2);not null;default:0"`
	TvaTx    decimal.Decimal `json:"tva_tx" gorm:"column:tva_tx;type:numeric(6,3);not null;default:20"`
	TotalTVA decimal.Decimal `json:"total_tva" gorm:"column:total_tva;type:numeric(18,2);not null;default:0"`
	TotalTTC decimal.Decimal `json:"total_ttc" gorm:"column:total_ttc;type:numeric(18,2);not null;default:0"`
}

// TaxBucket aggregates tax amounts for one rate.
type TaxBucket struct {
	TvaTx decimal.Decimal `json:"tva_tx"`
	Total decimal.Decimal `json:"total"`
}

type OrderTotals struct {
	Lines    []LineItem      `json:"lines"`
	Shipping ShippingCharge  `json:"shipping"`
	TotalHT  decimal.Decimal `json:"total_ht"`
	TotalTVA []TaxBucket     `json:"total_tva"`
	TotalTTC decimal.Decimal `json:"total_ttc"`
	Weight   decimal.Decimal `json:"weight"`
}

// TaxTotal sums every bucket.
func (t OrderTotals) TaxTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, bucket := range t.TotalTVA {
		sum = sum.Add(bucket.Total)
	}
	return sum
}

// ClientRule is a client-specific pricing adjustment.
type ClientRule struct {
	ClientID        snowflake.ID    `gorm:"primaryKey;autoIncrement:false"`
	PriceLevel      string          `gorm:"size:64;not null;default:'BASE'"`
	DiscountPercent decimal.Decimal `gorm:"type:numeric(6,3);not null;default:0"`
	TaxExempt       bool            `gorm:"not null;default:false"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

func (ClientRule) TableName() string { return "client_pricing_rules" }
