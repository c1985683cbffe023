package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultRateResolver supplies the rate applied to shipping charges.
type DefaultRateResolver interface {
	DefaultRate(ctx context.Context) (decimal.Decimal, error)
}

type Service interface {
	DefaultRateResolver

	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Disable(ctx context.Context, id string) (*Response, error)
}

type ListRequest struct {
	Code     string `form:"code"`
	Country  string `form:"country"`
	IsActive *bool  `form:"is_active"`
	SortBy   string `form:"sort_by"`
	OrderBy  string `form:"order_by"`
}

type CreateRequest struct {
	Code        string           `json:"code"`
	Langs       []Lang           `json:"langs"`
	Rate        *decimal.Decimal `json:"rate"`
	Value       *decimal.Decimal `json:"value"`
	Sequence    int              `json:"sequence"`
	Country     string           `json:"country"`
	IsDefault   bool             `json:"is_default"`
	IsActive    *bool            `json:"is_active"`
	SellAccount *string          `json:"sell_account"`
	BuyAccount  *string          `json:"buy_account"`
	IsOnPaid    bool             `json:"is_on_paid"`
}

type UpdateRequest struct {
	ID          string           `json:"-"`
	Langs       []Lang           `json:"langs,omitempty"`
	Rate        *decimal.Decimal `json:"rate,omitempty"`
	Value       *decimal.Decimal `json:"value,omitempty"`
	Sequence    *int             `json:"sequence,omitempty"`
	Country     *string          `json:"country,omitempty"`
	IsDefault   *bool            `json:"is_default,omitempty"`
	SellAccount *string          `json:"sell_account,omitempty"`
	BuyAccount  *string          `json:"buy_account,omitempty"`
	IsOnPaid    *bool            `json:"is_on_paid,omitempty"`
}

type Response struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Langs       []Lang          `json:"langs"`
	Rate        decimal.Decimal `json:"rate"`
	Value       decimal.Decimal `json:"value"`
	Sequence    int             `json:"sequence"`
	Country     string          `json:"country"`
	IsDefault   bool            `json:"is_default"`
	IsActive    bool            `json:"is_active"`
	SellAccount *string         `json:"sell_account,omitempty"`
	BuyAccount  *string         `json:"buy_account,omitempty"`
	IsOnPaid    bool            `json:"is_on_paid"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
