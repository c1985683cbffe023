package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/offerdesk/internal/dict"
	pricingdomain "github.com/smallbiznis/offerdesk/internal/pricing/domain"
	"github.com/smallbiznis/offerdesk/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	ChangeStatus(ctx context.Context, req ChangeStatusRequest) (*Response, error)
}

type LineInput struct {
	Group         string          `json:"group"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	ProductType   string          `json:"product_type"`
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	ProductLabel  string          `json:"product_label"`
	PriceSpecific bool            `json:"price_specific"`
	Optional      json.RawMessage `json:"optional,omitempty"`

	Qty        decimal.Decimal `json:"qty"`
	PuHT       decimal.Decimal `json:"pu_ht"`
	TvaTx      decimal.Decimal `json:"tva_tx"`
	Discount   decimal.Decimal `json:"discount"`
	UnitWeight decimal.Decimal `json:"unit_weight"`
}

type ShippingInput struct {
	TotalHT decimal.Decimal `json:"total_ht"`
	// TvaTx defaults to the default tax rate when omitted.
	TvaTx *decimal.Decimal `json:"tva_tx,omitempty"`
}

type CreateRequest struct {
	Ref                string                 `json:"ref"`
	Title              string                 `json:"title"`
	TitleAutoGenerated bool                   `json:"title_auto_generated"`
	Status             string                 `json:"status"`
	CondReglementCode  string                 `json:"cond_reglement_code"`
	ModeReglementCode  string                 `json:"mode_reglement_code"`
	Type               string                 `json:"type"`
	ClientID           string                 `json:"client_id"`
	ClientName         string                 `json:"client_name"`
	ClientNameModified bool                   `json:"client_name_modified"`
	RefClient          string                 `json:"ref_client"`
	Datec              *time.Time             `json:"datec"`
	DateLivraison      *time.Time             `json:"date_livraison"`
	Notes              []Note                 `json:"notes"`
	Billing            *BillingAddress        `json:"billing"`
	Shipping           ShippingInput          `json:"shipping"`
	Discount           pricingdomain.Discount `json:"discount"`
	CommercialID       string                 `json:"commercial_id"`
	CommercialName     string                 `json:"commercial_name"`
	EntityID           string                 `json:"entity_id"`
	ModelPDF           string                 `json:"model_pdf"`
	PriceLevel         string                 `json:"price_level"`
	DeliveryMode       string                 `json:"delivery_mode"`
	Lines              []LineInput            `json:"lines"`
}

// UpdateRequest replaces the editable parts of an offer. Nil fields are
// left unchanged; a non-nil Lines replaces every line.
type UpdateRequest struct {
	ID                string                  `json:"-"`
	Title             *string                 `json:"title,omitempty"`
	CondReglementCode *string                 `json:"cond_reglement_code,omitempty"`
	ModeReglementCode *string                 `json:"mode_reglement_code,omitempty"`
	ClientName        *string                 `json:"client_name,omitempty"`
	RefClient         *string                 `json:"ref_client,omitempty"`
	Datec             *time.Time              `json:"datec,omitempty"`
	DateLivraison     *time.Time              `json:"date_livraison,omitempty"`
	Notes             []Note                  `json:"notes,omitempty"`
	Billing           *BillingAddress         `json:"billing,omitempty"`
	Shipping          *ShippingInput          `json:"shipping,omitempty"`
	Discount          *pricingdomain.Discount `json:"discount,omitempty"`
	CommercialID      *string                 `json:"commercial_id,omitempty"`
	CommercialName    *string                 `json:"commercial_name,omitempty"`
	ModelPDF          *string                 `json:"model_pdf,omitempty"`
	PriceLevel        *string                 `json:"price_level,omitempty"`
	DeliveryMode      *string                 `json:"delivery_mode,omitempty"`
	Lines             []LineInput             `json:"lines,omitempty"`
	Msg               string                  `json:"msg,omitempty"`
}

type ChangeStatusRequest struct {
	ID     string `json:"-"`
	Status string `json:"status"`
	Msg    string `json:"msg"`
}

type ListRequest struct {
	pagination.Pagination
	Status   string `form:"status"`
	ClientID string `form:"client_id"`
	Ref      string `form:"ref"`
}

type ListResponse struct {
	pagination.PageInfo
	Offers []Response `json:"offers"`
}

// Response is an offer as served to clients. StatusInfo is the dictionary
// presentation of Status.
type Response struct {
	Offer
	StatusInfo dict.Status `json:"status_info"`
}
