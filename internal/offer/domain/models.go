package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	pricingdomain "github.com/smallbiznis/offerdesk/internal/pricing/domain"
	"gorm.io/datatypes"
)

const (
	DefaultCondReglementCode = "RECEP"
	DefaultModeReglementCode = "TIP"
	DefaultType              = "SRC_COMM"
	DefaultPriceLevel        = "BASE"
	DefaultDeliveryMode      = "Comptoir"
	DefaultLineGroup         = "GLOBAL"
)

// History modes.
const (
	HistoryModeNew    = "new"
	HistoryModeUpdate = "update"
	HistoryModeStatus = "status"
)

// Note is a free-form remark attached to an offer.
type Note struct {
	Title  string `json:"title"`
	Note   string `json:"note"`
	Public bool   `json:"public"`
	Edit   bool   `json:"edit"`
}

// BillingAddress overrides the client's billing details.
type BillingAddress struct {
	CompanyID   string `json:"company_id,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Contact     string `json:"contact,omitempty"`
	Address     string `json:"address,omitempty"`
	Zip         string `json:"zip,omitempty"`
	Town        string `json:"town,omitempty"`
	Country     string `json:"country,omitempty"`
}

// Offer is a sales quote.
type Offer struct {
	ID  snowflake.ID `gorm:"primaryKey" json:"id"`
	Ref string       `gorm:"size:64;uniqueIndex:idx_offers_ref" json:"ref"`

	Title              string `gorm:"type:text" json:"title"`
	TitleAutoGenerated bool   `gorm:"not null;default:false" json:"title_auto_generated"`

	Status            Status `gorm:"size:64;not null;default:'DRAFT';index" json:"status"`
	CondReglementCode string `gorm:"size:64;not null;default:'RECEP'" json:"cond_reglement_code"`
	ModeReglementCode string `gorm:"size:64;not null;default:'TIP'" json:"mode_reglement_code"`
	Type              string `gorm:"size:64;not null;default:'SRC_COMM'" json:"type"`

	ClientID           snowflake.ID `gorm:"not null;index" json:"client_id"`
	ClientName         string       `gorm:"type:text" json:"client_name"`
	ClientNameModified bool         `gorm:"not null;default:false" json:"client_name_modified"`
	RefClient          string       `gorm:"size:64;not null;default:''" json:"ref_client"`

	Datec         time.Time  `gorm:"not null" json:"datec"`
	DateLivraison *time.Time `json:"date_livraison,omitempty"`

	Notes   datatypes.JSONSlice[Note]          `json:"notes"`
	Billing datatypes.JSONType[BillingAddress] `json:"billing"`

	TotalHT  decimal.Decimal              `gorm:"type:numeric(18,2);not null;default:0" json:"total_ht"`
	TotalTTC decimal.Decimal              `gorm:"type:numeric(18,2);not null;default:0" json:"total_ttc"`
	Weight   decimal.Decimal              `gorm:"type:numeric(18,4);not null;default:0" json:"weight"`
	Shipping pricingdomain.ShippingCharge `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping"`
	Discount pricingdomain.Discount       `gorm:"embedded;embeddedPrefix:discount_" json:"discount"`

	AuthorID       string `gorm:"type:text" json:"author_id"`
	AuthorName     string `gorm:"type:text" json:"author_name"`
	CommercialID   string `gorm:"type:text" json:"commercial_id"`
	CommercialName string `gorm:"type:text" json:"commercial_name"`
	EntityID       string `gorm:"size:64;index" json:"entity_id"`
	ModelPDF       string `gorm:"column:model_pdf;type:text" json:"model_pdf"`
	PriceLevel     string `gorm:"size:64;not null;default:'BASE'" json:"price_level"`
	DeliveryMode   string `gorm:"size:64;not null;default:'Comptoir'" json:"delivery_mode"`

	Lines     []Line         `gorm:"foreignKey:OfferID" json:"lines"`
	TaxTotals []TaxTotal     `gorm:"foreignKey:OfferID" json:"total_tva"`
	History   []HistoryEntry `gorm:"foreignKey:OfferID" json:"history"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Offer) TableName() string { return "offers" }

// Line is one priced row of an offer.
type Line struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	OfferID  snowflake.ID `gorm:"not null;index" json:"-"`
	Position int          `gorm:"not null" json:"position"`

	Group         string         `gorm:"column:line_group;size:64;not null;default:'GLOBAL'" json:"group"`
	Title         string         `gorm:"type:text" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	ProductType   string         `gorm:"type:text" json:"product_type"`
	ProductID     string         `gorm:"type:text" json:"product_id"`
	ProductName   string         `gorm:"type:text" json:"product_name"`
	ProductLabel  string         `gorm:"type:text" json:"product_label"`
	PriceSpecific bool           `gorm:"not null;default:false" json:"price_specific"`
	Optional      datatypes.JSON `json:"optional,omitempty"`

	pricingdomain.LineItem `gorm:"embedded"`
}

func (Line) TableName() string { return "offer_lines" }

// TaxTotal is the tax amount of one rate on an offer.
type TaxTotal struct {
	OfferID snowflake.ID    `gorm:"primaryKey;autoIncrement:false" json:"-"`
	TvaTx   decimal.Decimal `gorm:"primaryKey;type:numeric(6,3)" json:"tva_tx"`
	Total   decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total"`
}

func (TaxTotal) TableName() string { return "offer_tax_totals" }

// HistoryEntry records one change to an offer. Entries are never updated.
type HistoryEntry struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	OfferID    snowflake.ID `gorm:"not null;index" json:"-"`
	Date       time.Time    `gorm:"not null" json:"date"`
	AuthorID   string       `gorm:"type:text" json:"author_id"`
	AuthorName string       `gorm:"type:text" json:"author_name"`
	Mode       string       `gorm:"type:text;not null" json:"mode"`
	Status     Status       `gorm:"type:text" json:"status"`
	Msg        string       `gorm:"type:text" json:"msg"`
}

func (HistoryEntry) TableName() string { return "offer_history" }
