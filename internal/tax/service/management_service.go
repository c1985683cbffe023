package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/offerdesk/internal/tax/domain"
	pkgdb "github.com/smallbiznis/offerdesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParams struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  taxdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  taxdomain.Repository
}

func NewService(p ServiceParams) taxdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("tax.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) List(ctx context.Context, req taxdomain.ListRequest) ([]taxdomain.Response, error) {
	filter := taxdomain.ListRequest{
		Code:     strings.ToUpper(strings.TrimSpace(req.Code)),
		Country:  strings.ToUpper(strings.TrimSpace(req.Country)),
		IsActive: req.IsActive,
		SortBy:   strings.TrimSpace(req.SortBy),
		OrderBy:  strings.TrimSpace(req.OrderBy),
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]taxdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Create(ctx context.Context, req taxdomain.CreateRequest) (*taxdomain.Response, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, taxdomain.ErrInvalidTaxCode
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := time.Now().UTC()
	record := &taxdomain.Tax{
		ID:          s.genID.Generate(),
		Code:        code,
		Langs:       normalizeLangs(req.Langs),
		Rate:        decimalOrZero(req.Rate),
		Value:       decimalOrZero(req.Value),
		Sequence:    req.Sequence,
		Country:     normalizeCountry(req.Country),
		IsDefault:   req.IsDefault,
		IsActive:    isActive,
		SellAccount: trimmedPtr(req.SellAccount),
		BuyAccount:  trimmedPtr(req.BuyAccount),
		IsOnPaid:    req.IsOnPaid,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		if existing != nil {
			return taxdomain.ErrDuplicateCode
		}
		if err := s.repo.Create(ctx, tx, record); err != nil {
			if pkgdb.IsDuplicateKeyErr(err) {
				return taxdomain.ErrDuplicateCode
			}
			return err
		}
		if record.IsDefault {
			return s.repo.ClearDefault(ctx, tx, record.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("tax created", zap.String("code", record.Code), zap.String("rate", record.Rate.String()))
	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req taxdomain.UpdateRequest) (*taxdomain.Response, error) {
	taxID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, taxdomain.ErrInvalidID
	}

	var item *taxdomain.Tax
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.repo.FindByID(ctx, tx, taxID)
		if err != nil {
			return err
		}
		if found == nil {
			return taxdomain.ErrNotFound
		}
		item = found

		if req.Langs != nil {
			item.Langs = normalizeLangs(req.Langs)
		}
		if req.Rate != nil {
			item.Rate = *req.Rate
		}
		if req.Value != nil {
			item.Value = *req.Value
		}
		if req.Sequence != nil {
			item.Sequence = *req.Sequence
		}
		if req.Country != nil {
			item.Country = normalizeCountry(*req.Country)
		}
		if req.IsDefault != nil {
			item.IsDefault = *req.IsDefault
		}
		if req.SellAccount != nil {
			item.SellAccount = trimmedPtr(req.SellAccount)
		}
		if req.BuyAccount != nil {
			item.BuyAccount = trimmedPtr(req.BuyAccount)
		}
		if req.IsOnPaid != nil {
			item.IsOnPaid = *req.IsOnPaid
		}

		item.UpdatedAt = time.Now().UTC()
		if err := item.Validate(); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, item); err != nil {
			return err
		}
		if item.IsDefault {
			return s.repo.ClearDefault(ctx, tx, item.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Disable(ctx context.Context, id string) (*taxdomain.Response, error) {
	taxID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, taxdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, taxID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, taxdomain.ErrNotFound
	}

	item.IsActive = false
	item.IsDefault = false
	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	resp := toResponse(item)
	return &resp, nil
}

// DefaultRate returns the rate of the active default tax, or FallbackRate.
func (s *Service) DefaultRate(ctx context.Context) (decimal.Decimal, error) {
	def, err := s.repo.FindDefault(ctx, s.db)
	if err != nil {
		return decimal.Zero, err
	}
	if def == nil {
		return taxdomain.FallbackRate, nil
	}
	return def.Rate, nil
}

func toResponse(t *taxdomain.Tax) taxdomain.Response {
	langs := []taxdomain.Lang(t.Langs)
	if langs == nil {
		langs = []taxdomain.Lang{}
	}
	return taxdomain.Response{
		ID:          t.ID.String(),
		Code:        t.Code,
		Name:        t.Name(),
		Langs:       langs,
		Rate:        t.Rate,
		Value:       t.Value,
		Sequence:    t.Sequence,
		Country:     t.Country,
		IsDefault:   t.IsDefault,
		IsActive:    t.IsActive,
		SellAccount: t.SellAccount,
		BuyAccount:  t.BuyAccount,
		IsOnPaid:    t.IsOnPaid,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func normalizeLangs(in []taxdomain.Lang) datatypes.JSONSlice[taxdomain.Lang] {
	out := make(datatypes.JSONSlice[taxdomain.Lang], 0, len(in))
	for _, l := range in {
		out = append(out, taxdomain.Lang{
			Name:  strings.TrimSpace(l.Name),
			Label: strings.TrimSpace(l.Label),
		})
	}
	return out
}

func normalizeCountry(value string) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return taxdomain.DefaultCountry
	}
	return value
}

func decimalOrZero(value *decimal.Decimal) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return *value
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
