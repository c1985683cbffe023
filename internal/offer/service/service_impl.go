package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/offerdesk/internal/actorcontext"
	"github.com/smallbiznis/offerdesk/internal/clock"
	"github.com/smallbiznis/offerdesk/internal/dict"
	"github.com/smallbiznis/offerdesk/internal/logger"
	"github.com/smallbiznis/offerdesk/internal/observability/metrics"
	offerdomain "github.com/smallbiznis/offerdesk/internal/offer/domain"
	pricingdomain "github.com/smallbiznis/offerdesk/internal/pricing/domain"
	sequencedomain "github.com/smallbiznis/offerdesk/internal/sequence/domain"
	taxdomain "github.com/smallbiznis/offerdesk/internal/tax/domain"
	"github.com/smallbiznis/offerdesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       offerdomain.Repository
	Calculator pricingdomain.Calculator
	Assigner   sequencedomain.Assigner
	Catalog    *dict.Catalog
	Taxes      taxdomain.DefaultRateResolver `optional:"true"`
	Metrics    *metrics.OfferMetrics         `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       offerdomain.Repository
	calculator pricingdomain.Calculator
	assigner   sequencedomain.Assigner
	catalog    *dict.Catalog
	taxes      taxdomain.DefaultRateResolver
	metrics    *metrics.OfferMetrics
}

func New(p Params) offerdomain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("offer.service"),
		genID:      p.GenID,
		clock:      clk,
		repo:       p.Repo,
		calculator: p.Calculator,
		assigner:   p.Assigner,
		catalog:    p.Catalog,
		taxes:      p.Taxes,
		metrics:    p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req offerdomain.CreateRequest) (*offerdomain.Response, error) {
	clientID, err := parseClientID(req.ClientID)
	if err != nil {
		return nil, err
	}

	status := offerdomain.StatusDraft
	if strings.TrimSpace(req.Status) != "" {
		status, err = offerdomain.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
	}

	lines, err := s.buildLines(req.Lines)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	datec := now
	if req.Datec != nil && !req.Datec.IsZero() {
		datec = req.Datec.UTC()
	}

	offer := &offerdomain.Offer{
		ID:                 s.genID.Generate(),
		Ref:                strings.TrimSpace(req.Ref),
		Title:              strings.TrimSpace(req.Title),
		TitleAutoGenerated: req.TitleAutoGenerated,
		Status:             status,
		CondReglementCode:  orDefault(req.CondReglementCode, offerdomain.DefaultCondReglementCode),
		ModeReglementCode:  orDefault(req.ModeReglementCode, offerdomain.DefaultModeReglementCode),
		Type:               orDefault(req.Type, offerdomain.DefaultType),
		ClientID:           clientID,
		ClientName:         strings.TrimSpace(req.ClientName),
		ClientNameModified: req.ClientNameModified,
		RefClient:          strings.TrimSpace(req.RefClient),
		Datec:              datec,
		DateLivraison:      utcPtr(req.DateLivraison),
		Notes:              datatypes.NewJSONSlice(notesOrEmpty(req.Notes)),
		Billing:            datatypes.NewJSONType(billingOrEmpty(req.Billing)),
		Shipping:           pricingdomain.ShippingCharge{TotalHT: req.Shipping.TotalHT},
		Discount:           req.Discount,
		CommercialID:       strings.TrimSpace(req.CommercialID),
		CommercialName:     strings.TrimSpace(req.CommercialName),
		EntityID:           strings.TrimSpace(req.EntityID),
		ModelPDF:           strings.TrimSpace(req.ModelPDF),
		PriceLevel:         normalizePriceLevel(req.PriceLevel),
		DeliveryMode:       orDefault(req.DeliveryMode, offerdomain.DefaultDeliveryMode),
		Lines:              lines,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if actor, ok := actorcontext.ActorFromContext(ctx); ok {
		offer.AuthorID = actor.ID
		offer.AuthorName = actor.Name
	}

	if req.Shipping.TvaTx != nil {
		offer.Shipping.TvaTx = *req.Shipping.TvaTx
	} else {
		offer.Shipping.TvaTx = s.defaultShippingRate(ctx)
	}

	if err := s.save(ctx, offer, true, offerdomain.HistoryModeNew, ""); err != nil {
		return nil, err
	}
	return s.toResponse(offer), nil
}

func (s *Service) Update(ctx context.Context, req offerdomain.UpdateRequest) (*offerdomain.Response, error) {
	offer, err := s.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		offer.Title = strings.TrimSpace(*req.Title)
	}
	if req.CondReglementCode != nil {
		offer.CondReglementCode = orDefault(*req.CondReglementCode, offerdomain.DefaultCondReglementCode)
	}
	if req.ModeReglementCode != nil {
		offer.ModeReglementCode = orDefault(*req.ModeReglementCode, offerdomain.DefaultModeReglementCode)
	}
	if req.ClientName != nil {
		offer.ClientName = strings.TrimSpace(*req.ClientName)
		offer.ClientNameModified = true
	}
	if req.RefClient != nil {
		offer.RefClient = strings.TrimSpace(*req.RefClient)
	}
	if req.Datec != nil && !req.Datec.IsZero() {
		offer.Datec = req.Datec.UTC()
	}
	if req.DateLivraison != nil {
		offer.DateLivraison = utcPtr(req.DateLivraison)
	}
	if req.Notes != nil {
		offer.Notes = datatypes.NewJSONSlice(req.Notes)
	}
	if req.Billing != nil {
		offer.Billing = datatypes.NewJSONType(*req.Billing)
	}
	if req.Shipping != nil {
		offer.Shipping.TotalHT = req.Shipping.TotalHT
		if req.Shipping.TvaTx != nil {
			offer.Shipping.TvaTx = *req.Shipping.TvaTx
		}
	}
	if req.Discount != nil {
		offer.Discount = *req.Discount
	}
	if req.CommercialID != nil {
		offer.CommercialID = strings.TrimSpace(*req.CommercialID)
	}
	if req.CommercialName != nil {
		offer.CommercialName = strings.TrimSpace(*req.CommercialName)
	}
	if req.ModelPDF != nil {
		offer.ModelPDF = strings.TrimSpace(*req.ModelPDF)
	}
	if req.PriceLevel != nil {
		offer.PriceLevel = normalizePriceLevel(*req.PriceLevel)
	}
	if req.DeliveryMode != nil {
		offer.DeliveryMode = orDefault(*req.DeliveryMode, offerdomain.DefaultDeliveryMode)
	}
	if req.Lines != nil {
		lines, err := s.buildLines(req.Lines)
		if err != nil {
			return nil, err
		}
		offer.Lines = lines
	}
	offer.UpdatedAt = s.clock.Now()

	if err := s.save(ctx, offer, false, offerdomain.HistoryModeUpdate, strings.TrimSpace(req.Msg)); err != nil {
		return nil, err
	}
	return s.toResponse(offer), nil
}

func (s *Service) ChangeStatus(ctx context.Context, req offerdomain.ChangeStatusRequest) (*offerdomain.Response, error) {
	status, err := offerdomain.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}
	offer, err := s.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	previous := offer.Status
	offer.Status = status
	offer.UpdatedAt = s.clock.Now()

	if err := s.save(ctx, offer, false, offerdomain.HistoryModeStatus, strings.TrimSpace(req.Msg)); err != nil {
		return nil, err
	}
	s.metrics.IncStatusTransition(previous.String(), status.String())
	return s.toResponse(offer), nil
}

func (s *Service) Get(ctx context.Context, id string) (*offerdomain.Response, error) {
	offer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(offer), nil
}

func (s *Service) List(ctx context.Context, req offerdomain.ListRequest) (offerdomain.ListResponse, error) {
	filter := offerdomain.ListFilter{Ref: strings.TrimSpace(req.Ref)}

	if strings.TrimSpace(req.Status) != "" {
		status, err := offerdomain.ParseStatus(req.Status)
		if err != nil {
			return offerdomain.ListResponse{}, err
		}
		filter.Status = status
	}
	if strings.TrimSpace(req.ClientID) != "" {
		clientID, err := parseClientID(req.ClientID)
		if err != nil {
			return offerdomain.ListResponse{}, err
		}
		filter.ClientID = clientID
	}
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return offerdomain.ListResponse{}, err
		}
		afterID, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return offerdomain.ListResponse{}, pagination.ErrInvalidPageToken
		}
		filter.AfterID = afterID
	}

	items, err := s.repo.List(ctx, s.db, filter, req.Pagination)
	if err != nil {
		return offerdomain.ListResponse{}, err
	}

	page, info := pagination.Page(items, req.Size(), func(o *offerdomain.Offer) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: o.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})

	resp := offerdomain.ListResponse{
		PageInfo: info,
		Offers:   make([]offerdomain.Response, 0, len(page)),
	}
	for _, item := range page {
		resp.Offers = append(resp.Offers, *s.toResponse(item))
	}
	return resp, nil
}

// save runs the offer pipeline: totals first, then reference assignment or
// refresh, persistence and one history entry, all in a single transaction.
func (s *Service) save(ctx context.Context, offer *offerdomain.Offer, isNew bool, mode, msg string) (err error) {
	start := time.Now()
	log := logger.WithContext(ctx, s.log).With(zap.String("offer_id", offer.ID.String()), zap.String("mode", mode))
	defer func() {
		s.metrics.ObserveSave(mode, time.Since(start), err)
	}()

	totals, err := s.calculator.Compute(ctx, lineItems(offer.Lines), offer.Shipping, offer.Discount, offer.ClientID)
	if err != nil {
		log.Warn("offer totals failed", zap.Error(err))
		return err
	}
	applyTotals(offer, totals)

	if isNew {
		offer.History = nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if isNew && offer.Ref == "" {
			ref, err := s.assigner.Assign(ctx, tx, offer.EntityID, offer.Datec)
			if err != nil {
				return err
			}
			offer.Ref = ref
			s.metrics.IncReferenceIssued()
		} else {
			offer.Ref = s.assigner.Refresh(offer.Ref, offer.Datec)
		}

		if isNew {
			if err := s.repo.Insert(ctx, tx, offer); err != nil {
				return err
			}
		} else {
			if err := s.repo.Update(ctx, tx, offer); err != nil {
				return err
			}
		}

		entry := s.historyEntry(ctx, offer, mode, msg)
		if err := s.repo.InsertHistory(ctx, tx, &entry); err != nil {
			return err
		}
		offer.History = append(offer.History, entry)
		return nil
	})
	if err != nil {
		log.Error("offer save failed", zap.Error(err))
		return err
	}

	log.Info("offer saved",
		zap.String("ref", offer.Ref),
		zap.String("status", offer.Status.String()),
		zap.String("total_ttc", offer.TotalTTC.String()),
	)
	return nil
}

func (s *Service) load(ctx context.Context, rawID string) (*offerdomain.Offer, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return nil, offerdomain.ErrInvalidID
	}
	offer, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, offerdomain.ErrNotFound
	}
	return offer, nil
}

func (s *Service) historyEntry(ctx context.Context, offer *offerdomain.Offer, mode, msg string) offerdomain.HistoryEntry {
	entry := offerdomain.HistoryEntry{
		ID:      s.genID.Generate(),
		OfferID: offer.ID,
		Date:    s.clock.Now(),
		Mode:    mode,
		Status:  offer.Status,
		Msg:     msg,
	}
	if actor, ok := actorcontext.ActorFromContext(ctx); ok {
		entry.AuthorID = actor.ID
		entry.AuthorName = actor.Name
	}
	return entry
}

func (s *Service) defaultShippingRate(ctx context.Context) decimal.Decimal {
	if s.taxes == nil {
		return taxdomain.FallbackRate
	}
	rate, err := s.taxes.DefaultRate(ctx)
	if err != nil {
		s.log.Warn("default tax lookup failed, using fallback rate", zap.Error(err))
		return taxdomain.FallbackRate
	}
	return rate
}

func (s *Service) buildLines(inputs []offerdomain.LineInput) ([]offerdomain.Line, error) {
	lines := make([]offerdomain.Line, 0, len(inputs))
	for i, in := range inputs {
		if in.Qty.IsNegative() || in.PuHT.IsNegative() {
			return nil, offerdomain.ErrInvalidLine
		}
		line := offerdomain.Line{
			ID:            s.genID.Generate(),
			Position:      i,
			Group:         normalizeGroup(in.Group),
			Title:         strings.TrimSpace(in.Title),
			Description:   in.Description,
			ProductType:   strings.TrimSpace(in.ProductType),
			ProductID:     strings.TrimSpace(in.ProductID),
			ProductName:   strings.TrimSpace(in.ProductName),
			ProductLabel:  strings.TrimSpace(in.ProductLabel),
			PriceSpecific: in.PriceSpecific,
			LineItem: pricingdomain.LineItem{
				Qty:        in.Qty,
				PuHT:       in.PuHT,
				TvaTx:      in.TvaTx,
				Discount:   in.Discount,
				UnitWeight: in.UnitWeight,
			},
		}
		if len(in.Optional) > 0 {
			line.Optional = datatypes.JSON(in.Optional)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *Service) toResponse(offer *offerdomain.Offer) *offerdomain.Response {
	resp := &offerdomain.Response{Offer: *offer}
	if resp.Lines == nil {
		resp.Lines = []offerdomain.Line{}
	}
	if resp.TaxTotals == nil {
		resp.TaxTotals = []offerdomain.TaxTotal{}
	}
	if s.catalog != nil {
		resp.StatusInfo = s.catalog.Resolve(offer.Status.String())
	} else {
		resp.StatusInfo = dict.Status{ID: offer.Status.String(), Name: offer.Status.String()}
	}
	return resp
}

func lineItems(lines []offerdomain.Line) []pricingdomain.LineItem {
	items := make([]pricingdomain.LineItem, len(lines))
	for i := range lines {
		items[i] = lines[i].LineItem
	}
	return items
}

func applyTotals(offer *offerdomain.Offer, totals pricingdomain.OrderTotals) {
	for i := range offer.Lines {
		offer.Lines[i].LineItem = totals.Lines[i]
	}
	offer.Shipping = totals.Shipping
	offer.TotalHT = totals.TotalHT
	offer.TotalTTC = totals.TotalTTC
	offer.Weight = totals.Weight

	offer.TaxTotals = make([]offerdomain.TaxTotal, 0, len(totals.TotalTVA))
	for _, bucket := range totals.TotalTVA {
		offer.TaxTotals = append(offer.TaxTotals, offerdomain.TaxTotal{
			OfferID: offer.ID,
			TvaTx:   bucket.TvaTx,
			Total:   bucket.Total,
		})
	}
}

func parseClientID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, offerdomain.ErrInvalidClient
	}
	return id, nil
}

func normalizePriceLevel(value string) string {
	return strings.ToUpper(orDefault(value, offerdomain.DefaultPriceLevel))
}

func normalizeGroup(value string) string {
	return strings.ToUpper(orDefault(value, offerdomain.DefaultLineGroup))
}

func orDefault(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.UTC()
	return &v
}

func notesOrEmpty(notes []offerdomain.Note) []offerdomain.Note {
	if notes == nil {
		return []offerdomain.Note{}
	}
	return notes
}

func billingOrEmpty(billing *offerdomain.BillingAddress) offerdomain.BillingAddress {
	if billing == nil {
		return offerdomain.BillingAddress{}
	}
	return *billing
}
