package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/offerdesk/internal/config"
	"github.com/smallbiznis/offerdesk/internal/sequence/domain"
	"github.com/smallbiznis/offerdesk/internal/sequence/format"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Config  config.Config
	Counter domain.Counter
	Lookup  domain.ReferenceCodeLookup `optional:"true"`
}

type Service struct {
	log          *zap.Logger
	counter      domain.Counter
	lookup       domain.ReferenceCodeLookup
	prefix       string
	template     string
	entityPrefix bool
}

func New(p Params) domain.Assigner {
	prefix := strings.TrimSpace(p.Config.Offer.RefPrefix)
	if prefix == "" {
		prefix = domain.OfferSequence
	}
	template := strings.TrimSpace(p.Config.Offer.RefTemplate)
	if template == "" {
		template = format.DefaultReferenceTemplate
	}
	return &Service{
		log:          p.Log.Named("sequence.service"),
		counter:      p.Counter,
		lookup:       p.Lookup,
		prefix:       prefix,
		template:     template,
		entityPrefix: p.Config.Offer.RefEntityPrefix,
	}
}

// Assign draws the next offer number and renders it as a reference.
func (s *Service) Assign(ctx context.Context, tx *gorm.DB, entityID string, createdAt time.Time) (string, error) {
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	createdAt = createdAt.UTC()

	seq, err := s.counter.Next(ctx, tx, domain.OfferSequence)
	if err != nil {
		s.log.Error("sequence increment failed", zap.String("sequence", domain.OfferSequence), zap.Error(err))
		return "", fmt.Errorf("%w: %w", domain.ErrSequenceServiceFailed, err)
	}

	prefix := s.prefix
	if code := s.entityCode(ctx, entityID); code != "" && s.entityPrefix {
		prefix += code
	}

	ref, err := format.FormatReference(s.template, prefix, createdAt, seq)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidTemplate, err)
	}

	s.log.Debug("reference assigned",
		zap.String("ref", ref),
		zap.Int64("seq", seq),
		zap.String("entity_id", entityID),
	)
	return ref, nil
}

func (s *Service) Refresh(ref string, createdAt time.Time) string {
	return format.RefreshReference(ref, createdAt)
}

func (s *Service) entityCode(ctx context.Context, entityID string) string {
	entityID = strings.TrimSpace(entityID)
	if entityID == "" || s.lookup == nil {
		return ""
	}
	code, err := s.lookup.ReferenceCode(ctx, entityID)
	if err != nil {
		s.log.Warn("entity reference code lookup failed", zap.String("entity_id", entityID), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(code)
}
