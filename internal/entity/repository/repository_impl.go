package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/offerdesk/internal/entity/domain"
	"github.com/smallbiznis/offerdesk/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	store repository.Repository[domain.Entity]
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{store: repository.ProvideStore[domain.Entity](db)}
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Entity, error) {
	return r.store.FindOne(ctx, &domain.Entity{ID: id})
}

// ReferenceLookup exposes an entity's CptRef to the reference assigner.
type ReferenceLookup struct {
	repo domain.Repository
}

func NewReferenceLookup(repo domain.Repository) *ReferenceLookup {
	return &ReferenceLookup{repo: repo}
}

func (l *ReferenceLookup) ReferenceCode(ctx context.Context, entityID string) (string, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(entityID))
	if err != nil || id == 0 {
		return "", domain.ErrInvalidEntityID
	}
	entity, err := l.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if entity == nil {
		return "", domain.ErrEntityNotFound
	}
	return strings.TrimSpace(entity.CptRef), nil
}
