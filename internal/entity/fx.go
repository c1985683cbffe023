package entity

import (
	"github.com/smallbiznis/offerdesk/internal/entity/repository"
	sequencedomain "github.com/smallbiznis/offerdesk/internal/sequence/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("entity.repository",
	fx.Provide(repository.Provide),
	fx.Provide(
		fx.Annotate(
			repository.NewReferenceLookup,
			fx.As(new(sequencedomain.ReferenceCodeLookup)),
		),
	),
)
