package offer

import (
	"github.com/smallbiznis/offerdesk/internal/offer/repository"
	"github.com/smallbiznis/offerdesk/internal/offer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("offer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
