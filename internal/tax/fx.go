package tax

import (
	"github.com/smallbiznis/offerdesk/internal/tax/domain"
	"github.com/smallbiznis/offerdesk/internal/tax/repository"
	"github.com/smallbiznis/offerdesk/internal/tax/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tax.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
	fx.Provide(func(s domain.Service) domain.DefaultRateResolver { return s }),
)
