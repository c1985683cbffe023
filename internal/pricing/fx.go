package pricing

import (
	"github.com/smallbiznis/offerdesk/internal/pricing/repository"
	"github.com/smallbiznis/offerdesk/internal/pricing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pricing.service",
	fx.Provide(repository.NewClientRuleRepository),
	fx.Provide(service.NewCalculator),
)
