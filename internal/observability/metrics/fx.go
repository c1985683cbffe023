package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/offerdesk/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("metrics",
	fx.Provide(
		provideConfig,
		func() prometheus.Registerer { return prometheus.DefaultRegisterer },
		func() prometheus.Gatherer { return prometheus.DefaultGatherer },
		NewOfferMetrics,
		NewHTTPMetrics,
	),
)

func provideConfig(cfg config.Config) Config {
	return Config{
		ServiceName: cfg.AppName,
		Environment: cfg.Environment,
	}
}
