package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/offerdesk/internal/clock"
	"github.com/smallbiznis/offerdesk/internal/config"
	"github.com/smallbiznis/offerdesk/internal/dict"
	"github.com/smallbiznis/offerdesk/internal/entity"
	"github.com/smallbiznis/offerdesk/internal/logger"
	"github.com/smallbiznis/offerdesk/internal/migration"
	"github.com/smallbiznis/offerdesk/internal/observability/metrics"
	"github.com/smallbiznis/offerdesk/internal/offer"
	"github.com/smallbiznis/offerdesk/internal/pricing"
	"github.com/smallbiznis/offerdesk/internal/sequence"
	"github.com/smallbiznis/offerdesk/internal/server"
	"github.com/smallbiznis/offerdesk/internal/tax"
	"github.com/smallbiznis/offerdesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		logger.Module,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		metrics.Module,
		migration.Module,

		// Functional Domains
		pricing.Module,
		entity.Module,
		sequence.Module,
		dict.Module,
		tax.Module,
		offer.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
