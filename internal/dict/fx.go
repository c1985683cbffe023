package dict

import (
	"context"
	"time"

	"github.com/smallbiznis/offerdesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("dict",
	fx.Provide(NewViperSourceFromConfig),
	fx.Provide(func() Translator { return IdentityTranslator{} }),
	fx.Provide(NewCatalogFromSource),
	fx.Invoke(registerHooks),
)

func NewViperSourceFromConfig(log *zap.Logger, cfg config.Config) *ViperSource {
	return NewViperSource(log, cfg.Dict.File, cfg.Dict.Paths)
}

func NewCatalogFromSource(log *zap.Logger, source *ViperSource, translator Translator) *Catalog {
	return NewCatalog(log, source, translator)
}

func registerHooks(lc fx.Lifecycle, log *zap.Logger, cfg config.Config, catalog *Catalog, source *ViperSource) {
	var stop context.CancelFunc

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// A cold catalog still resolves codes to themselves.
			if err := catalog.Refresh(ctx); err != nil {
				log.Warn("status dictionary unavailable at startup", zap.Error(err))
			}
			source.Watch(catalog.Store)

			if cfg.Dict.RefreshSecond > 0 {
				var runCtx context.Context
				runCtx, stop = context.WithCancel(context.Background())
				go refreshLoop(runCtx, catalog, time.Duration(cfg.Dict.RefreshSecond)*time.Second)
			}
			return nil
		},
		OnStop: func(context.Context) error {
			if stop != nil {
				stop()
			}
			return nil
		},
	})
}

func refreshLoop(ctx context.Context, catalog *Catalog, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = catalog.Refresh(ctx)
		}
	}
}
