package sequence

import (
	"context"
	"errors"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/offerdesk/internal/config"
	"github.com/smallbiznis/offerdesk/internal/sequence/domain"
	"github.com/smallbiznis/offerdesk/internal/sequence/repository"
	"github.com/smallbiznis/offerdesk/internal/sequence/service"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("sequence.service",
	fx.Provide(NewCounter),
	fx.Provide(service.New),
)

// NewCounter selects the counter backend from SEQUENCE_BACKEND.
func NewCounter(lc fx.Lifecycle, cfg config.Config, db *gorm.DB) (domain.Counter, error) {
	switch cfg.Sequence.Backend {
	case config.SequenceBackendRedis:
		addr := strings.TrimSpace(cfg.Sequence.RedisAddr)
		if addr == "" {
			return nil, errors.New("sequence redis addr is required")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: strings.TrimSpace(cfg.Sequence.RedisPassword),
			DB:       cfg.Sequence.RedisDB,
		})
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
		return repository.NewRedisCounter(client), nil
	default:
		return repository.NewGormCounter(db), nil
	}
}
