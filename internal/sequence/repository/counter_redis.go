package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/offerdesk/internal/sequence/domain"
	"gorm.io/gorm"
)

const keySequence = "sequence:%s"

// RedisCounter keeps counters in redis. Values issued to a save that later
// rolls back are not returned, so references may have gaps.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Next(ctx context.Context, _ *gorm.DB, name string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, errors.New("sequence redis client not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.ErrInvalidSequenceName
	}
	return c.client.Incr(ctx, fmt.Sprintf(keySequence, name)).Result()
}
