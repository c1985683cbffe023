package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/offerdesk/internal/sequence/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "sequence.db") + "?_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&domain.Sequence{}))
	return db
}

func TestGormCounterIncrements(t *testing.T) {
	db := openTestDB(t)
	counter := NewGormCounter(db)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := counter.Next(ctx, nil, domain.OfferSequence)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	other, err := counter.Next(ctx, nil, "OTHER")
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)

	var stored domain.Sequence
	require.NoError(t, db.First(&stored, "name = ?", domain.OfferSequence).Error)
	assert.Equal(t, int64(3), stored.Value)
}

func TestGormCounterConcurrentValuesAreUnique(t *testing.T) {
	db := openTestDB(t)
	counter := NewGormCounter(db)

	const workers = 8
	const perWorker = 10

	var (
		mu   sync.Mutex
		seen = make(map[int64]struct{})
		wg   sync.WaitGroup
	)
	errs := make(chan error, workers*perWorker)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				v, err := counter.Next(context.Background(), nil, domain.OfferSequence)
				if err != nil {
					errs <- err
					return
				}
				mu.Lock()
				seen[v] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Len(t, seen, workers*perWorker)
	for v := int64(1); v <= workers*perWorker; v++ {
		assert.Contains(t, seen, v)
	}
}

func TestGormCounterRollsBackWithTransaction(t *testing.T) {
	db := openTestDB(t)
	counter := NewGormCounter(db)
	ctx := context.Background()

	first, err := counter.Next(ctx, nil, domain.OfferSequence)
	require.NoError(t, err)
	require.Equal(t, int64(1), first)

	tx := db.Begin()
	inTx, err := counter.Next(ctx, tx, domain.OfferSequence)
	require.NoError(t, err)
	assert.Equal(t, int64(2), inTx)
	require.NoError(t, tx.Rollback().Error)

	next, err := counter.Next(ctx, nil, domain.OfferSequence)
	require.NoError(t, err)
	assert.Equal(t, int64(2), next)
}

func TestGormCounterRejectsEmptyName(t *testing.T) {
	counter := NewGormCounter(openTestDB(t))

	_, err := counter.Next(context.Background(), nil, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidSequenceName)
}

func TestRedisCounterIncrements(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	counter := NewRedisCounter(client)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := counter.Next(ctx, nil, domain.OfferSequence)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	raw, err := srv.Get("sequence:PC")
	require.NoError(t, err)
	assert.Equal(t, "3", raw)
}

func TestRedisCounterPropagatesFailure(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	srv.Close()

	_, err := NewRedisCounter(client).Next(context.Background(), nil, domain.OfferSequence)
	assert.Error(t, err)
}

func TestUpsertForDialect(t *testing.T) {
	for _, dialect := range []string{"postgres", "sqlite"} {
		stmt := upsertFor(dialect)
		assert.Contains(t, stmt.statement, "ON CONFLICT (name)", dialect)
		assert.Contains(t, stmt.statement, "RETURNING value", dialect)
		assert.Empty(t, stmt.lastValue, dialect)
	}

	stmt := upsertFor("mysql")
	assert.Contains(t, stmt.statement, "ON DUPLICATE KEY UPDATE value = LAST_INSERT_ID(value + 1)")
	assert.NotContains(t, stmt.statement, "RETURNING")
	assert.NotContains(t, stmt.statement, "ON CONFLICT")
	assert.Equal(t, "SELECT LAST_INSERT_ID()", stmt.lastValue)
}
