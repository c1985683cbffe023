package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/smallbiznis/offerdesk/internal/sequence/domain"
	"gorm.io/gorm"
)

const (
	upsertReturningSQL = `INSERT INTO sequences (name, value, updated_at)
VALUES (?, 1, ?)
ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1, updated_at = excluded.updated_at
RETURNING value`

	mysqlUpsertSQL = `INSERT INTO sequences (name, value, updated_at)
VALUES (?, LAST_INSERT_ID(1), ?)
ON DUPLICATE KEY UPDATE value = LAST_INSERT_ID(value + 1), updated_at = VALUES(updated_at)`

	mysqlLastValueSQL = `SELECT LAST_INSERT_ID()`
)

// upsert is the increment statement for one dialect. When lastValue is set
// the new value is read with it on the same connection.
type upsert struct {
	statement string
	lastValue string
}

func upsertFor(dialect string) upsert {
	switch strings.ToLower(dialect) {
	case "mysql":
		return upsert{statement: mysqlUpsertSQL, lastValue: mysqlLastValueSQL}
	default:
		return upsert{statement: upsertReturningSQL}
	}
}

// GormCounter keeps counters in the sequences table. The increment is a
// single upsert so concurrent callers never observe the same value.
type GormCounter struct {
	db *gorm.DB
}

func NewGormCounter(db *gorm.DB) *GormCounter {
	return &GormCounter{db: db}
}

func (c *GormCounter) Next(ctx context.Context, tx *gorm.DB, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.ErrInvalidSequenceName
	}
	if tx == nil {
		tx = c.db
	}
	if tx == nil {
		return 0, errors.New("sequence database not configured")
	}

	conn := tx.WithContext(ctx)
	stmt := upsertFor(conn.Dialector.Name())
	now := time.Now().UTC()

	var value int64
	var err error
	if stmt.lastValue == "" {
		err = conn.Raw(stmt.statement, name, now).Scan(&value).Error
	} else {
		// LAST_INSERT_ID is per connection; the transaction pins one.
		err = conn.Transaction(func(pinned *gorm.DB) error {
			if err := pinned.Exec(stmt.statement, name, now).Error; err != nil {
				return err
			}
			return pinned.Raw(stmt.lastValue).Scan(&value).Error
		})
	}
	if err != nil {
		return 0, err
	}
	if value <= 0 {
		return 0, errors.New("sequence upsert returned no value")
	}
	return value, nil
}
