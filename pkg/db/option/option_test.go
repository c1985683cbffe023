package option

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type row struct {
	ID    int64 `gorm:"primaryKey"`
	Score int
}

func dryRun(t *testing.T, opts ...QueryOption) string {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		DryRun: true,
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	stmt := db.Model(&row{})
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}
	var out []row
	return stmt.Find(&out).Statement.SQL.String()
}

func TestApplyOperator(t *testing.T) {
	sql := dryRun(t, ApplyOperator(Condition{Field: "score", Operator: GTE, Value: 3}))
	assert.Contains(t, sql, "score >= ?")

	sql = dryRun(t, ApplyOperator(Condition{Field: "score", Operator: Operator("LIKE"), Value: "x"}))
	assert.NotContains(t, sql, "LIKE")

	sql = dryRun(t, ApplyOperator(Condition{Operator: EQ, Value: 1}))
	assert.NotContains(t, sql, "WHERE")
}

func TestWithSortByFallsBackToCreatedAt(t *testing.T) {
	sql := dryRun(t, WithSortBy(WithQuerySortBy("score", "asc", map[string]bool{"score": true})))
	assert.Contains(t, sql, "ORDER BY score ASC,id ASC")

	sql = dryRun(t, WithSortBy(WithQuerySortBy("password", "", map[string]bool{"score": true})))
	assert.Contains(t, sql, "ORDER BY created_at DESC,id DESC")
}

func TestWithLimit(t *testing.T) {
	assert.Contains(t, dryRun(t, WithLimit(5)), "LIMIT 5")
	assert.NotContains(t, dryRun(t, WithLimit(0)), "LIMIT")
}
