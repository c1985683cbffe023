package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/offerdesk/internal/tax/domain"
	"github.com/smallbiznis/offerdesk/internal/tax/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (taxdomain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&taxdomain.Tax{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParams{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.NewRepository(),
	})
	return svc, db
}

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.Create(context.Background(), taxdomain.CreateRequest{
		Code:  " tva20 ",
		Langs: []taxdomain.Lang{{Name: "TVA 20%", Label: "TVA 20,0%"}},
		Rate:  dec("20"),
	})
	require.NoError(t, err)

	assert.Equal(t, "TVA20", resp.Code)
	assert.Equal(t, "TVA 20%", resp.Name)
	assert.Equal(t, "FR", resp.Country)
	assert.True(t, resp.IsActive)
	assert.False(t, resp.IsDefault)
	assert.True(t, resp.Value.IsZero())
	assert.True(t, decimal.NewFromInt(20).Equal(resp.Rate))
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, taxdomain.CreateRequest{Code: "  "})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidTaxCode)

	_, err = svc.Create(ctx, taxdomain.CreateRequest{Code: "NEG", Rate: dec("-1")})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidTaxRate)
}

func TestCreateDuplicateCode(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, taxdomain.CreateRequest{Code: "TVA10", Rate: dec("10")})
	require.NoError(t, err)

	_, err = svc.Create(ctx, taxdomain.CreateRequest{Code: "tva10", Rate: dec("10")})
	assert.ErrorIs(t, err, taxdomain.ErrDuplicateCode)
}

func TestNameWithoutLangs(t *testing.T) {
	tax := taxdomain.Tax{Code: "EXO"}
	assert.Equal(t, "", tax.Name())
}

func TestDefaultRate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rate, err := svc.DefaultRate(ctx)
	require.NoError(t, err)
	assert.True(t, taxdomain.FallbackRate.Equal(rate))

	_, err = svc.Create(ctx, taxdomain.CreateRequest{Code: "TVA55", Rate: dec("5.5"), IsDefault: true})
	require.NoError(t, err)

	rate, err = svc.DefaultRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "5.5", rate.String())

	second, err := svc.Create(ctx, taxdomain.CreateRequest{Code: "TVA10", Rate: dec("10"), IsDefault: true})
	require.NoError(t, err)

	rate, err = svc.DefaultRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10", rate.String())

	_, err = svc.Disable(ctx, second.ID)
	require.NoError(t, err)

	rate, err = svc.DefaultRate(ctx)
	require.NoError(t, err)
	assert.True(t, taxdomain.FallbackRate.Equal(rate))
}

func TestUpdateAndList(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, taxdomain.CreateRequest{Code: "TVA20", Rate: dec("20"), Sequence: 2})
	require.NoError(t, err)
	_, err = svc.Create(ctx, taxdomain.CreateRequest{Code: "TVA0", Sequence: 1})
	require.NoError(t, err)

	sell := " 445710 "
	seq := 0
	updated, err := svc.Update(ctx, taxdomain.UpdateRequest{
		ID:          created.ID,
		Langs:       []taxdomain.Lang{{Name: "Normal", Label: "TVA 20%"}},
		SellAccount: &sell,
		Sequence:    &seq,
	})
	require.NoError(t, err)
	assert.Equal(t, "Normal", updated.Name)
	require.NotNil(t, updated.SellAccount)
	assert.Equal(t, "445710", *updated.SellAccount)

	items, err := svc.List(ctx, taxdomain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "TVA20", items[0].Code)

	_, err = svc.Disable(ctx, items[1].ID)
	require.NoError(t, err)

	active := true
	items, err = svc.List(ctx, taxdomain.ListRequest{IsActive: &active})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "TVA20", items[0].Code)
}

func TestUpdateErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, taxdomain.UpdateRequest{ID: "abc"})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidID)

	_, err = svc.Update(ctx, taxdomain.UpdateRequest{ID: "12345"})
	assert.ErrorIs(t, err, taxdomain.ErrNotFound)

	_, err = svc.Disable(ctx, "12345")
	assert.ErrorIs(t, err, taxdomain.ErrNotFound)
}
