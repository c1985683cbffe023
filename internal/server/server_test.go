package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/offerdesk/internal/clock"
	"github.com/smallbiznis/offerdesk/internal/config"
	"github.com/smallbiznis/offerdesk/internal/dict"
	"github.com/smallbiznis/offerdesk/internal/observability/metrics"
	offerdomain "github.com/smallbiznis/offerdesk/internal/offer/domain"
	offerrepo "github.com/smallbiznis/offerdesk/internal/offer/repository"
	offerservice "github.com/smallbiznis/offerdesk/internal/offer/service"
	pricingdomain "github.com/smallbiznis/offerdesk/internal/pricing/domain"
	pricingservice "github.com/smallbiznis/offerdesk/internal/pricing/service"
	sequencedomain "github.com/smallbiznis/offerdesk/internal/sequence/domain"
	sequencerepo "github.com/smallbiznis/offerdesk/internal/sequence/repository"
	sequenceservice "github.com/smallbiznis/offerdesk/internal/sequence/service"
	taxdomain "github.com/smallbiznis/offerdesk/internal/tax/domain"
	taxrepo "github.com/smallbiznis/offerdesk/internal/tax/repository"
	taxservice "github.com/smallbiznis/offerdesk/internal/tax/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "server.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&offerdomain.Offer{},
		&offerdomain.Line{},
		&offerdomain.TaxTotal{},
		&offerdomain.HistoryEntry{},
		&sequencedomain.Sequence{},
		&pricingdomain.ClientRule{},
		&taxdomain.Tax{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	catalog := dict.NewCatalog(zap.NewNop(), nil, nil)
	catalog.Store(dict.DefaultOfferStatuses())

	taxSvc := taxservice.NewService(taxservice.ServiceParams{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  taxrepo.NewRepository(),
	})

	offerSvc := offerservice.New(offerservice.Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      clock.NewFakeClock(time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC)),
		Repo:       offerrepo.Provide(),
		Calculator: pricingservice.NewCalculator(pricingservice.CalculatorParams{Log: zap.NewNop()}),
		Assigner: sequenceservice.New(sequenceservice.Params{
			Log:     zap.NewNop(),
			Config:  config.Config{},
			Counter: sequencerepo.NewGormCounter(db),
		}),
		Catalog: catalog,
		Taxes:   taxSvc,
	})

	registry := prometheus.NewRegistry()
	cfg := config.Config{Environment: "test"}
	engine := NewEngine(cfg, metrics.NewHTTPMetrics(registry, metrics.Config{}), registry)

	return NewServer(ServerParams{
		Gin:      engine,
		Cfg:      cfg,
		DB:       db,
		OfferSvc: offerSvc,
		TaxSvc:   taxSvc,
		Catalog:  catalog,
	})
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderAuthorID, "u-1")
	req.Header.Set(HeaderAuthorName, "Alice")

	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

type offerEnvelope struct {
	Data offerdomain.Response `json:"data"`
}

type errorEnvelope struct {
	Error errorPayload `json:"error"`
}

func createOffer(t *testing.T, s *Server) offerdomain.Response {
	t.Helper()

	rec := doJSON(t, s, http.MethodPost, "/api/offers", map[string]any{
		"client_id": "42",
		"lines": []map[string]any{
			{"qty": "2", "pu_ht": "10", "tva_tx": "20"},
		},
		"shipping": map[string]any{"total_ht": "0", "tva_tx": "20"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env offerEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Data
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"dictionary_warm":true`)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
}

func TestRequestIDIsPropagated(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(HeaderRequestID))
}

func TestCreateOfferEndpoint(t *testing.T) {
	s := newTestServer(t)

	offer := createOffer(t, s)

	assert.Equal(t, "PC2610-000001", offer.Ref)
	assert.Equal(t, offerdomain.StatusDraft, offer.Status)
	assert.True(t, decimal.RequireFromString("20").Equal(offer.TotalHT))
	assert.True(t, decimal.RequireFromString("24").Equal(offer.TotalTTC))
	assert.Equal(t, "Draft", offer.StatusInfo.Name)
	assert.Equal(t, "label-default", offer.StatusInfo.CSS)
	require.Len(t, offer.History, 1)
	assert.Equal(t, "u-1", offer.History[0].AuthorID)
	assert.Equal(t, "Alice", offer.History[0].AuthorName)
}

func TestCreateOfferDuplicateRefIsConflict(t *testing.T) {
	s := newTestServer(t)

	offer := createOffer(t, s)
	require.Equal(t, "PC2610-000001", offer.Ref)

	rec := doJSON(t, s, http.MethodPost, "/api/offers", map[string]any{
		"ref":       "PC2401-000001",
		"client_id": "42",
		"lines":     []map[string]any{{"qty": "1", "pu_ht": "10", "tva_tx": "20"}},
		"shipping":  map[string]any{"total_ht": "0", "tva_tx": "20"},
	})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "conflict", env.Error.Type)
}

func TestCreateOfferValidation(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name string
		body any
		code string
	}{
		{name: "missing client", body: map[string]any{"lines": []any{}}, code: "invalid_client"},
		{name: "negative qty", body: map[string]any{
			"client_id": "42",
			"lines":     []map[string]any{{"qty": "-1", "pu_ht": "10", "tva_tx": "20"}},
		}, code: "invalid_line"},
		{name: "malformed body", body: "not an object", code: "invalid_request"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/api/offers", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var env errorEnvelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, "validation_error", env.Error.Type)
			require.Len(t, env.Error.Errors, 1)
			assert.Equal(t, tc.code, env.Error.Errors[0].Code)
		})
	}
}

func TestGetOfferEndpoint(t *testing.T) {
	s := newTestServer(t)
	created := createOffer(t, s)

	rec := doJSON(t, s, http.MethodGet, "/api/offers/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var env offerEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, created.ID, env.Data.ID)
	assert.Equal(t, created.Ref, env.Data.Ref)
	require.Len(t, env.Data.Lines, 1)

	rec = doJSON(t, s, http.MethodGet, "/api/offers/12345", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/offers/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateOfferEndpoint(t *testing.T) {
	s := newTestServer(t)
	created := createOffer(t, s)

	rec := doJSON(t, s, http.MethodPatch, "/api/offers/"+created.ID.String(), map[string]any{
		"lines": []map[string]any{
			{"qty": "3", "pu_ht": "10", "tva_tx": "20"},
		},
		"msg": "three units",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env offerEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, created.Ref, env.Data.Ref)
	assert.True(t, decimal.RequireFromString("36").Equal(env.Data.TotalTTC))
	require.Len(t, env.Data.History, 2)
	assert.Equal(t, offerdomain.HistoryModeUpdate, env.Data.History[1].Mode)
}

func TestChangeOfferStatusEndpoint(t *testing.T) {
	s := newTestServer(t)
	created := createOffer(t, s)

	rec := doJSON(t, s, http.MethodPost, "/api/offers/"+created.ID.String()+"/status", map[string]any{
		"status": "signed",
		"msg":    "customer agreed",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env offerEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, offerdomain.StatusSigned, env.Data.Status)
	assert.Equal(t, "label-success", env.Data.StatusInfo.CSS)

	rec = doJSON(t, s, http.MethodPost, "/api/offers/"+created.ID.String()+"/status", map[string]any{
		"status": "ARCHIVED",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOffersEndpoint(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 3; i++ {
		createOffer(t, s)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/offers?page_size=2", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var page offerdomain.ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Offers, 2)
	assert.True(t, page.HasMore)
	require.NotEmpty(t, page.NextPageToken)

	rec = doJSON(t, s, http.MethodGet, "/api/offers?page_size=2&page_token="+page.NextPageToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var next offerdomain.ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &next))
	require.Len(t, next.Offers, 1)
	assert.False(t, next.HasMore)

	rec = doJSON(t, s, http.MethodGet, "/api/offers?page_token=garbage", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/offers?client_id=x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOfferStatusesEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/offer-statuses", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data []dict.Status `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Len(t, env.Data, 6)

	// The test catalog has no source, so a refresh is unavailable.
	rec = doJSON(t, s, http.MethodPost, "/api/offer-statuses/refresh", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTaxEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/taxes", map[string]any{
		"code":       "tva20",
		"langs":      []map[string]any{{"name": "TVA 20%", "label": "TVA 20,0%"}},
		"rate":       "20",
		"is_default": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data taxdomain.Response `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "TVA20", created.Data.Code)
	assert.Equal(t, "TVA 20%", created.Data.Name)

	rec = doJSON(t, s, http.MethodPost, "/api/taxes", map[string]any{"code": "TVA20", "rate": "20"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/taxes", map[string]any{"code": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPatch, "/api/taxes/"+created.Data.ID, map[string]any{"rate": "19.6"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, s, http.MethodGet, "/api/taxes?is_active=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []taxdomain.Response `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.True(t, decimal.RequireFromString("19.6").Equal(list.Data[0].Rate))

	rec = doJSON(t, s, http.MethodGet, "/api/taxes?is_active=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/taxes/"+created.Data.ID+"/disable", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var disabled struct {
		Data taxdomain.Response `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &disabled))
	assert.False(t, disabled.Data.IsActive)
	assert.False(t, disabled.Data.IsDefault)
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
