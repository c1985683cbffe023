package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/offerdesk/internal/config"
	"github.com/smallbiznis/offerdesk/internal/dict"
	obsmetrics "github.com/smallbiznis/offerdesk/internal/observability/metrics"
	offerdomain "github.com/smallbiznis/offerdesk/internal/offer/domain"
	taxdomain "github.com/smallbiznis/offerdesk/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics, gatherer prometheus.Gatherer) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestContext())
	r.Use(RequestLogger(!cfg.IsProduction()))
	r.Use(Metrics(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, s *Server) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine   *gin.Engine
	cfg      config.Config
	db       *gorm.DB
	offerSvc offerdomain.Service
	taxSvc   taxdomain.Service
	catalog  *dict.Catalog
}

type ServerParams struct {
	fx.In

	Gin      *gin.Engine
	Cfg      config.Config
	DB       *gorm.DB `optional:"true"`
	OfferSvc offerdomain.Service
	TaxSvc   taxdomain.Service
	Catalog  *dict.Catalog
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:   p.Gin,
		cfg:      p.Cfg,
		db:       p.DB,
		offerSvc: p.OfferSvc,
		taxSvc:   p.TaxSvc,
		catalog:  p.Catalog,
	}

	svc.registerHealthRoutes()
	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerHealthRoutes() {
	s.engine.GET("/health", s.Health)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(Actor())

	// -------- Offers --------
	api.POST("/offers", s.CreateOffer)
	api.GET("/offers", s.ListOffers)
	api.GET("/offers/:id", s.GetOfferByID)
	api.PATCH("/offers/:id", s.UpdateOffer)
	api.POST("/offers/:id/status", s.ChangeOfferStatus)

	// -------- Offer statuses --------
	api.GET("/offer-statuses", s.ListOfferStatuses)
	api.POST("/offer-statuses/refresh", s.RefreshOfferStatuses)

	// -------- Taxes --------
	api.POST("/taxes", s.CreateTax)
	api.GET("/taxes", s.ListTaxes)
	api.PATCH("/taxes/:id", s.UpdateTax)
	api.POST("/taxes/:id/disable", s.DisableTax)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}

func (s *Server) Health(c *gin.Context) {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"dictionary_warm": s.catalog != nil && s.catalog.Loaded(),
	})
}
