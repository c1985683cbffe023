package metrics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	pricingdomain "github.com/smallbiznis/offerdesk/internal/pricing/domain"
	sequencedomain "github.com/smallbiznis/offerdesk/internal/sequence/domain"
	pkgdb "github.com/smallbiznis/offerdesk/pkg/db"
)

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

const (
	ReasonInvalidInput     = "invalid_input"
	ReasonPricingLookup    = "pricing_lookup"
	ReasonSequence         = "sequence"
	ReasonUniqueViolation  = "unique_violation"
	ReasonDeadlineExceeded = "deadline_exceeded"
	ReasonUnknown          = "unknown"
)

// Config carries the constant labels attached to every series.
type Config struct {
	ServiceName string
	Environment string
}

// OfferMetrics tracks the offer save pipeline.
type OfferMetrics struct {
	saves        *prometheus.CounterVec
	saveErrors   *prometheus.CounterVec
	saveDuration *prometheus.HistogramVec
	references   prometheus.Counter
	statusChange *prometheus.CounterVec
}

func NewOfferMetrics(registerer prometheus.Registerer, cfg Config) *OfferMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := labels(cfg)

	m := &OfferMetrics{
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "offerdesk_offer_saves_total",
			Help:        "Offer saves by mode and result.",
			ConstLabels: constLabels,
		}, []string{"mode", "result"}),
		saveErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "offerdesk_offer_save_errors_total",
			Help:        "Failed offer saves by low-cardinality reason.",
			ConstLabels: constLabels,
		}, []string{"mode", "reason"}),
		saveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "offerdesk_offer_save_duration_seconds",
			Help:        "Offer save pipeline latency.",
			Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			ConstLabels: constLabels,
		}, []string{"mode"}),
		references: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "offerdesk_offer_references_issued_total",
			Help:        "References drawn from the offer sequence.",
			ConstLabels: constLabels,
		}),
		statusChange: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "offerdesk_offer_status_transitions_total",
			Help:        "Offer status transitions.",
			ConstLabels: constLabels,
		}, []string{"from", "to"}),
	}

	registerer.MustRegister(m.saves, m.saveErrors, m.saveDuration, m.references, m.statusChange)
	return m
}

func (m *OfferMetrics) ObserveSave(mode string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.saveDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if err != nil {
		m.saves.WithLabelValues(mode, ResultError).Inc()
		m.saveErrors.WithLabelValues(mode, ClassifyError(err)).Inc()
		return
	}
	m.saves.WithLabelValues(mode, ResultSuccess).Inc()
}

func (m *OfferMetrics) IncReferenceIssued() {
	if m == nil {
		return
	}
	m.references.Inc()
}

func (m *OfferMetrics) IncStatusTransition(from, to string) {
	if m == nil {
		return
	}
	m.statusChange.WithLabelValues(from, to).Inc()
}

// ClassifyError maps a save failure to a bounded reason label.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonDeadlineExceeded
	case errors.Is(err, sequencedomain.ErrSequenceServiceFailed):
		return ReasonSequence
	case errors.Is(err, pricingdomain.ErrPricingLookupFailed):
		return ReasonPricingLookup
	case errors.Is(err, pricingdomain.ErrInvalidInput):
		return ReasonInvalidInput
	case pkgdb.IsDuplicateKeyErr(err):
		return ReasonUniqueViolation
	default:
		return ReasonUnknown
	}
}

// HTTPMetrics records request counts and latency per route.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewHTTPMetrics(registerer prometheus.Registerer, cfg Config) *HTTPMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := labels(cfg)

	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "offerdesk_http_requests_total",
			Help:        "HTTP requests by route, method and status code.",
			ConstLabels: constLabels,
		}, []string{"route", "method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "offerdesk_http_request_duration_seconds",
			Help:        "HTTP request latency by route and method.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"route", "method"}),
	}
	registerer.MustRegister(m.requests, m.latency)
	return m
}

func (m *HTTPMetrics) Observe(route, method, code string, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, method, code).Inc()
	m.latency.WithLabelValues(route, method).Observe(duration.Seconds())
}

func labels(cfg Config) prometheus.Labels {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "offerdesk"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	return prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}
}
