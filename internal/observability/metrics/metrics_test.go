package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	pricingdomain "github.com/smallbiznis/offerdesk/internal/pricing/domain"
	sequencedomain "github.com/smallbiznis/offerdesk/internal/sequence/domain"
	"gorm.io/gorm"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: ReasonDeadlineExceeded},
		{name: "sequence", err: fmt.Errorf("%w: %w", sequencedomain.ErrSequenceServiceFailed, errors.New("down")), want: ReasonSequence},
		{name: "pricing", err: fmt.Errorf("%w: boom", pricingdomain.ErrPricingLookupFailed), want: ReasonPricingLookup},
		{name: "invalid", err: pricingdomain.ErrInvalidInput, want: ReasonInvalidInput},
		{name: "unique", err: gorm.ErrDuplicatedKey, want: ReasonUniqueViolation},
		{name: "unknown", err: errors.New("boom"), want: ReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyError(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestOfferMetricsObserveSave(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewOfferMetrics(registry, Config{ServiceName: "offerdesk", Environment: "test"})

	m.ObserveSave("new", 10*time.Millisecond, nil)
	m.ObserveSave("new", 10*time.Millisecond, sequencedomain.ErrSequenceServiceFailed)
	m.IncReferenceIssued()
	m.IncStatusTransition("DRAFT", "VALIDATED")

	if got := testutil.ToFloat64(m.saves.WithLabelValues("new", ResultSuccess)); got != 1 {
		t.Fatalf("expected 1 successful save, got %v", got)
	}
	if got := testutil.ToFloat64(m.saveErrors.WithLabelValues("new", ReasonSequence)); got != 1 {
		t.Fatalf("expected 1 sequence error, got %v", got)
	}
	if got := testutil.ToFloat64(m.references); got != 1 {
		t.Fatalf("expected 1 reference, got %v", got)
	}
	if got := testutil.ToFloat64(m.statusChange.WithLabelValues("DRAFT", "VALIDATED")); got != 1 {
		t.Fatalf("expected 1 transition, got %v", got)
	}
	if got := testutil.CollectAndCount(m.saveDuration); got != 1 {
		t.Fatalf("expected 1 duration series, got %d", got)
	}
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *OfferMetrics
	m.ObserveSave("new", time.Second, nil)
	m.IncReferenceIssued()

	var h *HTTPMetrics
	h.Observe("/health", "GET", "200", time.Millisecond)
}

func TestHTTPMetricsObserve(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewHTTPMetrics(registry, Config{})

	m.Observe("/api/offers", "POST", "201", 5*time.Millisecond)
	m.Observe("", "GET", "404", time.Millisecond)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("/api/offers", "POST", "201")); got != 1 {
		t.Fatalf("expected 1 request, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("unmatched", "GET", "404")); got != 1 {
		t.Fatalf("expected unmatched route, got %v", got)
	}
}
