package exchange

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"currency-api/domain"
	"currency-api/rates"
)

// Metrics provides observability for conversions.
type Metrics struct {
	// Requests conversions by method and outcome
	Requests *prometheus.CounterVec

	// Latency conversion latency by method, store lookup included
	Latency *prometheus.HistogramVec
}

// NewMetrics creates the exchange metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "currency_exchange_requests_total",
			Help: "Total conversions by method and outcome",
		}, []string{"method", "outcome"}),

		Latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "currency_exchange_duration_seconds",
			Help:    "Duration of conversions including the rate lookup",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"method"}),
	}
}

// Observe records one call of method.
func (m *Metrics) Observe(method string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, outcome(err)).Inc()
	m.Latency.WithLabelValues(method).Observe(d.Seconds())
}

func outcome(err error) string {
	var unsupported *UnsupportedCurrencyError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &unsupported):
		return "unsupported_currency"
	case errors.Is(err, ErrInvalidConfiguration), errors.Is(err, domain.ErrInvalidAmount):
		return "invalid"
	case errors.Is(err, rates.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// instrumentingService decorates an exchange.Service with metrics
type instrumentingService struct {
	metrics *Metrics
	next    Service
}

// NewInstrumentingService returns a Service recording metrics for every call
func NewInstrumentingService(metrics *Metrics, s Service) Service {
	return &instrumentingService{
		metrics: metrics,
		next:    s,
	}
}

func (s *instrumentingService) Convert(ctx context.Context, from domain.Currency, to domain.CurrencyCode) (converted domain.Currency, err error) {
	defer func(begin time.Time) {
		s.metrics.Observe("convert", err, time.Since(begin))
	}(time.Now())
	return s.next.Convert(ctx, from, to)
}

func (s *instrumentingService) Rate(ctx context.Context, from domain.CurrencyCode, to domain.CurrencyCode) (rate domain.Rate, err error) {
	defer func(begin time.Time) {
		s.metrics.Observe("rate", err, time.Since(begin))
	}(time.Now())
	return s.next.Rate(ctx, from, to)
}
