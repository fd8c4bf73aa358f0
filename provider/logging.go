package provider

import (
	"context"
	"time"

	"github.com/go-kit/log"

	"currency-api/domain"
)

// loggingProvider decorates a Provider with logging
type loggingProvider struct {
	next   Provider
	logger log.Logger
}

// NewLoggingProvider return a new logging provider
func NewLoggingProvider(logger log.Logger, p Provider) Provider {
	return &loggingProvider{
		next:   p,
		logger: logger,
	}
}

func (p *loggingProvider) Latest(ctx context.Context) (snapshot *domain.Snapshot, err error) {
	defer func(begin time.Time) {
		keyvals := []interface{}{"method", "latest"}
		if snapshot != nil {
			keyvals = append(keyvals, "base", snapshot.Base(), "timestamp", snapshot.Timestamp(), "rates", snapshot.Len())
		}
		p.logger.Log(append(keyvals, "took", time.Since(begin), "err", err)...)
	}(time.Now())
	return p.next.Latest(ctx)
}

func (p *loggingProvider) Currencies(ctx context.Context) (currencies []domain.CurrencyName, err error) {
	defer func(begin time.Time) {
		p.logger.Log(
			"method", "currencies",
			"count", len(currencies),
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.Currencies(ctx)
}
