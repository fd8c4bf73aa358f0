package rates

import (
	"context"
	"time"

	"github.com/go-kit/log"

	"currency-api/domain"
)

// loggingStore decorates a Store with logging
type loggingStore struct {
	next   Store
	logger log.Logger
}

// NewLoggingStore returns a new logging Store
func NewLoggingStore(logger log.Logger, s Store) Store {
	return &loggingStore{
		next:   s,
		logger: logger,
	}
}

func (s *loggingStore) Latest(ctx context.Context) (snapshot *domain.Snapshot, err error) {
	defer func(begin time.Time) {
		var timestamp time.Time
		var size int
		if snapshot != nil {
			timestamp, size = snapshot.Timestamp(), snapshot.Len()
		}
		s.logger.Log(
			"method", "latest",
			"timestamp", timestamp,
			"rates", size,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Latest(ctx)
}

func (s *loggingStore) Ingest(ctx context.Context, snapshot *domain.Snapshot) (err error) {
	defer func(begin time.Time) {
		var timestamp time.Time
		var base domain.CurrencyCode
		var size int
		if snapshot != nil {
			timestamp, base, size = snapshot.Timestamp(), snapshot.Base(), snapshot.Len()
		}
		s.logger.Log(
			"method", "ingest",
			"timestamp", timestamp,
			"base", base,
			"rates", size,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Ingest(ctx, snapshot)
}

func (s *loggingStore) Currencies(ctx context.Context) (currencies []domain.CurrencyName, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "currencies",
			"count", len(currencies),
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Currencies(ctx)
}

func (s *loggingStore) SaveCurrencies(ctx context.Context, currencies []domain.CurrencyName) (err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "save_currencies",
			"count", len(currencies),
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.SaveCurrencies(ctx, currencies)
}
