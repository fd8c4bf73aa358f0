package exchange

import (
	"context"
	"time"

	"github.com/go-kit/log"

	"currency-api/domain"
)

// loggingService decorates an exchange.Service with logging
type loggingService struct {
	logger log.Logger
	next   Service
}

// NewLoggingService returns a new instance of a logging Service
func NewLoggingService(logger log.Logger, s Service) Service {
	return &loggingService{
		next:   s,
		logger: logger,
	}
}

func (s *loggingService) Convert(ctx context.Context, from domain.Currency, to domain.CurrencyCode) (converted domain.Currency, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "convert",
			"amount", from.Amount,
			"from", from.Code,
			"to", to,
			"converted_amount", converted.Amount,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Convert(ctx, from, to)
}

func (s *loggingService) Rate(ctx context.Context, from domain.CurrencyCode, to domain.CurrencyCode) (rate domain.Rate, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "rate",
			"from", from,
			"to", to,
			"rate", rate,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Rate(ctx, from, to)
}
