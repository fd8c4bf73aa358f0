package exchange

import (
	"context"
	"fmt"

	"currency-api/domain"
	"currency-api/rates"
)

// Service converts between currencies using the latest stored rates
type Service interface {
	Convert(ctx context.Context, from domain.Currency, to domain.CurrencyCode) (domain.Currency, error)
	Rate(ctx context.Context, from domain.CurrencyCode, to domain.CurrencyCode) (domain.Rate, error)
}

type service struct {
	// store to look up the latest snapshot
	store rates.Store
}

// NewService constructs a valid Service
func NewService(store rates.Store) Service {
	return &service{
		store: store,
	}
}

// Convert computes a conversion from one currency to another with the latest exchange rates.
func (s *service) Convert(ctx context.Context, from domain.Currency, to domain.CurrencyCode) (domain.Currency, error) {
	snapshot, err := s.store.Latest(ctx)
	if err != nil {
		return domain.Currency{}, fmt.Errorf("convert from [%v]: %w", from.Code, err)
	}
	return Exchange(from, to, snapshot)
}

// Rate computes the value of one unit of from in to with the latest exchange rates.
func (s *service) Rate(ctx context.Context, from domain.CurrencyCode, to domain.CurrencyCode) (domain.Rate, error) {
	snapshot, err := s.store.Latest(ctx)
	if err != nil {
		return 0, fmt.Errorf("rate from [%v]: %w", from, err)
	}
	return Rate(from, to, snapshot)
}
