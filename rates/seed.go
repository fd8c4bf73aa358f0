package rates

import (
	"context"
	"fmt"
	"time"

	"currency-api/domain"
)

// DemoSnapshot a small USD based snapshot for running without a provider.
func DemoSnapshot(now time.Time) (*domain.Snapshot, error) {
	return domain.NewSnapshot(
		"Usage subject to terms: https://openexchangerates.org/terms",
		"https://openexchangerates.org/license",
		now.Truncate(time.Second),
		domain.MustParseCode("USD"),
		domain.Rates{
			domain.MustParseCode("USD"): 1.0,
			domain.MustParseCode("GBP"): 0.794593,
			domain.MustParseCode("AZN"): 1.7,
		},
	)
}

// DemoCurrencies the directory entries matching DemoSnapshot.
func DemoCurrencies() []domain.CurrencyName {
	return []domain.CurrencyName{
		{Code: domain.MustParseCode("AZN"), Name: "Azerbaijani Manat"},
		{Code: domain.MustParseCode("GBP"), Name: "British Pound Sterling"},
		{Code: domain.MustParseCode("USD"), Name: "United States Dollar"},
	}
}

// Seed ingests the demo snapshot and directory into s.
func Seed(ctx context.Context, s Store, now time.Time) error {
	snapshot, err := DemoSnapshot(now)
	if err != nil {
		return fmt.Errorf("demo snapshot: %w", err)
	}
	if err := s.Ingest(ctx, snapshot); err != nil {
		return fmt.Errorf("seed rates: %w", err)
	}
	if err := s.SaveCurrencies(ctx, DemoCurrencies()); err != nil {
		return fmt.Errorf("seed currencies: %w", err)
	}
	return nil
}
