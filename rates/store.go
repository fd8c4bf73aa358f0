// Package rates stores ingested exchange rate snapshots and the currency directory.
package rates

import (
	"context"
	"errors"
	"fmt"

	"currency-api/domain"
)

var (
	// ErrUnavailable is returned when the store cannot be reached or holds no rates yet.
	ErrUnavailable = errors.New("rate store unavailable")

	// ErrBaseMismatch is returned when a snapshot is ingested for a timestamp that is
	// already stored against a different base currency.
	ErrBaseMismatch = errors.New("snapshot base differs from the stored base for this timestamp")
)

// Store durable record of rate snapshots and the currency directory.
// Implementations must be safe for concurrent use.
type Store interface {
	// Latest returns the snapshot with the most recent timestamp.
	Latest(ctx context.Context) (*domain.Snapshot, error)

	// Ingest records a snapshot. Rates for a (timestamp, code) pair that is already
	// stored are replaced, so ingesting the same data twice changes nothing.
	Ingest(ctx context.Context, snapshot *domain.Snapshot) error

	// Currencies lists the currency directory ordered by code.
	Currencies(ctx context.Context) ([]domain.CurrencyName, error)

	// SaveCurrencies inserts or renames directory entries.
	SaveCurrencies(ctx context.Context, currencies []domain.CurrencyName) error
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// merge overlays next onto prev, both observed at the same timestamp.
func merge(prev, next *domain.Snapshot) (*domain.Snapshot, error) {
	if prev == nil {
		return next, nil
	}
	if prev.Base() != next.Base() {
		return nil, fmt.Errorf("%w: stored %v, got %v", ErrBaseMismatch, prev.Base(), next.Base())
	}

	merged := prev.Rates()
	for code, rate := range next.Rates() {
		merged[code] = rate
	}

	disclaimer, license := next.Disclaimer(), next.License()
	if disclaimer == "" {
		disclaimer = prev.Disclaimer()
	}
	if license == "" {
		license = prev.License()
	}

	return domain.NewSnapshot(disclaimer, license, next.Timestamp(), next.Base(), merged)
}
