// Package ingest keeps a rates.Store fed from an upstream provider.
package ingest

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"currency-api/provider"
	"currency-api/rates"
)

// Poller periodically copies the provider's latest rates into a store.
type Poller struct {
	provider provider.Provider
	store    rates.Store
	interval time.Duration
	logger   log.Logger
}

// NewPoller creates a Poller fetching every interval.
func NewPoller(p provider.Provider, store rates.Store, interval time.Duration, logger log.Logger) *Poller {
	return &Poller{
		provider: p,
		store:    store,
		interval: interval,
		logger:   logger,
	}
}

// Run fetches the currency directory once and the latest rates immediately,
// then fetches rates again every interval until ctx is done.
// A failed fetch is logged and retried on the next tick only.
func (p *Poller) Run(ctx context.Context) error {
	p.syncCurrencies(ctx)
	p.syncRates(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.syncRates(ctx)
		}
	}
}

// Sync performs a single rates fetch and ingest.
func (p *Poller) Sync(ctx context.Context) error {
	snapshot, err := p.provider.Latest(ctx)
	if err != nil {
		return err
	}
	return p.store.Ingest(ctx, snapshot)
}

func (p *Poller) syncRates(ctx context.Context) {
	if err := p.Sync(ctx); err != nil && ctx.Err() == nil {
		level.Warn(p.logger).Log("msg", "rates refresh failed", "err", err)
	}
}

func (p *Poller) syncCurrencies(ctx context.Context) {
	currencies, err := p.provider.Currencies(ctx)
	if err == nil {
		err = p.store.SaveCurrencies(ctx, currencies)
	}
	if err != nil && ctx.Err() == nil {
		level.Warn(p.logger).Log("msg", "currency directory refresh failed", "err", err)
	}
}
