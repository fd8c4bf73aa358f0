package rates

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-kit/log"
	"golang.org/x/sync/singleflight"

	"currency-api/domain"
)

// CachingStore decorates a Store with an in-process copy of the latest snapshot.
// The copy is refreshed after every successful Ingest and every updateFrequency while Run is active.
type CachingStore struct {
	// next the store being decorated with a cache
	next Store

	// cached the latest snapshot, nil until seeded
	cached atomic.Pointer[domain.Snapshot]

	// updateFrequency how often Run refreshes the cached snapshot
	updateFrequency time.Duration

	// seeding collapses concurrent cache misses into one call to next
	seeding singleflight.Group

	logger log.Logger
}

// NewCachingStore returns a new caching Store
func NewCachingStore(updateFrequency time.Duration, logger log.Logger, next Store) *CachingStore {
	return &CachingStore{
		next:            next,
		updateFrequency: updateFrequency,
		logger:          logger,
	}
}

// Latest returns the cached snapshot, seeding the cache on first use.
func (s *CachingStore) Latest(ctx context.Context) (*domain.Snapshot, error) {
	if snapshot := s.cached.Load(); snapshot != nil {
		return snapshot, nil
	}

	v, err, _ := s.seeding.Do("latest", func() (interface{}, error) {
		return s.refreshNow(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("seeding cache: %w", err)
	}
	return v.(*domain.Snapshot), nil
}

func (s *CachingStore) Ingest(ctx context.Context, snapshot *domain.Snapshot) error {
	if err := s.next.Ingest(ctx, snapshot); err != nil {
		return err
	}
	if _, err := s.refreshNow(ctx); err != nil {
		// drop the cached copy so the next read goes to the store
		s.cached.Store(nil)
		s.logger.Log("msg", "refresh after ingest failed", "err", err)
	}
	return nil
}

func (s *CachingStore) Currencies(ctx context.Context) ([]domain.CurrencyName, error) {
	return s.next.Currencies(ctx)
}

func (s *CachingStore) SaveCurrencies(ctx context.Context, currencies []domain.CurrencyName) error {
	return s.next.SaveCurrencies(ctx, currencies)
}

// Run refreshes the cached snapshot every updateFrequency until ctx is done.
func (s *CachingStore) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.updateFrequency)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.refreshNow(ctx); err != nil {
				// Don't return, just log and hope this is a transient error
				s.logger.Log("msg", "periodic refresh failed", "err", err)
			}
		case <-ctx.Done():
			s.cached.Store(nil)
			return nil
		}
	}
}

// refreshNow loads the latest snapshot from the decorated store and publishes it
func (s *CachingStore) refreshNow(ctx context.Context) (*domain.Snapshot, error) {
	snapshot, err := s.next.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	s.publish(snapshot)
	return snapshot, nil
}

// publish swaps in snapshot unless a newer one is already cached
func (s *CachingStore) publish(snapshot *domain.Snapshot) {
	for {
		current := s.cached.Load()
		if current != nil && snapshot.Timestamp().Before(current.Timestamp()) {
			return
		}
		if s.cached.CompareAndSwap(current, snapshot) {
			return
		}
	}
}
