package rates

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"currency-api/domain"
)

// MemoryStore keeps snapshots in process memory.
//
// Writers are serialized by mu. Readers of the latest snapshot never take the lock: a new
// snapshot is fully built before it is published with a single pointer swap.
type MemoryStore struct {
	mu sync.Mutex

	// observations snapshots keyed by timestamp in unix nanoseconds
	observations map[int64]*domain.Snapshot

	latest atomic.Pointer[domain.Snapshot]

	dirLock    sync.RWMutex
	currencies map[domain.CurrencyCode]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		observations: map[int64]*domain.Snapshot{},
		currencies:   map[domain.CurrencyCode]string{},
	}
}

func (s *MemoryStore) Latest(_ context.Context) (*domain.Snapshot, error) {
	snapshot := s.latest.Load()
	if snapshot == nil {
		return nil, unavailable("latest snapshot", errors.New("no rates ingested"))
	}
	return snapshot, nil
}

func (s *MemoryStore) Ingest(_ context.Context, snapshot *domain.Snapshot) error {
	if snapshot == nil {
		return errors.New("ingest: snapshot is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := snapshot.Timestamp().UnixNano()
	merged, err := merge(s.observations[key], snapshot)
	if err != nil {
		return err
	}
	s.observations[key] = merged

	current := s.latest.Load()
	if current == nil || !merged.Timestamp().Before(current.Timestamp()) {
		s.latest.Store(merged)
	}
	return nil
}

func (s *MemoryStore) Currencies(_ context.Context) ([]domain.CurrencyName, error) {
	s.dirLock.RLock()
	defer s.dirLock.RUnlock()

	currencies := make([]domain.CurrencyName, 0, len(s.currencies))
	for code, name := range s.currencies {
		currencies = append(currencies, domain.CurrencyName{Code: code, Name: name})
	}
	sort.Slice(currencies, func(i, j int) bool {
		return currencies[i].Code.String() < currencies[j].Code.String()
	})
	return currencies, nil
}

func (s *MemoryStore) SaveCurrencies(_ context.Context, currencies []domain.CurrencyName) error {
	s.dirLock.Lock()
	defer s.dirLock.Unlock()

	for _, c := range currencies {
		if c.Code.IsZero() {
			continue
		}
		s.currencies[c.Code] = c.Name
	}
	return nil
}

// Len returns the number of stored (timestamp, code) rows.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, snapshot := range s.observations {
		n += snapshot.Len()
	}
	return n
}
