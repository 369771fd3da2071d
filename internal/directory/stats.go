package directory

import (
	"context"
	"sync"

	"github.com/skillswap/client/internal/domain"
)

// StatsFetcher loads the platform counters
type StatsFetcher interface {
	GetStats(ctx context.Context) (domain.Stats, error)
}

// StatsTracker keeps the last stats that loaded successfully
type StatsTracker struct {
	fetcher StatsFetcher

	mu     sync.RWMutex
	stats  domain.Stats
	loaded bool
}

func NewStatsTracker(fetcher StatsFetcher) *StatsTracker {
	return &StatsTracker{fetcher: fetcher}
}

// Refresh reloads the stats. On failure the retained value is returned
// unchanged together with the error.
func (t *StatsTracker) Refresh(ctx context.Context) (domain.Stats, error) {
	stats, err := t.fetcher.GetStats(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		return t.stats, err
	}
	t.stats = stats
	t.loaded = true
	return stats, nil
}

// Current returns the retained stats and whether any load has succeeded
func (t *StatsTracker) Current() (domain.Stats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stats, t.loaded
}
