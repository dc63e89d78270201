// Package admin implements the password-protected usage and log API.
package admin

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/mandalnilabja/grokway/internal/storage"
)

// statsTTL is how long aggregated usage answers are served from cache.
const statsTTL = 30 * time.Second

// Handlers holds the dependencies for admin HTTP handlers.
type Handlers struct {
	Storage    storage.Storage
	StartTime  time.Time
	StatsCache *ristretto.Cache[string, *storage.UsageStats]
}

// New creates a new instance of admin handlers. statsCache may be nil.
func New(store storage.Storage, startTime time.Time, statsCache *ristretto.Cache[string, *storage.UsageStats]) *Handlers {
	return &Handlers{
		Storage:    store,
		StartTime:  startTime,
		StatsCache: statsCache,
	}
}

// NewStatsCache creates the cache for usage statistics, keyed by query string.
func NewStatsCache() (*ristretto.Cache[string, *storage.UsageStats], error) {
	return ristretto.NewCache(&ristretto.Config[string, *storage.UsageStats]{
		NumCounters: 1e4,     // number of keys to track frequency of (10k).
		MaxCost:     1 << 20, // maximum cost of cache (1MB).
		BufferItems: 64,      // number of keys per Get buffer.
	})
}
