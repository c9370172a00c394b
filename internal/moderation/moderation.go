// Package moderation is the enforcement engine: the violation recorder, the
// pre-publish gate, the appeal workflow, the admin override surface and the
// expiry sweeper, all driving the per-account state machine through the
// storage layer's transactional operations.
package moderation

import (
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto"
	config "github.com/lexora-app/moderation-server/internal/config"
	"github.com/lexora-app/moderation-server/internal/metrics"
	"github.com/lexora-app/moderation-server/internal/policy"
	"github.com/lexora-app/moderation-server/internal/storage"
)

const (
	dedupCacheCounters = 100_000
	dedupCacheMaxCost  = 10_000
)

type Engine struct {
	db      *storage.Storage
	config  *config.Config
	logger  *slog.Logger
	metrics metrics.Metrics

	// In-process fast path of the recording dedup window; the store-level
	// recency check stays authoritative across restarts and replicas.
	dedup *ristretto.Cache

	now func() time.Time
}

func New(db *storage.Storage, config *config.Config, logger *slog.Logger, m metrics.Metrics) (*Engine, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: dedupCacheCounters,
		MaxCost:     dedupCacheMaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &Engine{
		db:      db,
		config:  config,
		logger:  logger,
		metrics: m,
		dedup:   cache,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close releases the dedup cache.
func (e *Engine) Close() {
	e.dedup.Close()
}

// WithClock replaces the engine's clock. Test hook.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now

	return e
}

func (e *Engine) thresholds() policy.Thresholds {
	return policy.Thresholds{
		StrikesForSuspension: e.config.Moderation.StrikesForSuspension,
		SuspensionsForBan:    e.config.Moderation.SuspensionsForBan,
		SuspensionDuration:   e.config.Moderation.SuspensionDuration,
	}
}

func (e *Engine) suspensionDuration() time.Duration {
	if e.config.Moderation.SuspensionDuration > 0 {
		return e.config.Moderation.SuspensionDuration
	}

	return policy.DefaultSuspensionDuration
}

func (e *Engine) dedupWindow() time.Duration {
	return e.config.Moderation.DedupWindow
}
