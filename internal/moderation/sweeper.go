package moderation

import (
	"context"
	"log/slog"
	"time"
)

const defaultSweepInterval = time.Minute

// Sweep expires every active suspension whose window has passed. Safe to
// call concurrently with gate checks; expiry is a conditional update.
func (e *Engine) Sweep(ctx context.Context) ([]int64, error) {
	expired, err := e.db.ExpireDue(ctx, e.now())
	if err != nil {
		return nil, err
	}

	if len(expired) > 0 {
		e.logger.InfoContext(ctx, "suspensions expired by sweep", slog.Int("count", len(expired)))
		e.metrics.LogEvent("suspensions_expired", nil, map[string]interface{}{"count": len(expired)})
	}

	return expired, nil
}

// RunSweeper loops Sweep on the configured interval until the context ends.
func (e *Engine) RunSweeper(ctx context.Context) {
	interval := e.config.Moderation.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := e.Sweep(ctx); err != nil {
				e.logger.ErrorContext(ctx, "sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}
