package marketdata

import (
	"context"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	"TradePulse/pkg/cache"
	applogger "TradePulse/pkg/logger"
)

const snapshotKey = "marketdata:snapshot"

// Cached wraps a provider with a staleness budget: snapshots younger
// than the TTL are served from cache, and the last good snapshot is
// reused when the upstream provider fails.
type Cached struct {
	next   repository.MarketDataProvider
	cache  cache.Service
	budget time.Duration
	l      *applogger.Logger
}

func NewCached(next repository.MarketDataProvider, c cache.Service, budget time.Duration, l *applogger.Logger) *Cached {
	if budget <= 0 {
		budget = 30 * time.Second
	}
	return &Cached{next: next, cache: c, budget: budget, l: l}
}

func (p *Cached) Snapshot(ctx context.Context) (*models.MarketSnapshot, error) {
	var cached models.MarketSnapshot
	if err := p.cache.Get(ctx, snapshotKey, &cached); err == nil {
		if time.Since(cached.Timestamp) < p.budget {
			return &cached, nil
		}
	}

	snap, err := p.next.Snapshot(ctx)
	if err != nil {
		// Degrade to the last good snapshot past its budget rather
		// than failing the cycle.
		if cached.Timestamp.IsZero() {
			return nil, err
		}
		if p.l != nil {
			p.l.Warn("market data fetch failed, serving stale snapshot",
				applogger.Error(err),
				applogger.Duration("age", time.Since(cached.Timestamp)),
			)
		}
		return &cached, nil
	}

	if err := p.cache.Set(ctx, snapshotKey, snap, p.budget*10); err != nil && p.l != nil {
		p.l.Warn("snapshot cache write failed", applogger.Error(err))
	}
	return snap, nil
}
