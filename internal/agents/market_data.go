// Package agents implements the pipeline tasks: data fetch, the four
// parallel analysis tasks, decision synthesis and end-of-cycle
// monitoring. Each task reads its inputs from the shared state and
// writes its report back under a well-known key.
package agents

import (
	"context"
	"fmt"

	"TradePulse/internal/domain/repository"
	"TradePulse/internal/state"
	applogger "TradePulse/pkg/logger"
)

// MarketData fetches the per-cycle market snapshot and publishes it to
// the shared state for the analysis tasks.
type MarketData struct {
	provider repository.MarketDataProvider
	metrics  repository.Metrics
	l        *applogger.Logger
}

func NewMarketData(provider repository.MarketDataProvider, metrics repository.Metrics, l *applogger.Logger) *MarketData {
	return &MarketData{provider: provider, metrics: metrics, l: l}
}

func (a *MarketData) Name() string { return "market_data" }

func (a *MarketData) Run(ctx context.Context, st *state.SharedState) (any, error) {
	snap, err := a.provider.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}

	st.Set(state.KeyMarketData, snap)
	st.Set(state.KeyLTP, snap.LTP)
	st.Set(state.KeyVIX, snap.VIX)
	st.Set(state.KeyOptionsChain, snap.OptionsChain)
	st.Set(state.KeyNews, snap.News)
	st.Set(state.KeyHistorical, snap.Historical)

	if a.metrics != nil {
		for idx, price := range snap.LTP {
			a.metrics.RecordLastPrice(idx, price)
		}
	}
	a.l.Info("market data fetched",
		applogger.Int("contracts", len(snap.OptionsChain)),
		applogger.Int("headlines", len(snap.News)),
		applogger.Float64("vix", snap.VIX),
		applogger.String("source", snap.Source),
	)
	return snap, nil
}
