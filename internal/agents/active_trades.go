package agents

import (
	"context"
	"sort"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	"TradePulse/internal/services/quant"
	"TradePulse/internal/state"
	applogger "TradePulse/pkg/logger"
)

// ActiveTrades scans the options chain for unusual open-interest and
// volume activity, persisting each cycle's OI so later cycles can score
// against a rolling history.
type ActiveTrades struct {
	store      repository.AuditStore
	thresholds map[string]quant.OiThresholds
	historyN   int
	l          *applogger.Logger
}

func NewActiveTrades(store repository.AuditStore, thresholds map[string]quant.OiThresholds, historyN int, l *applogger.Logger) *ActiveTrades {
	if historyN <= 0 {
		historyN = 5
	}
	return &ActiveTrades{store: store, thresholds: thresholds, historyN: historyN, l: l}
}

func (a *ActiveTrades) Name() string { return "active_trades" }

func (a *ActiveTrades) Run(ctx context.Context, st *state.SharedState) (any, error) {
	chain := chainFrom(st)
	if len(chain) == 0 {
		report := &models.ActivityReport{
			PCR:       map[string]models.PCRStats{},
			MaxPain:   map[string]models.MaxPainLevel{},
			Timestamp: time.Now(),
		}
		st.Set(state.KeyActiveTrades, report)
		return report, nil
	}

	// Persist this cycle's OI first so the next cycle sees it.
	if a.store != nil {
		if err := a.store.LogOiData(ctx, st.CycleID(), chain); err != nil {
			a.l.Warn("oi persistence failed", applogger.Error(err))
		}
	}

	scored := quant.ScoreOptions(chain, a.thresholds, a.historyLookup(ctx))

	var high, medium []models.ScoredOption
	for _, s := range scored {
		switch s.ActivityLabel {
		case "high":
			high = append(high, s)
		case "medium":
			medium = append(medium, s)
		}
	}
	sort.SliceStable(high, func(i, j int) bool { return high[i].ActivityScore > high[j].ActivityScore })
	sort.SliceStable(medium, func(i, j int) bool { return medium[i].ActivityScore > medium[j].ActivityScore })

	report := &models.ActivityReport{
		TopActive:      top(high, 5),
		MediumActivity: top(medium, 5),
		BuildupSignals: quant.DetectBuildup(scored),
		PCR:            quant.PCR(chain),
		MaxPain:        quant.MaxPain(chain),
		TotalScanned:   len(chain),
		HighCount:      len(high),
		MediumCount:    len(medium),
		Timestamp:      time.Now(),
	}

	st.Set(state.KeyActiveTrades, report)
	a.l.Info("activity scan complete",
		applogger.Int("scanned", report.TotalScanned),
		applogger.Int("high", report.HighCount),
		applogger.Int("signals", len(report.BuildupSignals)),
	)
	return report, nil
}

// historyLookup adapts the audit store to the scorer's lookup seam.
// Store errors degrade to the cross-sectional fallback.
func (a *ActiveTrades) historyLookup(ctx context.Context) quant.HistoryLookup {
	if a.store == nil {
		return nil
	}
	return func(strike float64, optionType string) []models.OiSample {
		samples, err := a.store.OiHistory(ctx, strike, optionType, a.historyN)
		if err != nil {
			return nil
		}
		return samples
	}
}

func top(s []models.ScoredOption, n int) []models.ScoredOption {
	if len(s) > n {
		return s[:n]
	}
	return s
}
