package agents

import (
	"context"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/services/quant"
	"TradePulse/internal/state"
	applogger "TradePulse/pkg/logger"
	"TradePulse/pkg/util"
)

// Technical computes pivots, RSI, EMAs and trend classification per
// index from the cycle's candle history.
type Technical struct {
	indices    []string
	barsPerDay int
	l          *applogger.Logger
}

func NewTechnical(indices []string, barsPerDay int, l *applogger.Logger) *Technical {
	return &Technical{indices: indices, barsPerDay: barsPerDay, l: l}
}

func (a *Technical) Name() string { return "technical" }

func (a *Technical) Run(ctx context.Context, st *state.SharedState) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	historical := historicalFrom(st)
	ltp := ltpFrom(st)

	report := &models.TechnicalReport{
		Indices:   make(map[string]models.IndexTechnicals, len(a.indices)),
		Timestamp: time.Now(),
	}
	for _, idx := range a.indices {
		series, ok := historical[idx]
		price := ltp[idx]
		if ok && series.Len() > 0 {
			report.Indices[idx] = a.analyze(series, price)
		} else {
			report.Indices[idx] = priceOnlyDefaults(price)
		}
	}

	st.Set(state.KeyTechnicals, report)
	return report, nil
}

func (a *Technical) analyze(series models.OHLCSeries, ltp float64) models.IndexTechnicals {
	pivot := quant.Pivots(series.High, series.Low, series.Close, a.barsPerDay)
	rsi := quant.RSI(series.Close, 14)
	ema9 := quant.EMA(series.Close, 9)
	ema21 := quant.EMA(series.Close, 21)

	support := pivot.S1
	if support == 0 {
		support = ltp * 0.99
	}
	resistance := pivot.R1
	if resistance == 0 {
		resistance = ltp * 1.01
	}

	out := models.IndexTechnicals{
		LTP:        ltp,
		Support:    util.Round2(support),
		Resistance: util.Round2(resistance),
		Pivot:      pivot,
		RSI:        util.Round2(rsi),
		RSISignal:  quant.RSISignal(rsi),
		EMA9:       util.Round2(ema9),
		EMA21:      util.Round2(ema21),
		Trend:      quant.Trend(series.Close, ema9, ema21),
		Volume:     quant.VolumeStats(series.Volume),
	}
	if support != 0 {
		out.LTPVsSupport = util.Round2((ltp - support) / support * 100)
	}
	if ltp != 0 {
		out.LTPVsResistance = util.Round2((resistance - ltp) / ltp * 100)
	}
	return out
}

// priceOnlyDefaults builds the flagged fallback used when no candle
// history exists: ±1% bands around the last price and neutral readings.
func priceOnlyDefaults(ltp float64) models.IndexTechnicals {
	return models.IndexTechnicals{
		LTP:             ltp,
		Support:         util.Round2(ltp * 0.99),
		Resistance:      util.Round2(ltp * 1.01),
		Pivot:           models.PivotPoints{PP: ltp, R1: util.Round2(ltp * 1.01), S1: util.Round2(ltp * 0.99)},
		RSI:             50.0,
		RSISignal:       "neutral",
		EMA9:            ltp,
		EMA21:           ltp,
		Trend:           "sideways",
		DefaultsApplied: true,
		Note:            "no historical data, price-only defaults",
	}
}
