package quant

import (
	"fmt"
	"sort"

	"TradePulse/internal/domain/models"
	"TradePulse/pkg/util"
)

// Activity score weights.
const (
	oiWeight     = 0.6
	volumeWeight = 0.4
)

// OiThresholds are per-index minimum OI/volume cutoffs for activity
// classification.
type OiThresholds struct {
	MinOI     int64
	MinVolume int64
}

// HistoryLookup returns recent persisted OI samples for a contract, or
// nil when no history exists.
type HistoryLookup func(strike float64, optionType string) []models.OiSample

// ScoreOptions annotates every chain row with an activity score computed
// against historical averages, falling back to the cross-sectional
// average of the same index's current chain.
//
//	score = 0.6 * OI/avgOI + 0.4 * volume/avgVolume
func ScoreOptions(chain []models.OptionQuote, thresholds map[string]OiThresholds, history HistoryLookup) []models.ScoredOption {
	byIndex := make(map[string][]models.OptionQuote)
	for _, opt := range chain {
		byIndex[opt.Index] = append(byIndex[opt.Index], opt)
	}

	scored := make([]models.ScoredOption, 0, len(chain))
	for idx, opts := range byIndex {
		var ois, vols []float64
		for _, o := range opts {
			if o.OI > 0 {
				ois = append(ois, float64(o.OI))
			}
			if o.Volume > 0 {
				vols = append(vols, float64(o.Volume))
			}
		}
		avgOI := mean(ois)
		if avgOI == 0 {
			avgOI = 1
		}
		avgVol := mean(vols)
		if avgVol == 0 {
			avgVol = 1
		}

		th, ok := thresholds[idx]
		if !ok {
			th = thresholds[models.IndexNifty]
		}

		for _, opt := range opts {
			histOI, histVol := avgOI, avgVol
			if history != nil {
				if samples := history(opt.Strike, opt.Type); len(samples) > 0 {
					var hois, hvols []float64
					for _, s := range samples {
						if s.OI > 0 {
							hois = append(hois, float64(s.OI))
						}
						if s.Volume > 0 {
							hvols = append(hvols, float64(s.Volume))
						}
					}
					if len(hois) > 0 {
						histOI = mean(hois)
					}
					if len(hvols) > 0 {
						histVol = mean(hvols)
					}
				}
			}

			oiRatio := 0.0
			if histOI > 0 {
				oiRatio = float64(opt.OI) / histOI
			}
			volRatio := 0.0
			if histVol > 0 {
				volRatio = float64(opt.Volume) / histVol
			}
			score := oiWeight*oiRatio + volumeWeight*volRatio

			label := "low"
			switch {
			case score > 1.5 && opt.OI > th.MinOI:
				label = "high"
			case score > 1.0 && float64(opt.OI) > float64(th.MinOI)*0.5:
				label = "medium"
			}

			changePct := 0.0
			if opt.OI > 0 {
				changePct = float64(opt.ChangeOI) / float64(opt.OI) * 100
			}

			scored = append(scored, models.ScoredOption{
				OptionQuote:   opt,
				ActivityScore: round3(score),
				ActivityLabel: label,
				OIRatio:       util.Round2(oiRatio),
				VolRatio:      util.Round2(volRatio),
				OIChangePct:   util.Round2(changePct),
				Comparison:    fmt.Sprintf("%.1fx avg OI, %.1fx avg volume", oiRatio, volRatio),
			})
		}
	}
	return scored
}

// DetectBuildup flags significant OI buildup or unwinding: |ΔOI%| must
// reach 5 to be considered and ±20 to signal. At most the top ten
// signals by |ΔOI%| are returned.
func DetectBuildup(scored []models.ScoredOption) []models.BuildupSignal {
	var signals []models.BuildupSignal
	for _, opt := range scored {
		pct := opt.OIChangePct
		if pct < 5 && pct > -5 {
			continue
		}

		var signal, interpretation string
		switch {
		case opt.ChangeOI > 0 && pct > 20:
			signal = "buildup"
			if opt.Type == models.OptionCall {
				interpretation = "Call OI buildup, bullish signal"
			} else {
				interpretation = "Put OI buildup, bearish signal or hedging"
			}
		case opt.ChangeOI < 0 && pct < -20:
			signal = "unwinding"
			if opt.Type == models.OptionCall {
				interpretation = "Call OI unwinding, bearish signal"
			} else {
				interpretation = "Put OI unwinding, bullish signal"
			}
		default:
			continue
		}

		signals = append(signals, models.BuildupSignal{
			Strike:         opt.Strike,
			Type:           opt.Type,
			Index:          opt.Index,
			Signal:         signal,
			OIChange:       opt.ChangeOI,
			OIChangePct:    pct,
			Interpretation: interpretation,
		})
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return abs(signals[i].OIChangePct) > abs(signals[j].OIChangePct)
	})
	if len(signals) > 10 {
		signals = signals[:10]
	}
	return signals
}

// PCR computes per-index put-call ratios on OI and volume. Zero call OI
// yields a 0 ratio and a neutral signal rather than a division error.
func PCR(chain []models.OptionQuote) map[string]models.PCRStats {
	type tally struct {
		putOI, callOI, putVol, callVol int64
	}
	byIndex := make(map[string]*tally)
	for _, opt := range chain {
		t, ok := byIndex[opt.Index]
		if !ok {
			t = &tally{}
			byIndex[opt.Index] = t
		}
		if opt.Type == models.OptionPut {
			t.putOI += opt.OI
			t.putVol += opt.Volume
		} else {
			t.callOI += opt.OI
			t.callVol += opt.Volume
		}
	}

	result := make(map[string]models.PCRStats, len(byIndex))
	for idx, t := range byIndex {
		oiPCR, volPCR := 0.0, 0.0
		if t.callOI > 0 {
			oiPCR = float64(t.putOI) / float64(t.callOI)
		}
		if t.callVol > 0 {
			volPCR = float64(t.putVol) / float64(t.callVol)
		}
		signal := "neutral"
		switch {
		case oiPCR > 1.2:
			signal = "bearish"
		case t.callOI > 0 && oiPCR < 0.7:
			signal = "bullish"
		}
		result[idx] = models.PCRStats{
			OIPCR:     round3(oiPCR),
			VolumePCR: round3(volPCR),
			Signal:    signal,
		}
	}
	return result
}

// MaxPain finds, per index, the strike where the combined intrinsic loss
// of option buyers is minimized. Strikes are scanned in ascending order
// and ties keep the first (lowest) minimum.
func MaxPain(chain []models.OptionQuote) map[string]models.MaxPainLevel {
	type oiPair struct {
		ce, pe int64
	}
	byIndex := make(map[string]map[float64]*oiPair)
	for _, opt := range chain {
		strikes, ok := byIndex[opt.Index]
		if !ok {
			strikes = make(map[float64]*oiPair)
			byIndex[opt.Index] = strikes
		}
		p, ok := strikes[opt.Strike]
		if !ok {
			p = &oiPair{}
			strikes[opt.Strike] = p
		}
		if opt.Type == models.OptionCall {
			p.ce = opt.OI
		} else {
			p.pe = opt.OI
		}
	}

	result := make(map[string]models.MaxPainLevel, len(byIndex))
	for idx, strikesData := range byIndex {
		strikes := make([]float64, 0, len(strikesData))
		for s := range strikesData {
			strikes = append(strikes, s)
		}
		sort.Float64s(strikes)

		best := models.MaxPainLevel{TotalPain: -1}
		for _, test := range strikes {
			pain := 0.0
			for strike, p := range strikesData {
				if strike < test {
					pain += (test - strike) * float64(p.ce)
				}
				if strike > test {
					pain += (strike - test) * float64(p.pe)
				}
			}
			if best.TotalPain < 0 || pain < best.TotalPain {
				best = models.MaxPainLevel{Strike: test, TotalPain: pain}
			}
		}
		result[idx] = best
	}
	return result
}

func round3(x float64) float64 {
	return util.RoundN(x, 3)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
