// Package marketdata supplies per-cycle market snapshots. The synthetic
// provider is the default source; a live feed would implement the same
// provider seam.
package marketdata

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/pkg/util"
)

// SourceSynthetic marks generated payloads so downstream consumers can
// discount confidence.
const SourceSynthetic = "synthetic"

// strike ladder shape per index: step size and strikes either side of ATM.
var strikeSteps = map[string]float64{
	models.IndexNifty:     100,
	models.IndexBankNifty: 500,
	models.IndexSensex:    100,
}

// SyntheticConfig shapes the generated data.
type SyntheticConfig struct {
	Indices    []string
	BaseLTP    map[string]float64
	DefaultVIX float64
	BarsPerDay int
	Days       int
}

// Synthetic generates plausible market snapshots: index prices with
// jitter around the configured base, a strike ladder with OI and volume
// concentrated near ATM, OHLCV history and sample headlines.
type Synthetic struct {
	cfg SyntheticConfig

	mu  sync.Mutex
	rng *rand.Rand
	// last prices drift between snapshots instead of re-centering.
	last map[string]float64
}

// NewSynthetic builds a provider. A zero seed uses the current time.
func NewSynthetic(cfg SyntheticConfig, seed int64) *Synthetic {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.BarsPerDay <= 0 {
		cfg.BarsPerDay = 78
	}
	if cfg.Days <= 0 {
		cfg.Days = 5
	}
	if cfg.DefaultVIX <= 0 {
		cfg.DefaultVIX = 15.0
	}
	return &Synthetic{
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(seed)),
		last: make(map[string]float64),
	}
}

func (p *Synthetic) Snapshot(ctx context.Context) (*models.MarketSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ltp := make(map[string]float64, len(p.cfg.Indices))
	historical := make(map[string]models.OHLCSeries, len(p.cfg.Indices))
	for _, idx := range p.cfg.Indices {
		price := p.drift(idx)
		ltp[idx] = util.Round2(price)
		historical[idx] = p.history(price)
	}

	vix := util.Round2(p.cfg.DefaultVIX + p.rng.Float64()*6 - 3)
	if vix < 8 {
		vix = 8
	}

	return &models.MarketSnapshot{
		LTP:          ltp,
		VIX:          vix,
		OptionsChain: p.chain(ltp),
		News:         sampleNews(),
		Historical:   historical,
		Source:       SourceSynthetic,
		Timestamp:    time.Now(),
	}, nil
}

// drift moves the index by up to ±0.2% per snapshot.
func (p *Synthetic) drift(idx string) float64 {
	base, ok := p.last[idx]
	if !ok {
		base = p.cfg.BaseLTP[idx]
		if base == 0 {
			base = 25000
		}
	}
	base *= 1 + (p.rng.Float64()*0.004 - 0.002)
	p.last[idx] = base
	return base
}

// history builds a random-walk OHLCV series ending at the current price.
func (p *Synthetic) history(endPrice float64) models.OHLCSeries {
	n := p.cfg.BarsPerDay * p.cfg.Days
	series := models.OHLCSeries{
		Open:       make([]float64, n),
		High:       make([]float64, n),
		Low:        make([]float64, n),
		Close:      make([]float64, n),
		Volume:     make([]float64, n),
		Timestamps: make([]time.Time, n),
	}

	// Walk backwards from the end price so the last close matches LTP.
	price := endPrice
	now := time.Now()
	for i := n - 1; i >= 0; i-- {
		c := price
		o := c * (1 + p.rng.Float64()*0.002 - 0.001)
		h := math.Max(o, c) * (1 + p.rng.Float64()*0.001)
		l := math.Min(o, c) * (1 - p.rng.Float64()*0.001)

		series.Open[i] = util.Round2(o)
		series.High[i] = util.Round2(h)
		series.Low[i] = util.Round2(l)
		series.Close[i] = util.Round2(c)
		series.Volume[i] = float64(50000 + p.rng.Intn(150000))
		series.Timestamps[i] = now.Add(-time.Duration(n-1-i) * 5 * time.Minute)

		price = o * (1 + p.rng.Float64()*0.002 - 0.001)
	}
	return series
}

// chain generates CE/PE rows across a strike ladder centered on the ATM
// strike, with OI boosted x2.5 and volume x3 near the money.
func (p *Synthetic) chain(ltp map[string]float64) []models.OptionQuote {
	expiry := util.NextWeeklyExpiry(time.Now()).Format("2006-01-02")

	var options []models.OptionQuote
	for _, idx := range p.cfg.Indices {
		base := ltp[idx]
		if base == 0 {
			continue
		}
		step := strikeSteps[idx]
		if step == 0 {
			step = 100
		}
		atm := math.Round(base/step) * step

		for k := -5; k <= 5; k++ {
			strike := atm + float64(k)*step
			for _, optType := range []string{models.OptionCall, models.OptionPut} {
				distance := math.Abs(strike - base)
				itm := (optType == models.OptionCall && strike < base) ||
					(optType == models.OptionPut && strike > base)

				var price float64
				if itm {
					price = distance + 50 + p.rng.Float64()*150
				} else {
					price = math.Max(5, 300-distance*0.5+p.rng.Float64()*60-30)
				}

				oi := int64(10000 + p.rng.Intn(190000))
				volume := int64(5000 + p.rng.Intn(95000))
				if distance <= 2*step {
					oi = int64(float64(oi) * 2.5)
					volume *= 3
				}

				options = append(options, models.OptionQuote{
					Index:    idx,
					Strike:   strike,
					Type:     optType,
					LTP:      util.Round2(price),
					OI:       oi,
					Volume:   volume,
					ChangeOI: int64(p.rng.Intn(20001)) - 5000,
					IV:       util.Round2(10 + p.rng.Float64()*25),
					Expiry:   expiry,
					Bid:      util.Round2(price - 0.5 - p.rng.Float64()*1.5),
					Ask:      util.Round2(price + 0.5 + p.rng.Float64()*1.5),
					Source:   SourceSynthetic,
				})
			}
		}
	}
	return options
}

func sampleNews() []models.NewsItem {
	return []models.NewsItem{
		{Title: "Nifty50 opens flat amid global cues", Source: "ET", Summary: "Markets opened unchanged tracking mixed global signals."},
		{Title: "BankNifty crosses 53000 on strong earnings", Source: "MC", Summary: "Banking index rallied on better-than-expected results."},
		{Title: "FIIs turn net buyers after 3 weeks", Source: "Mint", Summary: "Foreign institutional investors returned to the buy side."},
		{Title: "RBI holds rates steady, outlook positive", Source: "ET", Summary: "The central bank left policy rates unchanged."},
		{Title: "IT stocks under pressure on global slowdown fears", Source: "MC", Summary: "Technology names slipped on weak demand commentary."},
	}
}
