package agents

import (
	"context"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	"TradePulse/internal/services/quant"
	"TradePulse/internal/state"
	applogger "TradePulse/pkg/logger"
	"TradePulse/pkg/util"
)

// RiskConfig carries the constants the risk task needs.
type RiskConfig struct {
	RiskFreeRate float64 // annual, decimal
	DefaultVIX   float64
	DefaultLTP   map[string]float64
	BarsPerDay   int
	TradingDays  int
	BetaWindow   int
}

// Risk computes rolling alpha/beta, per-contract Black-Scholes Greeks,
// portfolio aggregates and the weighted risk score.
type Risk struct {
	cfg     RiskConfig
	metrics repository.Metrics
	l       *applogger.Logger
}

func NewRisk(cfg RiskConfig, metrics repository.Metrics, l *applogger.Logger) *Risk {
	if cfg.RiskFreeRate == 0 {
		cfg.RiskFreeRate = 0.05
	}
	if cfg.DefaultVIX == 0 {
		cfg.DefaultVIX = 15.0
	}
	if cfg.BarsPerDay == 0 {
		cfg.BarsPerDay = 78
	}
	if cfg.TradingDays == 0 {
		cfg.TradingDays = 252
	}
	if cfg.BetaWindow == 0 {
		cfg.BetaWindow = 12
	}
	if len(cfg.DefaultLTP) == 0 {
		cfg.DefaultLTP = map[string]float64{
			models.IndexNifty:     25000,
			models.IndexBankNifty: 53000,
			models.IndexSensex:    82000,
		}
	}
	return &Risk{cfg: cfg, metrics: metrics, l: l}
}

func (a *Risk) Name() string { return "risk_metrics" }

func (a *Risk) Run(ctx context.Context, st *state.SharedState) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ltp := ltpFrom(st)
	vix := vixFrom(st, a.cfg.DefaultVIX)
	chain := chainFrom(st)
	historical := historicalFrom(st)
	sentiment := sentimentFrom(st)

	// Sensex proxies the market, Nifty the portfolio.
	rfPerPeriod := a.cfg.RiskFreeRate / float64(a.cfg.TradingDays*a.cfg.BarsPerDay)
	ab := quant.AlphaBeta(
		historical[models.IndexNifty].Close,
		historical[models.IndexSensex].Close,
		a.cfg.BetaWindow,
		rfPerPeriod,
	)

	greeks := a.allGreeks(chain, ltp, vix)
	portfolio := aggregateGreeks(greeks)
	score := quant.ComputeRiskScore(ab, portfolio, vix, sentiment.Score)

	report := &models.RiskReport{
		Alpha:           ab.Alpha,
		Beta:            ab.Beta,
		AlphaBetaDetail: ab,
		GreeksPerOption: greeks,
		PortfolioGreeks: portfolio,
		RiskScore:       score.Score,
		RiskLabel:       score.Label,
		RiskFactors:     score.Factors,
		VIX:             vix,
		Timestamp:       time.Now(),
	}

	st.Set(state.KeyRiskMetrics, report)
	if a.metrics != nil {
		a.metrics.RecordRisk(float64(score.Score), vix)
	}
	a.l.Info("risk metrics computed",
		applogger.Int("score", score.Score),
		applogger.String("label", score.Label),
		applogger.Float64("beta", ab.Beta),
	)
	return report, nil
}

func (a *Risk) allGreeks(chain []models.OptionQuote, ltp map[string]float64, vix float64) []models.OptionGreeks {
	now := time.Now()
	out := make([]models.OptionGreeks, 0, len(chain))
	for _, opt := range chain {
		spot := ltp[opt.Index]
		if spot == 0 {
			spot = a.cfg.DefaultLTP[opt.Index]
		}

		// Implied volatility quoted in percent; fall back to VIX.
		sigma := opt.IV
		if sigma > 1 {
			sigma /= 100
		}
		if sigma <= 0 {
			sigma = vix / 100
		}

		t := yearsToExpiry(opt.Expiry, now)
		g := quant.BlackScholes(spot, opt.Strike, t, a.cfg.RiskFreeRate, sigma, opt.Type == models.OptionCall)

		out = append(out, models.OptionGreeks{
			Index:  opt.Index,
			Strike: opt.Strike,
			Type:   opt.Type,
			LTP:    opt.LTP,
			OI:     opt.OI,
			Volume: opt.Volume,
			Greeks: g,
		})
	}
	return out
}

func aggregateGreeks(greeks []models.OptionGreeks) map[string]float64 {
	agg := map[string]float64{"delta": 0, "gamma": 0, "theta": 0, "vega": 0, "rho": 0}
	for _, g := range greeks {
		agg["delta"] += g.Delta
		agg["gamma"] += g.Gamma
		agg["theta"] += g.Theta
		agg["vega"] += g.Vega
		agg["rho"] += g.Rho
	}
	for k, v := range agg {
		agg[k] = util.Round4(v)
	}
	return agg
}

func yearsToExpiry(expiry string, now time.Time) float64 {
	exp := util.ParseExpiry(expiry, now)
	days := exp.Sub(now).Hours() / 24
	if days < 0.01 {
		days = 0.01
	}
	return days / 365
}
