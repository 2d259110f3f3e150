package quant

import (
	"TradePulse/internal/domain/models"
	"TradePulse/pkg/util"
)

// AlphaBeta computes rolling alpha and beta of the portfolio proxy
// against the market proxy from aligned close series.
//
//	beta  = Cov(Rp, Rm) / Var(Rm)
//	alpha = Rp - [Rf + beta*(Rm - Rf)]
//
// window bounds the number of most recent returns used; rfPerPeriod is
// the risk-free rate already scaled to one bar. Insufficient data yields
// the neutral (0, 1) pair with a note.
func AlphaBeta(portfolioCloses, marketCloses []float64, window int, rfPerPeriod float64) models.AlphaBeta {
	if len(portfolioCloses) == 0 || len(marketCloses) == 0 {
		return models.AlphaBeta{Beta: 1.0, Note: "insufficient data"}
	}

	n := len(portfolioCloses)
	if len(marketCloses) < n {
		n = len(marketCloses)
	}
	pr := returns(portfolioCloses[len(portfolioCloses)-n:])
	mr := returns(marketCloses[len(marketCloses)-n:])

	if len(mr) < 2 {
		return models.AlphaBeta{Beta: 1.0, Note: "too few data points"}
	}

	if window <= 0 {
		window = 12
	}
	if window > len(mr) {
		window = len(mr)
	}
	pr = pr[len(pr)-window:]
	mr = mr[len(mr)-window:]

	cov := covariance(pr, mr)
	mvar := variance(mr)
	beta := 1.0
	if mvar > 0 {
		beta = cov / mvar
	}

	rp := mean(pr)
	rm := mean(mr)
	alpha := rp - (rfPerPeriod + beta*(rm-rfPerPeriod))

	return models.AlphaBeta{
		Alpha:           util.Round4(alpha * 100),
		Beta:            util.Round4(beta),
		MarketReturn:    util.Round4(rm * 100),
		PortfolioReturn: util.Round4(rp * 100),
		WindowPeriods:   window,
	}
}

func returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	rs := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			rs = append(rs, 0)
			continue
		}
		rs = append(rs, (closes[i]-closes[i-1])/closes[i-1])
	}
	return rs
}

// covariance uses the sample estimator (n-1) to match the usual rolling
// beta convention.
func covariance(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 || len(ys) != n {
		return 0
	}
	mx, my := mean(xs), mean(ys)
	sum := 0.0
	for i := range xs {
		sum += (xs[i] - mx) * (ys[i] - my)
	}
	return sum / float64(n-1)
}

func variance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		sum += (x - m) * (x - m)
	}
	return sum / float64(len(xs)-1)
}
