package quant

import (
	"fmt"
	"math"

	"TradePulse/internal/domain/models"
	"TradePulse/pkg/util"
)

// minExpiryYears floors time-to-expiry at one hour so same-day contracts
// keep finite Greeks.
const minExpiryYears = 1.0 / (365 * 24)

// BlackScholes computes the full Greeks for a European option.
//
// S is spot, K strike, t time to expiry in years, r the annual risk-free
// rate and sigma the implied volatility as a decimal. Theta is normalized
// per day, vega and rho per 1% move. Degenerate inputs (non-positive
// spot, strike or volatility) yield zeroed Greeks with a reason instead
// of an error.
func BlackScholes(S, K, t, r, sigma float64, call bool) models.Greeks {
	if S <= 0 || K <= 0 || sigma <= 0 {
		return models.Greeks{
			Degenerate: true,
			Reason:     fmt.Sprintf("degenerate input (S=%g, K=%g, sigma=%g)", S, K, sigma),
		}
	}
	if t <= 0 {
		t = minExpiryYears
	}

	sqrtT := math.Sqrt(t)
	d1 := (math.Log(S/K) + (r+sigma*sigma/2)*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	nd1 := normCDF(d1)
	nd2 := normCDF(d2)
	pdf := normPDF(d1)
	discount := math.Exp(-r * t)

	var delta, price, theta, rho float64
	if call {
		delta = nd1
		price = S*nd1 - K*discount*nd2
		theta = -(S*pdf*sigma)/(2*sqrtT) - r*K*discount*nd2
		rho = K * t * discount * nd2
	} else {
		delta = nd1 - 1
		price = K*discount*normCDF(-d2) - S*normCDF(-d1)
		theta = -(S*pdf*sigma)/(2*sqrtT) + r*K*discount*normCDF(-d2)
		rho = -K * t * discount * normCDF(-d2)
	}

	gamma := pdf / (S * sigma * sqrtT)
	vega := S * sqrtT * pdf

	g := models.Greeks{
		Delta:            util.Round4(delta),
		Gamma:            util.Round6(gamma),
		Theta:            util.Round4(theta / 365),
		Vega:             util.Round4(vega / 100),
		Rho:              util.Round4(rho / 100),
		TheoreticalPrice: util.Round2(price),
		D1:               util.Round4(d1),
		D2:               util.Round4(d2),
		IVUsed:           util.Round2(sigma * 100),
	}
	if math.IsNaN(g.TheoreticalPrice) || math.IsInf(g.TheoreticalPrice, 0) {
		return models.Greeks{
			Degenerate: true,
			Reason:     fmt.Sprintf("non-finite result (S=%g, K=%g, t=%g, sigma=%g)", S, K, t, sigma),
		}
	}
	return g
}

func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

func normPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}
