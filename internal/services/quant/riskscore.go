package quant

import (
	"fmt"

	"TradePulse/internal/domain/models"
)

// RiskScore combines beta, VIX, portfolio Greeks and sentiment into a
// 0-100 score (higher is riskier) with human-readable contributing
// factors. Labels: low < 30 <= medium < 60 <= high.
type RiskScore struct {
	Score   int
	Label   string
	Factors []string
}

// ComputeRiskScore applies the weighted factor rules.
func ComputeRiskScore(ab models.AlphaBeta, portfolio map[string]float64, vix, sentimentScore float64) RiskScore {
	var factors []string
	score := 0

	beta := ab.Beta
	switch {
	case beta > 1.5:
		score += 25
		factors = append(factors, fmt.Sprintf("High beta (%.2f): portfolio very sensitive to market", beta))
	case beta > 1.2:
		score += 15
		factors = append(factors, fmt.Sprintf("Elevated beta (%.2f): above-average market sensitivity", beta))
	case beta < 0.8:
		score += 5
		factors = append(factors, fmt.Sprintf("Low beta (%.2f): defensive positioning", beta))
	}

	switch {
	case vix > 25:
		score += 25
		factors = append(factors, fmt.Sprintf("Very high VIX (%.1f): extreme volatility environment", vix))
	case vix > 20:
		score += 15
		factors = append(factors, fmt.Sprintf("Elevated VIX (%.1f): above-normal volatility", vix))
	case vix < 12:
		score += 5
		factors = append(factors, fmt.Sprintf("Low VIX (%.1f): complacency risk", vix))
	}

	gamma := abs(portfolio["gamma"])
	switch {
	case gamma > 0.1:
		score += 20
		factors = append(factors, fmt.Sprintf("High portfolio gamma (%.4f): significant convexity risk", gamma))
	case gamma > 0.05:
		score += 10
		factors = append(factors, fmt.Sprintf("Moderate gamma (%.4f): watch for rapid delta changes", gamma))
	}

	switch {
	case sentimentScore < -0.5:
		score += 15
		factors = append(factors, fmt.Sprintf("Very negative sentiment (%.2f): bearish pressure", sentimentScore))
	case sentimentScore < -0.2:
		score += 10
		factors = append(factors, fmt.Sprintf("Negative sentiment (%.2f): cautious environment", sentimentScore))
	}

	if theta := portfolio["theta"]; theta < -50 {
		score += 10
		factors = append(factors, fmt.Sprintf("High theta decay (%.0f/day): time working against positions", theta))
	}

	if score > 100 {
		score = 100
	}

	label := "low"
	switch {
	case score >= 60:
		label = "high"
	case score >= 30:
		label = "medium"
	}

	return RiskScore{Score: score, Label: label, Factors: factors}
}
