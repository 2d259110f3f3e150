package agents

import (
	"TradePulse/internal/domain/models"
	"TradePulse/internal/state"
)

// Typed readers over the shared state. Absent or mistyped keys yield
// zero values so every task degrades instead of panicking.

func ltpFrom(st *state.SharedState) map[string]float64 {
	if v, ok := st.Get(state.KeyLTP).(map[string]float64); ok {
		return v
	}
	return map[string]float64{}
}

func vixFrom(st *state.SharedState, def float64) float64 {
	if v, ok := st.Get(state.KeyVIX).(float64); ok && v > 0 {
		return v
	}
	return def
}

func chainFrom(st *state.SharedState) []models.OptionQuote {
	if v, ok := st.Get(state.KeyOptionsChain).([]models.OptionQuote); ok {
		return v
	}
	return nil
}

func newsFrom(st *state.SharedState) []models.NewsItem {
	if v, ok := st.Get(state.KeyNews).([]models.NewsItem); ok {
		return v
	}
	return nil
}

func historicalFrom(st *state.SharedState) map[string]models.OHLCSeries {
	if v, ok := st.Get(state.KeyHistorical).(map[string]models.OHLCSeries); ok {
		return v
	}
	return map[string]models.OHLCSeries{}
}

func technicalsFrom(st *state.SharedState) *models.TechnicalReport {
	if v, ok := st.Get(state.KeyTechnicals).(*models.TechnicalReport); ok {
		return v
	}
	return &models.TechnicalReport{Indices: map[string]models.IndexTechnicals{}}
}

func riskFrom(st *state.SharedState) *models.RiskReport {
	if v, ok := st.Get(state.KeyRiskMetrics).(*models.RiskReport); ok {
		return v
	}
	return &models.RiskReport{Beta: 1.0, RiskLabel: "medium"}
}

func activityFrom(st *state.SharedState) *models.ActivityReport {
	if v, ok := st.Get(state.KeyActiveTrades).(*models.ActivityReport); ok {
		return v
	}
	return &models.ActivityReport{PCR: map[string]models.PCRStats{}, MaxPain: map[string]models.MaxPainLevel{}}
}

func sentimentFrom(st *state.SharedState) *models.SentimentReport {
	if v, ok := st.Get(state.KeySentiment).(*models.SentimentReport); ok {
		return v
	}
	return &models.SentimentReport{Label: "neutral"}
}

func decisionFrom(st *state.SharedState) *models.Decision {
	if v, ok := st.Get(state.KeyDecision).(*models.Decision); ok {
		return v
	}
	return nil
}
