package models

import "time"

// PivotPoints are classic floor-trader pivots computed from the last
// session's high/low/close.
type PivotPoints struct {
	PP float64 `json:"pp"`
	R1 float64 `json:"r1"`
	R2 float64 `json:"r2"`
	R3 float64 `json:"r3"`
	S1 float64 `json:"s1"`
	S2 float64 `json:"s2"`
	S3 float64 `json:"s3"`
}

// VolumeStats compares the latest bar's volume against the series average.
type VolumeStats struct {
	Current float64 `json:"current"`
	Average float64 `json:"average"`
	Ratio   float64 `json:"ratio"`
	Trend   string  `json:"trend"` // "increasing" | "decreasing" | "normal"
}

// IndexTechnicals is the per-index output of the technical engine.
type IndexTechnicals struct {
	LTP             float64     `json:"ltp"`
	Support         float64     `json:"support"`
	Resistance      float64     `json:"resistance"`
	Pivot           PivotPoints `json:"pivot"`
	RSI             float64     `json:"rsi"`
	RSISignal       string      `json:"rsi_signal"`
	EMA9            float64     `json:"ema_9"`
	EMA21           float64     `json:"ema_21"`
	Trend           string      `json:"trend"` // "upward" | "downward" | "sideways"
	Volume          VolumeStats `json:"volume"`
	LTPVsSupport    float64     `json:"ltp_vs_support"`
	LTPVsResistance float64     `json:"ltp_vs_resistance"`
	DefaultsApplied bool        `json:"defaults_applied,omitempty"`
	Note            string      `json:"note,omitempty"`
}

// TechnicalReport is the technical task's result for all indices.
type TechnicalReport struct {
	Indices   map[string]IndexTechnicals `json:"indices"`
	Timestamp time.Time                  `json:"timestamp"`
}

// Greeks are Black-Scholes sensitivities. Theta is per day, vega and rho
// per 1% move.
type Greeks struct {
	Delta            float64 `json:"delta"`
	Gamma            float64 `json:"gamma"`
	Theta            float64 `json:"theta"`
	Vega             float64 `json:"vega"`
	Rho              float64 `json:"rho"`
	TheoreticalPrice float64 `json:"theoretical_price"`
	D1               float64 `json:"d1"`
	D2               float64 `json:"d2"`
	IVUsed           float64 `json:"iv_used"`
	Degenerate       bool    `json:"degenerate,omitempty"`
	Reason           string  `json:"reason,omitempty"`
}

// OptionGreeks pairs a contract with its computed Greeks.
type OptionGreeks struct {
	Index  string  `json:"index"`
	Strike float64 `json:"strike"`
	Type   string  `json:"type"`
	LTP    float64 `json:"ltp"`
	OI     int64   `json:"oi"`
	Volume int64   `json:"volume"`
	Greeks
}

// AlphaBeta holds rolling alpha/beta against the market proxy.
type AlphaBeta struct {
	Alpha           float64 `json:"alpha"` // percent
	Beta            float64 `json:"beta"`
	MarketReturn    float64 `json:"market_return"`    // percent
	PortfolioReturn float64 `json:"portfolio_return"` // percent
	WindowPeriods   int     `json:"window_periods"`
	Note            string  `json:"note,omitempty"`
}

// RiskReport is the risk task's result.
type RiskReport struct {
	Alpha           float64            `json:"alpha"`
	Beta            float64            `json:"beta"`
	AlphaBetaDetail AlphaBeta          `json:"alpha_beta_detail"`
	GreeksPerOption []OptionGreeks     `json:"greeks_per_option"`
	PortfolioGreeks map[string]float64 `json:"portfolio_greeks"`
	RiskScore       int                `json:"risk_score"` // 0-100
	RiskLabel       string             `json:"risk_label"` // "low" | "medium" | "high"
	RiskFactors     []string           `json:"risk_factors"`
	VIX             float64            `json:"vix"`
	Timestamp       time.Time          `json:"timestamp"`
}

// ScoredOption is an options-chain row annotated with activity scoring.
type ScoredOption struct {
	OptionQuote
	ActivityScore float64 `json:"activity_score"`
	ActivityLabel string  `json:"activity_label"` // "high" | "medium" | "low"
	OIRatio       float64 `json:"oi_ratio"`
	VolRatio      float64 `json:"vol_ratio"`
	OIChangePct   float64 `json:"oi_change_pct"`
	Comparison    string  `json:"comparison"`
}

// BuildupSignal flags significant OI buildup or unwinding at a strike.
type BuildupSignal struct {
	Strike         float64 `json:"strike"`
	Type           string  `json:"type"`
	Index          string  `json:"index"`
	Signal         string  `json:"signal"` // "buildup" | "unwinding"
	OIChange       int64   `json:"oi_change"`
	OIChangePct    float64 `json:"oi_change_pct"`
	Interpretation string  `json:"interpretation"`
}

// PCRStats is a per-index put-call ratio reading.
type PCRStats struct {
	OIPCR     float64 `json:"oi_pcr"`
	VolumePCR float64 `json:"volume_pcr"`
	Signal    string  `json:"signal"` // "bullish" | "bearish" | "neutral"
}

// MaxPainLevel is the strike minimizing total option-buyer payoff.
type MaxPainLevel struct {
	Strike    float64 `json:"max_pain_strike"`
	TotalPain float64 `json:"total_pain_value"`
}

// ActivityReport is the active-trades task's result.
type ActivityReport struct {
	TopActive      []ScoredOption          `json:"top_active"`
	MediumActivity []ScoredOption          `json:"medium_activity"`
	BuildupSignals []BuildupSignal         `json:"buildup_signals"`
	PCR            map[string]PCRStats     `json:"pcr"`
	MaxPain        map[string]MaxPainLevel `json:"max_pain"`
	TotalScanned   int                     `json:"total_scanned"`
	HighCount      int                     `json:"high_count"`
	MediumCount    int                     `json:"medium_count"`
	Timestamp      time.Time               `json:"timestamp"`
}

// HeadlineSentiment scores a single headline.
type HeadlineSentiment struct {
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Label  string  `json:"label"`
	Source string  `json:"source,omitempty"`
}

// SentimentReport is the sentiment task's result.
type SentimentReport struct {
	Score              float64             `json:"sentiment_score"` // [-1, 1]
	Label              string              `json:"label"`           // "positive" | "negative" | "neutral"
	PerHeadline        []HeadlineSentiment `json:"per_headline"`
	ImpactAnalysis     string              `json:"impact_analysis"`
	VolatilityCatalyst bool                `json:"volatility_catalyst"`
	Method             string              `json:"method,omitempty"`
}

// VoteCounts tallies directional votes across signal sources.
type VoteCounts struct {
	Bullish int `json:"bullish"`
	Bearish int `json:"bearish"`
	Neutral int `json:"neutral"`
}

// Alignment summarizes signal agreement across the analysis tasks.
type Alignment struct {
	Signals      VoteCounts `json:"signals"`
	Dominant     string     `json:"dominant"`
	AlignmentPct float64    `json:"alignment_percentage"`
	IsAligned    bool       `json:"is_aligned"`
}

// TradeAction is a single recommended action.
type TradeAction struct {
	Action        string  `json:"action"` // "BUY" | "HEDGE" | "HOLD"
	Type          string  `json:"type"`   // "CALL" | "PUT" | "STRADDLE" | "WAIT"
	Index         string  `json:"index,omitempty"`
	Strike        float64 `json:"strike,omitempty"`
	Reason        string  `json:"reason"`
	ActivityScore float64 `json:"activity_score,omitempty"`
}

// Decision is the decision task's result.
type Decision struct {
	Recommendations []TradeAction `json:"recommendations"`
	PrimaryAction   TradeAction   `json:"primary_action"`
	Alignment       Alignment     `json:"alignment"`
	Confidence      float64       `json:"confidence"`
	MarketRegime    string        `json:"market_regime"`
	Narrative       string        `json:"narrative,omitempty"`
	Disclaimer      string        `json:"disclaimer"`
	Timestamp       time.Time     `json:"timestamp"`
}

// HealthCheck reports the cycle's execution health.
type HealthCheck struct {
	Status         string   `json:"status"` // "healthy" | "degraded" | "unhealthy"
	TasksCompleted int      `json:"tasks_completed"`
	TaskList       []string `json:"task_list"`
	Errors         int      `json:"errors"`
	Issues         []string `json:"issues"`
}

// Alert is a monitoring alert raised at the end of a cycle.
type Alert struct {
	Type     string `json:"type"`
	Severity string `json:"severity"` // "low" | "medium" | "high"
	Message  string `json:"message"`
	Action   string `json:"action"`
}

// Suggestion is a monitoring optimization hint.
type Suggestion struct {
	Type       string `json:"type"`
	Suggestion string `json:"suggestion"`
	Priority   string `json:"priority"`
}

// TaskTiming records one task's duration and status for monitoring.
type TaskTiming struct {
	DurationMs float64 `json:"duration_ms"`
	Status     string  `json:"status"`
}

// Performance aggregates per-task timings for a cycle.
type Performance struct {
	CycleDurationMs    float64               `json:"cycle_duration_ms"`
	TaskTimings        map[string]TaskTiming `json:"task_timings"`
	DecisionConfidence float64               `json:"decision_confidence,omitempty"`
	PrimaryAction      string                `json:"primary_action,omitempty"`
}

// MonitorReport is the monitor task's result.
type MonitorReport struct {
	Health        HealthCheck  `json:"health"`
	Performance   Performance  `json:"performance"`
	Alerts        []Alert      `json:"alerts"`
	Optimizations []Suggestion `json:"optimizations"`
	Timestamp     time.Time    `json:"timestamp"`
}
