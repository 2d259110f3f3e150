package agents

import (
	"context"
	"fmt"
	"math"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/llm"
	"TradePulse/internal/state"
	applogger "TradePulse/pkg/logger"
	"TradePulse/pkg/util"
)

const decisionDisclaimer = "AI-generated analysis for educational purposes only. Not financial advice. Paper trading only."

// Decision synthesizes the analysis tasks into actionable recommendations.
// Alignment across sentiment, technicals, risk and options flow drives
// confidence; the LLM adds a narrative when reachable.
type Decision struct {
	llm        *llm.Client
	defaultVIX float64
	defaultLTP map[string]float64
	l          *applogger.Logger
}

func NewDecision(c *llm.Client, defaultVIX float64, defaultLTP map[string]float64, l *applogger.Logger) *Decision {
	if defaultVIX <= 0 {
		defaultVIX = 15
	}
	if len(defaultLTP) == 0 {
		defaultLTP = map[string]float64{models.IndexNifty: 25000}
	}
	return &Decision{llm: c, defaultVIX: defaultVIX, defaultLTP: defaultLTP, l: l}
}

func (a *Decision) Name() string { return "decision" }

func (a *Decision) Run(ctx context.Context, st *state.SharedState) (any, error) {
	sentiment := sentimentFrom(st)
	technicals := technicalsFrom(st)
	risk := riskFrom(st)
	activity := activityFrom(st)
	ltp := ltpFrom(st)
	vix := vixFrom(st, a.defaultVIX)

	alignment := checkAlignment(sentiment, technicals, risk, activity)
	decision := buildDecision(alignment, technicals, risk, activity, ltp, vix, a.defaultLTP[models.IndexNifty])

	if a.llm != nil && a.llm.Available() {
		decision.Narrative = a.narrate(ctx, sentiment, technicals, risk, activity, ltp, vix)
	}

	st.Set(state.KeyDecision, decision)
	a.l.Info("decision made",
		applogger.String("action", decision.PrimaryAction.Action),
		applogger.String("dominant", alignment.Dominant),
		applogger.Float64("confidence", decision.Confidence),
		applogger.String("regime", decision.MarketRegime),
	)
	return decision, nil
}

// checkAlignment tallies directional votes from every analysis source.
// One vote from sentiment, one per index from technicals, one inverse
// vote from the risk label, one per index from PCR.
func checkAlignment(sentiment *models.SentimentReport, technicals *models.TechnicalReport, risk *models.RiskReport, activity *models.ActivityReport) models.Alignment {
	var votes models.VoteCounts

	switch {
	case sentiment.Score > 0.2:
		votes.Bullish++
	case sentiment.Score < -0.2:
		votes.Bearish++
	default:
		votes.Neutral++
	}

	for _, idx := range technicals.Indices {
		switch {
		case idx.Trend == "upward" || idx.RSISignal == "bullish" || idx.RSISignal == "oversold":
			votes.Bullish++
		case idx.Trend == "downward" || idx.RSISignal == "bearish" || idx.RSISignal == "overbought":
			votes.Bearish++
		default:
			votes.Neutral++
		}
	}

	switch risk.RiskLabel {
	case "low":
		votes.Bullish++
	case "high":
		votes.Bearish++
	default:
		votes.Neutral++
	}

	for _, pcr := range activity.PCR {
		switch pcr.Signal {
		case "bullish":
			votes.Bullish++
		case "bearish":
			votes.Bearish++
		default:
			votes.Neutral++
		}
	}

	total := votes.Bullish + votes.Bearish + votes.Neutral
	if total == 0 {
		total = 1
	}
	// Ties resolve bullish, then bearish, then neutral.
	dominant, count := "bullish", votes.Bullish
	if votes.Bearish > count {
		dominant, count = "bearish", votes.Bearish
	}
	if votes.Neutral > count {
		dominant, count = "neutral", votes.Neutral
	}
	pct := float64(count) / float64(total)

	return models.Alignment{
		Signals:      votes,
		Dominant:     dominant,
		AlignmentPct: util.RoundN(pct*100, 1),
		IsAligned:    pct >= 0.6,
	}
}

func buildDecision(alignment models.Alignment, technicals *models.TechnicalReport, risk *models.RiskReport, activity *models.ActivityReport, ltp map[string]float64, vix, defaultNifty float64) *models.Decision {
	regime := marketRegime(vix)
	confidence := 0.3
	var actions []models.TradeAction

	switch {
	case alignment.IsAligned && risk.RiskLabel != "high":
		confidence += 0.3
		switch alignment.Dominant {
		case "bullish":
			actions = flowActions(activity.TopActive, models.OptionCall, "CALL", "Bullish alignment + high activity")
			if len(actions) == 0 {
				actions = append(actions, fallbackAction(technicals, ltp, defaultNifty, "CALL", "Bullish alignment, buy near support"))
			}
		case "bearish":
			actions = flowActions(activity.TopActive, models.OptionPut, "PUT", "Bearish alignment + high activity")
			if len(actions) == 0 {
				actions = append(actions, fallbackAction(technicals, ltp, defaultNifty, "PUT", "Bearish alignment, buy near resistance"))
			}
		}
	case regime == "high_volatility":
		confidence = math.Max(confidence, 0.4)
		actions = append(actions, models.TradeAction{
			Action: "HEDGE",
			Type:   "STRADDLE",
			Index:  models.IndexNifty,
			Reason: fmt.Sprintf("High VIX (%.1f), straddle for volatility play", vix),
		})
	default:
		confidence = 0.2
		actions = append(actions, models.TradeAction{
			Action: "HOLD",
			Type:   "WAIT",
			Reason: "Signals not aligned or risk too high. Wait for clearer setup.",
		})
	}

	switch risk.RiskLabel {
	case "high":
		confidence *= 0.7
	case "low":
		confidence = math.Min(confidence*1.2, 0.95)
	}

	primary := models.TradeAction{Action: "HOLD", Type: "WAIT", Reason: "No clear signal"}
	if len(actions) > 0 {
		primary = actions[0]
	}

	return &models.Decision{
		Recommendations: actions,
		PrimaryAction:   primary,
		Alignment:       alignment,
		Confidence:      util.RoundN(confidence, 2),
		MarketRegime:    regime,
		Disclaimer:      decisionDisclaimer,
		Timestamp:       time.Now(),
	}
}

// flowActions picks up to three top-activity contracts of the wanted type.
func flowActions(topActive []models.ScoredOption, optionType, actionType, reason string) []models.TradeAction {
	var actions []models.TradeAction
	limit := len(topActive)
	if limit > 3 {
		limit = 3
	}
	for _, opt := range topActive[:limit] {
		if opt.Type != optionType {
			continue
		}
		actions = append(actions, models.TradeAction{
			Action:        "BUY",
			Type:          actionType,
			Index:         opt.Index,
			Strike:        opt.Strike,
			Reason:        fmt.Sprintf("%s (%s)", reason, opt.Comparison),
			ActivityScore: opt.ActivityScore,
		})
	}
	return actions
}

// fallbackAction anchors the strike to nifty support or resistance when
// the options flow offers no candidate.
func fallbackAction(technicals *models.TechnicalReport, ltp map[string]float64, defaultNifty float64, actionType, reason string) models.TradeAction {
	strike := ltp[models.IndexNifty]
	if strike == 0 {
		strike = defaultNifty
	}
	if nifty, ok := technicals.Indices[models.IndexNifty]; ok {
		if actionType == "CALL" && nifty.Support > 0 {
			strike = nifty.Support
		}
		if actionType == "PUT" && nifty.Resistance > 0 {
			strike = nifty.Resistance
		}
	}
	return models.TradeAction{
		Action: "BUY",
		Type:   actionType,
		Index:  models.IndexNifty,
		Strike: strike,
		Reason: reason,
	}
}

func marketRegime(vix float64) string {
	switch {
	case vix > 25:
		return "high_volatility"
	case vix > 18:
		return "moderate_volatility"
	case vix < 13:
		return "low_volatility"
	default:
		return "normal"
	}
}

func (a *Decision) narrate(ctx context.Context, sentiment *models.SentimentReport, technicals *models.TechnicalReport, risk *models.RiskReport, activity *models.ActivityReport, ltp map[string]float64, vix float64) string {
	techSummary := map[string]any{}
	for name, idx := range technicals.Indices {
		techSummary[name] = map[string]any{
			"trend":      idx.Trend,
			"rsi":        idx.RSI,
			"support":    idx.Support,
			"resistance": idx.Resistance,
		}
	}
	topActive := make([]map[string]any, 0, 3)
	for i, opt := range activity.TopActive {
		if i >= 3 {
			break
		}
		topActive = append(topActive, map[string]any{
			"strike": opt.Strike, "type": opt.Type, "score": opt.ActivityScore,
		})
	}

	prompt := llm.BuildPrompt("decision",
		[]string{
			"Check whether sentiment, trend, risk and options flow align.",
			"Recommend specific actions with strike prices and reasons.",
			"Include a position sizing suggestion as percent of capital.",
		},
		map[string]any{
			"sentiment_score": sentiment.Score,
			"technicals":      techSummary,
			"risk_score":      risk.RiskScore,
			"risk_label":      risk.RiskLabel,
			"vix":             vix,
			"ltp":             ltp,
			"top_active":      topActive,
		},
		[]string{"recommendation", "confidence", "reasoning", "position_size", "stop_loss", "target"},
	)

	raw, err := a.llm.ChatJSON(ctx, prompt, 0.3)
	if err != nil || raw == "" {
		return ""
	}
	parsed := llm.ParseJSON(raw)
	if s, ok := parsed["reasoning"].(string); ok {
		return s
	}
	return raw
}
