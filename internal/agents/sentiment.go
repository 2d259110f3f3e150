package agents

import (
	"context"
	"fmt"
	"strings"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/llm"
	"TradePulse/internal/state"
	applogger "TradePulse/pkg/logger"
)

var positiveKeywords = []string{
	"surge", "rally", "gain", "rise", "jump", "soar", "boost", "bullish",
	"record high", "upgrade", "outperform", "beat", "strong", "growth",
	"recovery", "optimism", "buy",
}

var negativeKeywords = []string{
	"fall", "drop", "decline", "crash", "plunge", "slump", "bearish",
	"downgrade", "underperform", "miss", "weak", "loss", "selloff",
	"fear", "concern", "recession", "sell",
}

// Sentiment scores market headlines. It prefers the LLM when one is
// reachable and falls back to keyword counting otherwise.
type Sentiment struct {
	llm *llm.Client
	l   *applogger.Logger
}

func NewSentiment(c *llm.Client, l *applogger.Logger) *Sentiment {
	return &Sentiment{llm: c, l: l}
}

func (a *Sentiment) Name() string { return "sentiment" }

func (a *Sentiment) Run(ctx context.Context, st *state.SharedState) (any, error) {
	news := newsFrom(st)
	if len(news) == 0 {
		report := &models.SentimentReport{
			Label:          "neutral",
			ImpactAnalysis: "No market news available this cycle.",
			Method:         "none",
		}
		st.Set(state.KeySentiment, report)
		return report, nil
	}

	var report *models.SentimentReport
	if a.llm != nil && a.llm.Available() {
		report = a.scoreWithLLM(ctx, news)
	}
	if report == nil {
		report = scoreWithKeywords(news)
	}

	st.Set(state.KeySentiment, report)
	a.l.Info("sentiment scored",
		applogger.Float64("score", report.Score),
		applogger.String("label", report.Label),
		applogger.String("method", report.Method),
	)
	return report, nil
}

func (a *Sentiment) scoreWithLLM(ctx context.Context, news []models.NewsItem) *models.SentimentReport {
	headlines := make([]string, 0, len(news))
	for _, n := range news {
		headlines = append(headlines, n.Title)
	}
	prompt := llm.BuildPrompt("sentiment",
		[]string{
			"Score the overall market sentiment of these headlines on a scale from -1 (very bearish) to 1 (very bullish).",
			"Explain the likely impact on Indian index options in one or two sentences.",
			"Flag whether any headline is a volatility catalyst.",
		},
		map[string]any{"headlines": headlines},
		[]string{"sentiment_score", "label", "impact_analysis", "volatility_catalyst"},
	)

	raw, err := a.llm.ChatJSON(ctx, prompt, 0.2)
	if err != nil || raw == "" {
		return nil
	}
	parsed := llm.ParseJSON(raw)

	score, ok := parsed["sentiment_score"].(float64)
	if !ok {
		return nil
	}
	score = clamp(score, -1, 1)
	report := &models.SentimentReport{
		Score:  score,
		Label:  labelFor(score),
		Method: "llm",
	}
	if s, ok := parsed["impact_analysis"].(string); ok {
		report.ImpactAnalysis = s
	}
	if b, ok := parsed["volatility_catalyst"].(bool); ok {
		report.VolatilityCatalyst = b
	}
	return report
}

// scoreWithKeywords counts sentiment keywords per headline. Each hit is
// worth 0.3 in its direction, clamped to [-1, 1].
func scoreWithKeywords(news []models.NewsItem) *models.SentimentReport {
	perHeadline := make([]models.HeadlineSentiment, 0, len(news))
	var total float64
	for _, n := range news {
		text := strings.ToLower(n.Title + " " + n.Summary)
		var pos, neg int
		for _, kw := range positiveKeywords {
			if strings.Contains(text, kw) {
				pos++
			}
		}
		for _, kw := range negativeKeywords {
			if strings.Contains(text, kw) {
				neg++
			}
		}
		score := clamp(float64(pos-neg)*0.3, -1, 1)
		total += score
		perHeadline = append(perHeadline, models.HeadlineSentiment{
			Text:   n.Title,
			Score:  score,
			Label:  labelFor(score),
			Source: n.Source,
		})
	}

	avg := clamp(total/float64(len(news)), -1, 1)
	report := &models.SentimentReport{
		Score:              avg,
		Label:              labelFor(avg),
		PerHeadline:        perHeadline,
		VolatilityCatalyst: avg > 0.6 || avg < -0.6,
		Method:             "keyword",
	}
	report.ImpactAnalysis = impactText(report)
	return report
}

func labelFor(score float64) string {
	switch {
	case score > 0.2:
		return "positive"
	case score < -0.2:
		return "negative"
	default:
		return "neutral"
	}
}

func impactText(r *models.SentimentReport) string {
	switch r.Label {
	case "positive":
		return fmt.Sprintf("News flow is net positive (%.2f); call buying and premium expansion on upside strikes is likely.", r.Score)
	case "negative":
		return fmt.Sprintf("News flow is net negative (%.2f); put demand and defensive positioning is likely.", r.Score)
	default:
		return fmt.Sprintf("News flow is balanced (%.2f); no clear directional pressure from headlines.", r.Score)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
