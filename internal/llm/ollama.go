// Package llm provides the optional narrative capability: a small
// Ollama chat client used to enrich analysis output. A nil or
// unreachable client is a normal condition; every caller degrades to
// rule-based output without it.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkghttp "TradePulse/pkg/http"
	applogger "TradePulse/pkg/logger"
)

const systemPrompt = "You are an expert Indian stock market analyst specializing in " +
	"intraday options trading for Nifty50, Sensex, and BankNifty. " +
	"Think step-by-step. Be precise with numbers. " +
	"Always consider risk management."

// Client talks to a local Ollama server over its chat API.
type Client struct {
	baseURL   string
	model     string
	retries   int
	http      *pkghttp.Client
	l         *applogger.Logger
	available bool
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

// New probes the Ollama server once; when unreachable the client stays
// constructed but reports unavailable.
func New(ctx context.Context, baseURL, model string, timeout time.Duration, retries int, l *applogger.Logger) *Client {
	if model == "" {
		model = "llama3.1"
	}
	if retries <= 0 {
		retries = 3
	}
	c := &Client{
		baseURL: baseURL,
		model:   model,
		retries: retries,
		http:    pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		l:       l,
	}

	var tags map[string]any
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    baseURL + "/api/tags",
	}, &tags)
	if err != nil {
		if l != nil {
			l.Warn("ollama not reachable, narrative output disabled", applogger.Error(err))
		}
		return c
	}
	c.available = true
	if l != nil {
		l.Info("ollama connected", applogger.String("model", model))
	}
	return c
}

// Available reports whether the server answered the startup probe.
func (c *Client) Available() bool {
	return c != nil && c.available
}

// Chat sends a prompt and returns the raw response text. Retries with
// linear backoff; returns empty on exhaustion rather than failing the
// calling task.
func (c *Client) Chat(ctx context.Context, prompt string, temperature float64) string {
	if !c.Available() {
		return ""
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Stream:  false,
		Options: map[string]any{"temperature": temperature},
	}

	for attempt := 1; attempt <= c.retries; attempt++ {
		var resp chatResponse
		err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
			Method: pkghttp.MethodPost,
			URL:    c.baseURL + "/api/chat",
			Body:   req,
		}, &resp)
		if err == nil {
			return resp.Message.Content
		}
		if c.l != nil {
			c.l.Warn("ollama chat attempt failed",
				applogger.Int("attempt", attempt),
				applogger.Error(err),
			)
		}
		select {
		case <-ctx.Done():
			return ""
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return ""
}

// ChatJSON sends a prompt instructing the model to answer with a bare
// JSON object and returns the raw response text. Callers run it through
// ParseJSON, which tolerates fenced code blocks and surrounding prose.
func (c *Client) ChatJSON(ctx context.Context, prompt string, temperature float64) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("ollama unavailable")
	}
	text := c.Chat(ctx, prompt+
		"\n\nIMPORTANT: You MUST respond with valid JSON only. "+
		"No markdown, no explanation, just the JSON object.", temperature)
	if text == "" {
		return "", fmt.Errorf("ollama: no response after %d attempts", c.retries)
	}
	return text, nil
}

// BuildPrompt assembles the standardized chain-of-thought prompt every
// task uses: role, numbered steps, input data and required output fields.
func BuildPrompt(taskName string, steps []string, data map[string]any, outputFields []string) string {
	dataJSON, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		dataJSON = []byte("{}")
	}
	if len(dataJSON) > 3000 {
		dataJSON = append(dataJSON[:3000], []byte("\n... (truncated)")...)
	}

	stepsStr := ""
	for i, s := range steps {
		stepsStr += fmt.Sprintf("Step %d: %s\n", i+1, s)
	}
	fieldsStr := ""
	for i, f := range outputFields {
		if i > 0 {
			fieldsStr += ", "
		}
		fieldsStr += fmt.Sprintf("%q", f)
	}

	return fmt.Sprintf(`You are the %s in an autonomous trading system.

## Your Input Data
`+"```json\n%s\n```"+`

## Your Task (follow these steps in order)
%s
## Required Output Format
Respond with a JSON object containing these fields: {%s}
Include a "reasoning" field explaining your step-by-step analysis.`,
		taskName, dataJSON, stepsStr, fieldsStr)
}
