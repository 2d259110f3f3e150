package llm

import (
	"context"
	"testing"
)

func TestChatJSONUnavailableReturnsError(t *testing.T) {
	var c *Client
	if _, err := c.ChatJSON(context.Background(), "score this", 0.2); err == nil {
		t.Fatalf("nil client should error, not block callers")
	}

	c = &Client{retries: 1}
	raw, err := c.ChatJSON(context.Background(), "score this", 0.2)
	if err == nil {
		t.Fatalf("unavailable client should error")
	}
	if raw != "" {
		t.Fatalf("unexpected text %q", raw)
	}
}
