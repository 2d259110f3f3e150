package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsApplied(t *testing.T) {
	c := Default()
	if c.AutoTrade.IntervalMins != 5 {
		t.Fatalf("interval default: got %d", c.AutoTrade.IntervalMins)
	}
	if c.AutoTrade.DefaultVIX != 15.0 {
		t.Fatalf("vix default: got %v", c.AutoTrade.DefaultVIX)
	}
	if c.AutoTrade.RiskFreeRate != 0.05 {
		t.Fatalf("risk-free default: got %v", c.AutoTrade.RiskFreeRate)
	}
	if c.Audit.Driver != "sqlite" {
		t.Fatalf("audit driver default: got %s", c.Audit.Driver)
	}
	if c.MarketData.StalenessBudget != 30*time.Second {
		t.Fatalf("staleness budget default: got %v", c.MarketData.StalenessBudget)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte(`
environment: prod
autotrade:
  interval_mins: 2
  market_open: "09:30"
audit:
  driver: sqlite
  path: /tmp/audit.db
`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.AutoTrade.IntervalMins != 2 {
		t.Fatalf("interval override: got %d", c.AutoTrade.IntervalMins)
	}
	if c.AutoTrade.MarketOpen != "09:30" {
		t.Fatalf("market_open override: got %s", c.AutoTrade.MarketOpen)
	}
	// untouched sections still get defaults
	if c.AutoTrade.MarketClose != "15:30" {
		t.Fatalf("market_close default: got %s", c.AutoTrade.MarketClose)
	}
}

func TestValidateRejectsBadDriver(t *testing.T) {
	c := Default()
	c.Audit.Driver = "postgres"
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for unsupported audit driver")
	}
}

func TestParseClock(t *testing.T) {
	mins, err := ParseClock("09:15")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if mins != 9*60+15 {
		t.Fatalf("got %d", mins)
	}
	for _, bad := range []string{"", "9", "25:00", "10:75", "aa:bb"} {
		if _, err := ParseClock(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
