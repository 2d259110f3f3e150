package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// IndexThresholds holds per-index activity cutoffs for the options scanner.
type IndexThresholds struct {
	MinOI     int64 `yaml:"min_oi"`
	MinVolume int64 `yaml:"min_volume"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	AutoTrade struct {
		Indices       []string                   `yaml:"indices"`
		IntervalMins  int                        `yaml:"interval_mins"`
		MarketOpen    string                     `yaml:"market_open"`  // "09:15"
		MarketClose   string                     `yaml:"market_close"` // "15:30"
		RiskFreeRate  float64                    `yaml:"risk_free_rate"`
		DefaultVIX    float64                    `yaml:"default_vix"`
		BarsPerDay    int                        `yaml:"bars_per_day"`
		TradingDays   int                        `yaml:"trading_days"`
		BetaWindow    int                        `yaml:"beta_window"`
		OiHistoryRows int                        `yaml:"oi_history_rows"`
		CycleBudget   time.Duration              `yaml:"cycle_budget"`
		DefaultLTP    map[string]float64         `yaml:"default_ltp"`
		Thresholds    map[string]IndexThresholds `yaml:"thresholds"`
	} `yaml:"autotrade"`
	Audit struct {
		Driver string `yaml:"driver"` // sqlite or clickhouse
		Path   string `yaml:"path"`   // sqlite file path
	} `yaml:"audit"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		Linger       time.Duration `yaml:"linger"`
		BatchSize    int           `yaml:"batch_size"`
		BatchBytes   int           `yaml:"batch_bytes"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		Async        bool          `yaml:"async"`
	} `yaml:"kafka"`
	MarketData struct {
		Mode            string        `yaml:"mode"` // synthetic is the only built-in source
		StalenessBudget time.Duration `yaml:"staleness_budget"`
		Redis           struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"marketdata"`
	Ollama struct {
		Enabled bool          `yaml:"enabled"`
		BaseURL string        `yaml:"base_url"`
		Model   string        `yaml:"model"`
		Timeout time.Duration `yaml:"timeout"`
		Retries int           `yaml:"retries"`
	} `yaml:"ollama"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("AUDIT_DRIVER"); v != "" {
		c.Audit.Driver = v
	}
	if v := os.Getenv("AUDIT_PATH"); v != "" {
		c.Audit.Path = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		c.Ollama.BaseURL = v
		c.Ollama.Enabled = true
	}
	if v := os.Getenv("CYCLE_INTERVAL_MINS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.AutoTrade.IntervalMins = n
		}
	}

	return c, nil
}

// Default builds a config with documented defaults and no external backends.
// Tests rely on this instead of a YAML file so the fallback constants stay in
// one place.
func Default() *Config {
	c := &Config{Environment: "dev"}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	at := &c.AutoTrade
	if len(at.Indices) == 0 {
		at.Indices = []string{"nifty50", "banknifty", "sensex"}
	}
	if at.IntervalMins <= 0 {
		at.IntervalMins = 5
	}
	if at.MarketOpen == "" {
		at.MarketOpen = "09:15"
	}
	if at.MarketClose == "" {
		at.MarketClose = "15:30"
	}
	if at.RiskFreeRate == 0 {
		at.RiskFreeRate = 0.05
	}
	if at.DefaultVIX == 0 {
		at.DefaultVIX = 15.0
	}
	if at.BarsPerDay == 0 {
		at.BarsPerDay = 78 // 5-minute candles in one NSE session
	}
	if at.TradingDays == 0 {
		at.TradingDays = 252
	}
	if at.BetaWindow == 0 {
		at.BetaWindow = 12
	}
	if at.OiHistoryRows == 0 {
		at.OiHistoryRows = 5
	}
	if at.CycleBudget == 0 {
		at.CycleBudget = 30 * time.Second
	}
	if len(at.DefaultLTP) == 0 {
		at.DefaultLTP = map[string]float64{
			"nifty50":   25000,
			"banknifty": 53000,
			"sensex":    82000,
		}
	}
	if len(at.Thresholds) == 0 {
		at.Thresholds = map[string]IndexThresholds{
			"nifty50":   {MinOI: 50000, MinVolume: 20000},
			"banknifty": {MinOI: 30000, MinVolume: 15000},
			"sensex":    {MinOI: 10000, MinVolume: 5000},
		}
	}
	if c.Audit.Driver == "" {
		c.Audit.Driver = "sqlite"
	}
	if c.Audit.Path == "" {
		c.Audit.Path = "autotrade_logs.db"
	}
	if c.MarketData.Mode == "" {
		c.MarketData.Mode = "synthetic"
	}
	if c.MarketData.StalenessBudget == 0 {
		c.MarketData.StalenessBudget = 30 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = "llama3.1"
	}
	if c.Ollama.Timeout == 0 {
		c.Ollama.Timeout = 30 * time.Second
	}
	if c.Ollama.Retries == 0 {
		c.Ollama.Retries = 3
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Audit.Driver != "sqlite" && c.Audit.Driver != "clickhouse" {
		return fmt.Errorf("audit.driver must be 'sqlite' or 'clickhouse', got '%s'", c.Audit.Driver)
	}
	if c.Audit.Driver == "clickhouse" && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when audit.driver is clickhouse")
	}
	if len(c.AutoTrade.Indices) == 0 {
		return fmt.Errorf("autotrade.indices cannot be empty")
	}
	if c.AutoTrade.IntervalMins <= 0 {
		return fmt.Errorf("autotrade.interval_mins must be positive")
	}
	if _, err := ParseClock(c.AutoTrade.MarketOpen); err != nil {
		return fmt.Errorf("autotrade.market_open: %w", err)
	}
	if _, err := ParseClock(c.AutoTrade.MarketClose); err != nil {
		return fmt.Errorf("autotrade.market_close: %w", err)
	}
	return nil
}

// ParseClock parses "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock %q, want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}
