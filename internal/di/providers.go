package di

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/agents"
	drepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/handler/api"
	"TradePulse/internal/handler/ws"
	"TradePulse/internal/llm"
	"TradePulse/internal/marketdata"
	"TradePulse/internal/notify"
	internalrepo "TradePulse/internal/repository"
	"TradePulse/internal/services/quant"
	"TradePulse/internal/state"
	"TradePulse/internal/usecase"
	"TradePulse/pkg/cache"
	pkgch "TradePulse/pkg/clickhouse"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
	pkgkafka "TradePulse/pkg/kafka"
	applogger "TradePulse/pkg/logger"
	"TradePulse/pkg/metrics"
	"TradePulse/pkg/queue"
	"TradePulse/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideAuditStore opens the configured audit backend and ensures its
// schema.
func ProvideAuditStore(cfg *config.Config, l *applogger.Logger) (drepo.AuditStore, error) {
	var store drepo.AuditStore

	switch cfg.Audit.Driver {
	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		store = internalrepo.NewClickHouseAuditStore(client, l)
	default:
		s, err := internalrepo.NewSQLiteAuditStore(cfg.Audit.Path, l)
		if err != nil {
			return nil, fmt.Errorf("sqlite audit store: %w", err)
		}
		store = s
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("audit schema: %w", err)
	}
	return store, nil
}

// ProvideMarketData builds the snapshot provider: the synthetic source
// wrapped with the staleness-budget cache. Redis backs the cache when
// configured, an in-process TTL map otherwise.
func ProvideMarketData(cfg *config.Config, l *applogger.Logger) (drepo.MarketDataProvider, error) {
	source := marketdata.NewSynthetic(marketdata.SyntheticConfig{
		Indices:    cfg.AutoTrade.Indices,
		BaseLTP:    cfg.AutoTrade.DefaultLTP,
		DefaultVIX: cfg.AutoTrade.DefaultVIX,
		BarsPerDay: cfg.AutoTrade.BarsPerDay,
	}, 0)

	var c cache.Service
	if cfg.MarketData.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		r, err := cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     cfg.MarketData.Redis.Addr,
			Password: cfg.MarketData.Redis.Password,
			DB:       cfg.MarketData.Redis.DB,
			Prefix:   "tradepulse",
		})
		if err != nil {
			return nil, fmt.Errorf("marketdata redis: %w", err)
		}
		// Layer a short-lived local cache in front of Redis so each
		// parallel agent read does not pay a network round trip.
		c = cache.NewLayered(cache.NewMemory(time.Minute), r)
	} else {
		c = cache.NewMemory(time.Minute)
	}

	return marketdata.NewCached(source, c, cfg.MarketData.StalenessBudget, l), nil
}

// ProvideLLM probes the Ollama endpoint; nil means the agents run on
// their rule-based paths only.
func ProvideLLM(cfg *config.Config, l *applogger.Logger) *llm.Client {
	if !cfg.Ollama.Enabled {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return llm.New(ctx, cfg.Ollama.BaseURL, cfg.Ollama.Model, cfg.Ollama.Timeout, cfg.Ollama.Retries, l)
}

// ProvideAlertQueue builds the Redis-backed alert queue running both
// the publisher and consumer sides. Nil when Redis is not configured.
func ProvideAlertQueue(cfg *config.Config, l *applogger.Logger) *queue.RedisQueue {
	if !cfg.MarketData.Redis.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.MarketData.Redis.Addr,
		Password: cfg.MarketData.Redis.Password,
		DB:       cfg.MarketData.Redis.DB,
	})
	q := queue.NewRedisQueue(l,
		&queue.QueueConfig{Workers: 2, QueueSize: 128, RetryLimit: 3, RetryDelay: 5 * time.Second},
		client,
		queue.ModeProducerConsumer,
	)
	q.RegisterJob(notify.NewAlertJob(l))
	return q
}

// ProvidePublisher creates the Kafka cycle publisher, nil when no
// brokers are configured.
func ProvidePublisher(cfg *config.Config, l *applogger.Logger) (drepo.Publisher, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithBatchSize(cfg.Kafka.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return notify.NewKafkaPublisher(producer, cfg.Kafka.Topic, l), nil
}

// ProvideOrchestrator assembles the agents and the pipeline.
func ProvideOrchestrator(
	cfg *config.Config,
	store drepo.AuditStore,
	provider drepo.MarketDataProvider,
	pub drepo.Publisher,
	m drepo.Metrics,
	llmClient *llm.Client,
	alertQueue *queue.RedisQueue,
	l *applogger.Logger,
) (*usecase.Orchestrator, error) {
	thresholds := make(map[string]quant.OiThresholds, len(cfg.AutoTrade.Thresholds))
	for idx, t := range cfg.AutoTrade.Thresholds {
		thresholds[idx] = quant.OiThresholds{MinOI: t.MinOI, MinVolume: t.MinVolume}
	}

	// A nil *RedisQueue must stay a nil interface.
	var alerts queue.QueueService
	if alertQueue != nil {
		alerts = alertQueue
	}

	dataFetch := agents.NewMarketData(provider, m, l)
	parallel := []usecase.Agent{
		agents.NewSentiment(llmClient, l),
		agents.NewTechnical(cfg.AutoTrade.Indices, cfg.AutoTrade.BarsPerDay, l),
		agents.NewRisk(agents.RiskConfig{
			RiskFreeRate: cfg.AutoTrade.RiskFreeRate,
			DefaultVIX:   cfg.AutoTrade.DefaultVIX,
			DefaultLTP:   cfg.AutoTrade.DefaultLTP,
			BarsPerDay:   cfg.AutoTrade.BarsPerDay,
			TradingDays:  cfg.AutoTrade.TradingDays,
			BetaWindow:   cfg.AutoTrade.BetaWindow,
		}, m, l),
		agents.NewActiveTrades(store, thresholds, cfg.AutoTrade.OiHistoryRows, l),
	}
	decision := agents.NewDecision(llmClient, cfg.AutoTrade.DefaultVIX, cfg.AutoTrade.DefaultLTP, l)
	monitor := agents.NewMonitor(alerts, l)

	return usecase.NewOrchestrator(
		usecase.OrchestratorConfig{
			IntervalMins: cfg.AutoTrade.IntervalMins,
			MarketOpen:   cfg.AutoTrade.MarketOpen,
			MarketClose:  cfg.AutoTrade.MarketClose,
			CycleBudget:  cfg.AutoTrade.CycleBudget,
		},
		dataFetch, parallel, decision, monitor,
		state.New(), store, pub, m, l,
	)
}

// ProvideHub creates the websocket broadcast hub.
func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l)
}

// ProvideHandler creates the HTTP API handler.
func ProvideHandler(l *applogger.Logger, orch *usecase.Orchestrator, hub *ws.Hub) xhttp.Handler {
	return api.NewPipelineHandler(l, orch, hub)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	orch *usecase.Orchestrator,
	store drepo.AuditStore,
	pub drepo.Publisher,
	alertQueue *queue.RedisQueue,
	hub *ws.Hub,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, l, orch, store, pub, alertQueue, hub, handler)
}
