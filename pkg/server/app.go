package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	drepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/handler/ws"
	"TradePulse/internal/usecase"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
	applogger "TradePulse/pkg/logger"
	"TradePulse/pkg/queue"
)

// App owns the application lifecycle: the HTTP server, the cycle
// orchestrator, the websocket hub and the optional alert queue
// consumer.
type App struct {
	cfg    *config.Config
	l      *applogger.Logger
	orch   *usecase.Orchestrator
	store  drepo.AuditStore
	pub    drepo.Publisher
	alerts *queue.RedisQueue
	hub    *ws.Hub
	srv    *xhttp.Server
}

// New assembles the application from its wired dependencies. pub and
// alerts may be nil when Kafka or Redis are not configured.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	orch *usecase.Orchestrator,
	store drepo.AuditStore,
	pub drepo.Publisher,
	alerts *queue.RedisQueue,
	hub *ws.Hub,
	handler xhttp.Handler,
) *App {
	srv := xhttp.NewServer(handler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	)
	return &App{
		cfg:    cfg,
		l:      l,
		orch:   orch,
		store:  store,
		pub:    pub,
		alerts: alerts,
		hub:    hub,
		srv:    srv,
	}
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	// Completed cycles stream to websocket clients.
	a.orch.OnCycleComplete(a.hub.Broadcast)

	if a.alerts != nil {
		if err := a.alerts.Start(); err != nil {
			return err
		}
		a.alerts.StartRetryProcessor()
		a.l.Info("alert queue consumer started")
	}

	if err := a.srv.Start(); err != nil {
		return err
	}
	a.l.Info("server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("environment", a.cfg.Environment),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	a.l.Info("shutdown signal received")

	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	a.orch.Stop()
	a.hub.Close()

	if err := a.srv.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}
	if a.alerts != nil {
		if err := a.alerts.Stop(ctx); err != nil {
			a.l.Error("queue shutdown error", applogger.Error(err))
		}
	}
	if a.pub != nil {
		if err := a.pub.Close(); err != nil {
			a.l.Error("publisher close error", applogger.Error(err))
		}
	}
	if err := a.store.Close(); err != nil {
		a.l.Error("audit store close error", applogger.Error(err))
	}

	a.l.Info("shutdown complete")
	return nil
}
