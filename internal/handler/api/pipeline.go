package api

import (
	"errors"
	"net/http"

	models "TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/handler/ws"
	"TradePulse/internal/service/ratelimit"
	"TradePulse/internal/usecase"
	xhttp "TradePulse/pkg/http"
	xlogger "TradePulse/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboard clients connect cross-origin in dev setups.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// PipelineHandler exposes the pipeline control and audit endpoints plus
// the websocket feed.
type PipelineHandler struct {
	logger *xlogger.Logger
	orch   *usecase.Orchestrator
	hub    *ws.Hub
	rl     *ratelimit.Limiter
}

func NewPipelineHandler(logger *xlogger.Logger, orch *usecase.Orchestrator, hub *ws.Hub) *PipelineHandler {
	return &PipelineHandler{logger: logger, orch: orch, hub: hub, rl: ratelimit.New()}
}

func (h *PipelineHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/autotrade")
	g.POST("/start", h.Start)
	g.POST("/stop", h.Stop)
	g.POST("/run-once", h.RunOnce)
	g.GET("/status", h.Status)
	g.GET("/history", h.History)
	g.GET("/cycles/:id", h.CycleDetail)
	g.GET("/oi-history", h.OiHistory)
	e.GET("/ws", h.Websocket)
}

func (h *PipelineHandler) Start(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()+":start", 3, 1) {
		h.logger.Warn("pipeline.start rate_limited", xlogger.String("remote", c.RealIP()))
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limited")
	}

	req := &models.StartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	h.orch.SetInterval(req.IntervalMins)
	h.orch.Start(c.Request().Context())
	return xhttp.SuccessResponse(c, h.orch.Status())
}

func (h *PipelineHandler) Stop(c echo.Context) error {
	h.orch.Stop()
	return xhttp.SuccessResponse(c, h.orch.Status())
}

// RunOnce triggers one cycle immediately, ignoring the trading window.
func (h *PipelineHandler) RunOnce(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()+":run-once", 2, 0.5) {
		h.logger.Warn("pipeline.run_once rate_limited", xlogger.String("remote", c.RealIP()))
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limited")
	}

	result, err := h.orch.RunCycle(c.Request().Context())
	if err != nil {
		h.logger.Error("manual cycle error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, result)
}

func (h *PipelineHandler) Status(c echo.Context) error {
	status := h.orch.Status()
	status["ws_clients"] = h.hub.Clients()
	return xhttp.SuccessResponse(c, status)
}

func (h *PipelineHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	records, err := h.orch.History(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("history query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, records, int64(len(records)))
}

func (h *PipelineHandler) CycleDetail(c echo.Context) error {
	cycleID := c.Param("id")
	if cycleID == "" {
		return xhttp.BadRequestResponse(c, "cycle id required")
	}

	record, err := h.orch.CycleDetail(c.Request().Context(), cycleID)
	if err != nil {
		if errors.Is(err, domrepo.ErrNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("cycle %s not found", cycleID))
		}
		h.logger.Error("cycle detail error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, record)
}

func (h *PipelineHandler) OiHistory(c echo.Context) error {
	req := &models.OiHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	samples, err := h.orch.OiHistory(c.Request().Context(), req.Strike, req.Type, req.Limit)
	if err != nil {
		h.logger.Error("oi history error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, samples, int64(len(samples)))
}

func (h *PipelineHandler) Websocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return err
	}
	h.hub.Register(conn)
	return nil
}
