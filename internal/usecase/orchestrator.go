package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/state"
	"TradePulse/pkg/config"
	applogger "TradePulse/pkg/logger"
	"TradePulse/pkg/util"
)

// Agent is one pipeline task. Run reads its inputs from the shared
// state, writes its report back, and returns the report for auditing.
type Agent interface {
	Name() string
	Run(ctx context.Context, st *state.SharedState) (any, error)
}

// OrchestratorConfig carries the scheduling knobs.
type OrchestratorConfig struct {
	IntervalMins int
	MarketOpen   string // "09:15"
	MarketClose  string // "15:30"
	CycleBudget  time.Duration
}

// Orchestrator drives the cycle pipeline:
//
//	init -> data fetch -> [sentiment || technical || risk || active] -> decision -> monitor -> finalize
//
// The parallel stage isolates task failures: a failed sibling is
// recorded and the cycle continues with whatever state exists.
type Orchestrator struct {
	dataFetch Agent
	parallel  []Agent
	decision  Agent
	monitor   Agent

	st      *state.SharedState
	store   drepo.AuditStore
	pub     drepo.Publisher
	metrics drepo.Metrics
	l       *applogger.Logger

	cfg       OrchestratorConfig
	openMins  int
	closeMins int

	// runMu serializes cycles: a manual run-once and a scheduler tick
	// must never share the cycle state.
	runMu sync.Mutex

	mu         sync.Mutex
	running    bool
	cancel     context.CancelFunc
	done       chan struct{}
	cycleCount int
	latest     *models.CycleResult
	onComplete func(*models.CycleResult)

	// now is swappable so tests can pin the clock.
	now func() time.Time
}

func NewOrchestrator(
	cfg OrchestratorConfig,
	dataFetch Agent,
	parallel []Agent,
	decision Agent,
	monitor Agent,
	st *state.SharedState,
	store drepo.AuditStore,
	pub drepo.Publisher,
	metrics drepo.Metrics,
	l *applogger.Logger,
) (*Orchestrator, error) {
	if cfg.IntervalMins <= 0 {
		cfg.IntervalMins = 5
	}
	if cfg.MarketOpen == "" {
		cfg.MarketOpen = "09:15"
	}
	if cfg.MarketClose == "" {
		cfg.MarketClose = "15:30"
	}
	if cfg.CycleBudget <= 0 {
		cfg.CycleBudget = 30 * time.Second
	}
	openMins, err := config.ParseClock(cfg.MarketOpen)
	if err != nil {
		return nil, fmt.Errorf("market open: %w", err)
	}
	closeMins, err := config.ParseClock(cfg.MarketClose)
	if err != nil {
		return nil, fmt.Errorf("market close: %w", err)
	}

	return &Orchestrator{
		dataFetch: dataFetch,
		parallel:  parallel,
		decision:  decision,
		monitor:   monitor,
		st:        st,
		store:     store,
		pub:       pub,
		metrics:   metrics,
		l:         l,
		cfg:       cfg,
		openMins:  openMins,
		closeMins: closeMins,
		now:       time.Now,
	}, nil
}

// OnCycleComplete registers a callback invoked with every finished
// cycle result. The callback runs on the cycle goroutine; panics are
// contained.
func (o *Orchestrator) OnCycleComplete(fn func(*models.CycleResult)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onComplete = fn
}

// RunCycle executes one full pipeline cycle. Task failures are recorded
// in the shared state and do not abort the cycle; anything that escapes
// the task wrappers finalizes the cycle with an error status instead of
// taking down the scheduler. Cycles are serialized, so a manual run
// never overlaps a scheduler tick.
func (o *Orchestrator) RunCycle(ctx context.Context) (result *models.CycleResult, err error) {
	o.runMu.Lock()
	defer o.runMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, o.cfg.CycleBudget)
	defer cancel()

	o.mu.Lock()
	o.cycleCount++
	number := o.cycleCount
	o.mu.Unlock()

	start := o.now()
	cycleID := o.st.StartCycle()
	if logErr := o.store.LogCycleStart(ctx, cycleID); logErr != nil {
		o.l.Warn("cycle start not logged", applogger.Error(logErr))
	}
	o.l.Info("cycle started", applogger.String("cycle_id", cycleID), applogger.Int("number", number))

	var final map[string]any
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err = fmt.Errorf("cycle aborted: %v", r)
		o.l.Error("cycle aborted", applogger.String("cycle_id", cycleID), applogger.String("panic", fmt.Sprint(r)))

		durationMs := float64(o.now().Sub(start)) / float64(time.Millisecond)
		if final == nil {
			final = o.st.EndCycle()
		}
		// Best effort: the audit store may be the thing that panicked.
		func() {
			defer func() {
				if rr := recover(); rr != nil {
					o.l.Error("error cycle not logged", applogger.String("panic", fmt.Sprint(rr)))
				}
			}()
			if logErr := o.store.LogCycleEnd(ctx, cycleID, models.CycleError, durationMs, final); logErr != nil {
				o.l.Warn("cycle end not logged", applogger.Error(logErr))
			}
		}()
		if o.metrics != nil {
			o.metrics.RecordCycle(models.CycleError)
		}
		result = &models.CycleResult{
			CycleID:     cycleID,
			CycleNumber: number,
			Status:      models.CycleError,
			DurationMs:  util.Round2(durationMs),
			Timestamp:   o.now(),
			Summary:     fmt.Sprintf("Cycle aborted: %v", r),
			MarketData:  models.CycleMarket{LTP: map[string]float64{}},
		}
		o.mu.Lock()
		o.latest = result
		o.mu.Unlock()
	}()

	o.runTask(ctx, o.dataFetch)

	var wg sync.WaitGroup
	for _, agent := range o.parallel {
		wg.Add(1)
		go func(a Agent) {
			defer wg.Done()
			o.runTask(ctx, a)
		}(agent)
	}
	wg.Wait()

	o.runTask(ctx, o.decision)
	o.runTask(ctx, o.monitor)

	final = o.st.EndCycle()
	durationMs := float64(o.now().Sub(start)) / float64(time.Millisecond)

	status := models.CycleCompleted
	if logErr := o.store.LogCycleEnd(ctx, cycleID, status, durationMs, final); logErr != nil {
		o.l.Warn("cycle end not logged", applogger.Error(logErr))
	}
	if o.metrics != nil {
		o.metrics.RecordCycle(status)
	}

	result = o.buildResult(cycleID, number, status, durationMs, final)

	o.mu.Lock()
	o.latest = result
	callback := o.onComplete
	o.mu.Unlock()

	if o.pub != nil {
		if err := o.pub.PublishCycle(ctx, result); err != nil {
			o.l.Warn("cycle publish failed", applogger.Error(err))
		}
	}
	if callback != nil {
		o.safeCallback(callback, result)
	}

	o.l.Info("cycle completed",
		applogger.String("cycle_id", cycleID),
		applogger.Float64("duration_ms", util.Round2(durationMs)),
		applogger.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// runTask wraps one agent with timing, panic containment, state
// recording and audit logging.
func (o *Orchestrator) runTask(ctx context.Context, agent Agent) {
	if agent == nil {
		return
	}
	start := o.now()
	output := models.TaskOutput{
		TaskName:  agent.Name(),
		Timestamp: start,
		Status:    models.TaskSuccess,
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				output.Status = models.TaskError
				output.Error = fmt.Sprintf("panic: %v", r)
			}
		}()
		data, err := agent.Run(ctx, o.st)
		if err != nil {
			output.Status = models.TaskError
			output.Error = err.Error()
			return
		}
		output.Data = data
	}()

	output.DurationMs = float64(o.now().Sub(start)) / float64(time.Millisecond)
	o.st.RecordTaskOutput(output)
	if err := o.store.LogTaskOutput(ctx, o.st.CycleID(), output); err != nil {
		o.l.Warn("task output not logged", applogger.String("task", output.TaskName), applogger.Error(err))
	}
	if o.metrics != nil {
		o.metrics.RecordTask(output.TaskName, output.Status, output.DurationMs/1000)
	}
	if output.Status == models.TaskError {
		o.l.Error("task failed", applogger.String("task", output.TaskName), applogger.String("error", output.Error))
	}
}

// SetInterval changes the cycle cadence. It is ignored while the
// scheduler loop is running.
func (o *Orchestrator) SetInterval(mins int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running || mins <= 0 {
		return
	}
	o.cfg.IntervalMins = mins
}

// Start launches the scheduler loop. Calling Start while running is a
// no-op.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		o.l.Warn("orchestrator already running")
		return
	}
	o.running = true

	loopCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.done = make(chan struct{})

	o.l.Info("orchestrator started", applogger.Int("interval_mins", o.cfg.IntervalMins))
	go o.schedulerLoop(loopCtx)
}

// Stop cancels the scheduler loop and waits for it to exit.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.running = false
	cancel, done := o.cancel, o.done
	o.mu.Unlock()

	cancel()
	<-done
	o.l.Info("orchestrator stopped")
}

func (o *Orchestrator) schedulerLoop(ctx context.Context) {
	defer close(o.done)

	interval := time.Duration(o.cfg.IntervalMins) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	o.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.tick(ctx)
		}
	}
}

func (o *Orchestrator) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !o.inWindow(o.now()) {
		o.l.Info("outside trading window, cycle skipped",
			applogger.String("window", o.cfg.MarketOpen+"-"+o.cfg.MarketClose))
		return
	}
	if _, err := o.RunCycle(ctx); err != nil {
		o.l.Error("cycle failed", applogger.Error(err))
	}
}

// inWindow reports whether t falls inside the trading window,
// boundaries included.
func (o *Orchestrator) inWindow(t time.Time) bool {
	mins := t.Hour()*60 + t.Minute()
	return mins >= o.openMins && mins <= o.closeMins
}

// Running reports whether the scheduler loop is active.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// Latest returns the most recent cycle result, nil before the first
// cycle.
func (o *Orchestrator) Latest() *models.CycleResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.latest
}

// Status summarizes the orchestrator for the status endpoint.
func (o *Orchestrator) Status() map[string]any {
	o.mu.Lock()
	running := o.running
	count := o.cycleCount
	latest := o.latest
	o.mu.Unlock()

	now := o.now()
	status := map[string]any{
		"running":       running,
		"cycle_count":   count,
		"in_window":     o.inWindow(now),
		"current_time":  now.Format(time.RFC3339),
		"market_open":   o.cfg.MarketOpen,
		"market_close":  o.cfg.MarketClose,
		"interval_mins": o.cfg.IntervalMins,
		"latest_cycle":  nil,
		"latest_status": nil,
	}
	if latest != nil {
		status["latest_cycle"] = latest.CycleID
		status["latest_status"] = latest.Status
	}
	return status
}

// History returns recent cycle summaries from the audit store.
func (o *Orchestrator) History(ctx context.Context, limit int) ([]models.CycleRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return o.store.RecentCycles(ctx, limit)
}

// CycleDetail returns one persisted cycle with its full state.
func (o *Orchestrator) CycleDetail(ctx context.Context, cycleID string) (*models.CycleRecord, error) {
	return o.store.CycleDetail(ctx, cycleID)
}

// OiHistory exposes the rolling OI rows for a contract.
func (o *Orchestrator) OiHistory(ctx context.Context, strike float64, optionType string, limit int) ([]models.OiSample, error) {
	if limit <= 0 {
		limit = 5
	}
	return o.store.OiHistory(ctx, strike, optionType, limit)
}

func (o *Orchestrator) buildResult(cycleID string, number int, status string, durationMs float64, final map[string]any) *models.CycleResult {
	result := &models.CycleResult{
		CycleID:     cycleID,
		CycleNumber: number,
		Status:      status,
		DurationMs:  util.Round2(durationMs),
		Timestamp:   o.now(),
		MarketData:  models.CycleMarket{LTP: map[string]float64{}},
	}

	if completed, ok := final[state.KeyTasksCompleted].([]string); ok {
		result.TasksCompleted = completed
	}
	if faults, ok := final[state.KeyErrors].([]models.TaskFault); ok {
		result.Errors = faults
	}
	if ltp, ok := final[state.KeyLTP].(map[string]float64); ok {
		result.MarketData.LTP = ltp
	}
	if vix, ok := final[state.KeyVIX].(float64); ok {
		result.MarketData.VIX = vix
	}
	if decision, ok := final[state.KeyDecision].(*models.Decision); ok {
		result.Decision = decision
	}
	if monitor, ok := final[state.KeyMonitor].(*models.MonitorReport); ok {
		result.Alerts = monitor.Alerts
	}
	if risk, ok := final[state.KeyRiskMetrics].(*models.RiskReport); ok {
		result.Risk = models.CycleRisk{Score: risk.RiskScore, Label: risk.RiskLabel}
	}
	if sentiment, ok := final[state.KeySentiment].(*models.SentimentReport); ok {
		result.Sentiment = models.CycleSentiment{Score: sentiment.Score, Label: sentiment.Label}
	}
	if activity, ok := final[state.KeyActiveTrades].(*models.ActivityReport); ok {
		top := activity.TopActive
		if len(top) > 3 {
			top = top[:3]
		}
		result.ActiveTrades = models.CycleActivity{Top: top, PCR: activity.PCR}
	}

	result.Summary = buildSummary(result)
	return result
}

// buildSummary renders the one-line human summary shown in logs and the
// dashboard feed.
func buildSummary(r *models.CycleResult) string {
	var parts []string

	if len(r.MarketData.LTP) > 0 {
		prices := make([]string, 0, len(r.MarketData.LTP))
		for _, idx := range []string{models.IndexNifty, models.IndexBankNifty, models.IndexSensex} {
			if v, ok := r.MarketData.LTP[idx]; ok {
				prices = append(prices, fmt.Sprintf("%s: %.0f", idx, v))
			}
		}
		if len(prices) > 0 {
			parts = append(parts, strings.Join(prices, ", "))
		}
	}
	if r.MarketData.VIX > 0 {
		parts = append(parts, fmt.Sprintf("VIX: %.1f", r.MarketData.VIX))
	}
	if r.Sentiment.Label != "" {
		parts = append(parts, fmt.Sprintf("Sentiment: %s (%.2f)", r.Sentiment.Label, r.Sentiment.Score))
	}
	if r.Risk.Label != "" {
		parts = append(parts, fmt.Sprintf("Risk: %s (%d/100)", r.Risk.Label, r.Risk.Score))
	}
	if r.Decision != nil {
		parts = append(parts, fmt.Sprintf("Action: %s %s", r.Decision.PrimaryAction.Action, r.Decision.PrimaryAction.Reason))
	}

	if len(parts) == 0 {
		return "Cycle completed"
	}
	return strings.Join(parts, " | ")
}

func (o *Orchestrator) safeCallback(fn func(*models.CycleResult), result *models.CycleResult) {
	defer func() {
		if r := recover(); r != nil {
			o.l.Error("cycle callback panicked", applogger.String("panic", fmt.Sprint(r)))
		}
	}()
	fn(result)
}
