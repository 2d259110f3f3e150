package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/repository"
	"TradePulse/internal/state"
	"TradePulse/pkg/logger"
)

type stubAgent struct {
	name string
	fn   func(ctx context.Context, st *state.SharedState) (any, error)
}

func (a *stubAgent) Name() string { return a.name }

func (a *stubAgent) Run(ctx context.Context, st *state.SharedState) (any, error) {
	if a.fn == nil {
		return map[string]any{"ok": true}, nil
	}
	return a.fn(ctx, st)
}

func newTestOrchestrator(t *testing.T, parallel []Agent) *Orchestrator {
	t.Helper()
	store, err := repository.NewSQLiteAuditStore(":memory:", logger.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	fetch := &stubAgent{name: "market_data", fn: func(ctx context.Context, st *state.SharedState) (any, error) {
		st.Set(state.KeyLTP, map[string]float64{models.IndexNifty: 25000})
		st.Set(state.KeyVIX, 15.0)
		return map[string]any{"fetched": true}, nil
	}}
	decision := &stubAgent{name: "decision", fn: func(ctx context.Context, st *state.SharedState) (any, error) {
		d := &models.Decision{
			PrimaryAction: models.TradeAction{Action: "HOLD", Type: "WAIT", Reason: "test"},
			Confidence:    0.5,
		}
		st.Set(state.KeyDecision, d)
		return d, nil
	}}
	monitor := &stubAgent{name: "monitor"}

	o, err := NewOrchestrator(
		OrchestratorConfig{IntervalMins: 5, MarketOpen: "09:15", MarketClose: "15:30"},
		fetch, parallel, decision, monitor,
		state.New(), store, nil, nil, logger.Nop(),
	)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	return o
}

func TestRunCycleHappyPath(t *testing.T) {
	parallel := []Agent{
		&stubAgent{name: "sentiment"},
		&stubAgent{name: "technical"},
		&stubAgent{name: "risk_metrics"},
		&stubAgent{name: "active_trades"},
	}
	o := newTestOrchestrator(t, parallel)

	result, err := o.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if result.Status != models.CycleCompleted {
		t.Fatalf("status = %q, want completed", result.Status)
	}
	if result.CycleNumber != 1 {
		t.Fatalf("cycle number = %d, want 1", result.CycleNumber)
	}
	if len(result.TasksCompleted) != 7 {
		t.Fatalf("tasks completed = %v, want 7 entries", result.TasksCompleted)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if result.MarketData.LTP[models.IndexNifty] != 25000 {
		t.Fatalf("ltp missing from result: %+v", result.MarketData)
	}
	if result.Summary == "" {
		t.Fatalf("summary must be built")
	}

	// The cycle and its tasks must land in the audit store.
	records, err := o.History(context.Background(), 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 1 || records[0].CycleID != result.CycleID {
		t.Fatalf("history = %+v, want the one cycle", records)
	}
	if records[0].Status != models.CycleCompleted {
		t.Fatalf("persisted status = %q", records[0].Status)
	}
}

func TestParallelFailureIsIsolated(t *testing.T) {
	var siblingRan atomic.Bool
	parallel := []Agent{
		&stubAgent{name: "sentiment", fn: func(ctx context.Context, st *state.SharedState) (any, error) {
			return nil, errors.New("llm unreachable")
		}},
		&stubAgent{name: "technical", fn: func(ctx context.Context, st *state.SharedState) (any, error) {
			siblingRan.Store(true)
			return map[string]any{"ok": true}, nil
		}},
	}
	o := newTestOrchestrator(t, parallel)

	result, err := o.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if !siblingRan.Load() {
		t.Fatalf("sibling task must run despite the failure")
	}
	if result.Status != models.CycleCompleted {
		t.Fatalf("status = %q, failed task must not abort the cycle", result.Status)
	}
	if len(result.Errors) != 1 || result.Errors[0].Task != "sentiment" {
		t.Fatalf("errors = %+v, want one sentiment fault", result.Errors)
	}
}

func TestPanickingTaskIsContained(t *testing.T) {
	parallel := []Agent{
		&stubAgent{name: "technical", fn: func(ctx context.Context, st *state.SharedState) (any, error) {
			panic("bad index math")
		}},
	}
	o := newTestOrchestrator(t, parallel)

	result, err := o.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if len(result.Errors) != 1 || result.Errors[0].Task != "technical" {
		t.Fatalf("errors = %+v, want contained panic", result.Errors)
	}
}

// explodingStore wraps a healthy store with a finalize panic, the way a
// broken driver would surface one.
type explodingStore struct {
	drepo.AuditStore
}

func (s *explodingStore) LogCycleEnd(ctx context.Context, cycleID, status string, durationMs float64, fullState map[string]any) error {
	panic("audit store corrupted")
}

func TestCycleFailureFinalizesAsError(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	healthy := o.store
	o.store = &explodingStore{AuditStore: healthy}

	result, err := o.RunCycle(context.Background())
	if err == nil {
		t.Fatalf("a cycle-level panic must surface as an error")
	}
	if result == nil || result.Status != models.CycleError {
		t.Fatalf("result = %+v, want error status", result)
	}
	if latest := o.Latest(); latest == nil || latest.Status != models.CycleError {
		t.Fatalf("latest = %+v, want the failed cycle", latest)
	}

	// The loop survives the failure: the next cycle completes normally.
	o.store = healthy
	result, err = o.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("cycle after failure: %v", err)
	}
	if result.Status != models.CycleCompleted {
		t.Fatalf("status = %q, want completed", result.Status)
	}
	if result.CycleNumber != 2 {
		t.Fatalf("cycle number = %d, want 2", result.CycleNumber)
	}
}

func TestConcurrentRunCyclesAreSerialized(t *testing.T) {
	parallel := []Agent{
		&stubAgent{name: "sentiment", fn: func(ctx context.Context, st *state.SharedState) (any, error) {
			time.Sleep(10 * time.Millisecond)
			return map[string]any{"ok": true}, nil
		}},
		&stubAgent{name: "technical"},
		&stubAgent{name: "risk_metrics"},
		&stubAgent{name: "active_trades"},
	}
	o := newTestOrchestrator(t, parallel)

	results := make(chan *models.CycleResult, 2)
	for i := 0; i < 2; i++ {
		go func() {
			r, err := o.RunCycle(context.Background())
			if err != nil {
				t.Errorf("run cycle: %v", err)
			}
			results <- r
		}()
	}

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		r := <-results
		if r == nil {
			t.Fatalf("missing result")
		}
		if len(r.TasksCompleted) != 7 {
			t.Fatalf("cycle %s completed %d tasks, want 7; overlapping cycles shared state", r.CycleID, len(r.TasksCompleted))
		}
		seen[r.CycleID] = true
	}
	if len(seen) != 2 {
		t.Fatalf("both runs reported the same cycle id")
	}
}

func TestWindowGating(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	at := func(hour, min int) time.Time {
		return time.Date(2026, 8, 31, hour, min, 0, 0, time.Local)
	}
	cases := []struct {
		t  time.Time
		in bool
	}{
		{at(9, 14), false},
		{at(9, 15), true},
		{at(12, 0), true},
		{at(15, 30), true},
		{at(15, 31), false},
		{at(3, 0), false},
	}
	for _, c := range cases {
		if got := o.inWindow(c.t); got != c.in {
			t.Fatalf("inWindow(%s) = %v, want %v", c.t.Format("15:04"), got, c.in)
		}
	}
}

func TestSchedulerSkipsOutsideWindow(t *testing.T) {
	var cycles atomic.Int32
	parallel := []Agent{&stubAgent{name: "technical", fn: func(ctx context.Context, st *state.SharedState) (any, error) {
		cycles.Add(1)
		return nil, nil
	}}}
	o := newTestOrchestrator(t, parallel)
	o.now = func() time.Time {
		return time.Date(2026, 8, 31, 3, 0, 0, 0, time.Local)
	}

	o.tick(context.Background())
	if cycles.Load() != 0 {
		t.Fatalf("cycle ran outside the trading window")
	}

	// RunCycle bypasses the gate for manual runs.
	if _, err := o.RunCycle(context.Background()); err != nil {
		t.Fatalf("manual run: %v", err)
	}
	if cycles.Load() != 1 {
		t.Fatalf("manual run must execute regardless of window")
	}
}

func TestStartStopIdempotent(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	o.now = func() time.Time {
		return time.Date(2026, 8, 31, 3, 0, 0, 0, time.Local) // outside window
	}

	o.Start(context.Background())
	if !o.Running() {
		t.Fatalf("expected running after start")
	}
	o.Start(context.Background()) // no-op

	o.Stop()
	if o.Running() {
		t.Fatalf("expected stopped after stop")
	}
	o.Stop() // no-op
}

func TestCycleCallbackAndStatus(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	var gotCycle string
	o.OnCycleComplete(func(r *models.CycleResult) {
		gotCycle = r.CycleID
		panic("subscriber bug") // must be contained
	})

	result, err := o.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if gotCycle != result.CycleID {
		t.Fatalf("callback cycle = %q, want %q", gotCycle, result.CycleID)
	}

	status := o.Status()
	if status["cycle_count"] != 1 {
		t.Fatalf("status cycle_count = %v, want 1", status["cycle_count"])
	}
	if status["latest_cycle"] != result.CycleID {
		t.Fatalf("status latest_cycle = %v", status["latest_cycle"])
	}
	if o.Latest() == nil {
		t.Fatalf("latest must be recorded")
	}
}
