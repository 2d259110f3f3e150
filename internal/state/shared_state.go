// Package state holds the cycle-scoped shared state that pipeline tasks
// read from and write to.
package state

import (
	"sync"
	"time"

	"TradePulse/internal/domain/models"
)

// Well-known state keys.
const (
	KeyCycleID        = "cycle_id"
	KeyCycleStart     = "cycle_start"
	KeyCycleEnd       = "cycle_end"
	KeyCycleDuration  = "cycle_duration_ms"
	KeyTasksCompleted = "tasks_completed"
	KeyErrors         = "errors"
	KeyMarketData     = "market_data"
	KeyLTP            = "ltp"
	KeyVIX            = "vix"
	KeyOptionsChain   = "options_chain"
	KeyNews           = "news"
	KeyHistorical     = "historical"
	KeyTechnicals     = "technicals"
	KeyRiskMetrics    = "risk_metrics"
	KeyActiveTrades   = "active_trades"
	KeySentiment      = "sentiment"
	KeyDecision       = "decision"
	KeyMonitor        = "monitor"
)

// SharedState is a mutex-guarded key/value container scoped to one cycle.
// Critical sections are O(1) map operations; callers never hold the lock
// across blocking work.
type SharedState struct {
	mu         sync.RWMutex
	state      map[string]any
	cycleID    string
	cycleStart time.Time
}

// New returns an empty SharedState. StartCycle must be called before use.
func New() *SharedState {
	return &SharedState{state: make(map[string]any)}
}

// StartCycle resets the state for a new cycle and returns the cycle id.
func (s *SharedState) StartCycle() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.cycleID = now.Format("20060102_150405")
	s.cycleStart = now
	s.state = map[string]any{
		KeyCycleID:        s.cycleID,
		KeyCycleStart:     now,
		KeyTasksCompleted: []string{},
		KeyErrors:         []models.TaskFault{},
	}
	return s.cycleID
}

// EndCycle stamps the duration and returns an immutable snapshot of the
// full state.
func (s *SharedState) EndCycle() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cycleStart.IsZero() {
		s.state[KeyCycleDuration] = float64(time.Since(s.cycleStart)) / float64(time.Millisecond)
	}
	s.state[KeyCycleEnd] = time.Now()
	return s.snapshotLocked()
}

// Set stores a value under key.
func (s *SharedState) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[key] = value
}

// Get returns the value for key, or nil when absent.
func (s *SharedState) Get(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state[key]
}

// GetDefault returns the value for key, or def when absent.
func (s *SharedState) GetDefault(key string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.state[key]; ok {
		return v
	}
	return def
}

// Merge copies every entry of data into the state.
func (s *SharedState) Merge(data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range data {
		s.state[k] = v
	}
}

// RecordTaskOutput stores a task's wrapped output, appends the task to
// the completion list, and tracks its error if it failed.
func (s *SharedState) RecordTaskOutput(output models.TaskOutput) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state["task_"+output.TaskName] = output

	completed, _ := s.state[KeyTasksCompleted].([]string)
	s.state[KeyTasksCompleted] = append(completed, output.TaskName)

	if output.Status == models.TaskError {
		faults, _ := s.state[KeyErrors].([]models.TaskFault)
		s.state[KeyErrors] = append(faults, models.TaskFault{Task: output.TaskName, Error: output.Error})
	}
}

// FullState returns a shallow snapshot of the entire state map.
func (s *SharedState) FullState() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// CycleID returns the current cycle id, empty before the first cycle.
func (s *SharedState) CycleID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycleID
}

func (s *SharedState) snapshotLocked() map[string]any {
	snap := make(map[string]any, len(s.state))
	for k, v := range s.state {
		snap[k] = v
	}
	return snap
}
