package models

import "time"

// Task statuses.
const (
	TaskSuccess = "success"
	TaskError   = "error"
	TaskSkipped = "skipped"
)

// Cycle statuses.
const (
	CycleRunning   = "running"
	CycleCompleted = "completed"
	CycleError     = "error"
)

// TaskOutput is the uniform wrapper every pipeline task produces.
type TaskOutput struct {
	TaskName   string    `json:"task_name"`
	Timestamp  time.Time `json:"timestamp"`
	Data       any       `json:"data"`
	DurationMs float64   `json:"duration_ms"`
	Status     string    `json:"status"` // success | error | skipped
	Error      string    `json:"error,omitempty"`
}

// CycleRecord is a persisted cycle row from the audit store.
type CycleRecord struct {
	ID         int64          `json:"id"`
	CycleID    string         `json:"cycle_id"`
	Timestamp  time.Time      `json:"timestamp"`
	DurationMs float64        `json:"duration_ms"`
	Status     string         `json:"status"`
	FullState  map[string]any `json:"full_state,omitempty"`
}

// TaskRecord is a persisted task-output row.
type TaskRecord struct {
	CycleID    string         `json:"cycle_id"`
	TaskName   string         `json:"task_name"`
	Timestamp  time.Time      `json:"timestamp"`
	DurationMs float64        `json:"duration_ms"`
	Status     string         `json:"status"`
	Output     map[string]any `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// OiSample is one persisted open-interest observation for a contract.
type OiSample struct {
	CycleID   string    `json:"cycle_id,omitempty"`
	Strike    float64   `json:"strike"`
	Type      string    `json:"option_type"`
	OI        int64     `json:"oi"`
	Volume    int64     `json:"volume"`
	LTP       float64   `json:"ltp"`
	Timestamp time.Time `json:"timestamp"`
}

// CycleMarket carries the headline market numbers in a cycle result.
type CycleMarket struct {
	LTP map[string]float64 `json:"ltp"`
	VIX float64            `json:"vix"`
}

// CycleRisk carries the risk summary in a cycle result.
type CycleRisk struct {
	Score int    `json:"score"`
	Label string `json:"label"`
}

// CycleSentiment carries the sentiment summary in a cycle result.
type CycleSentiment struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

// CycleActivity carries the top activity picks in a cycle result.
type CycleActivity struct {
	Top []ScoredOption      `json:"top"`
	PCR map[string]PCRStats `json:"pcr"`
}

// CycleResult is the summary produced at the end of every cycle; it is
// what gets pushed to websocket clients and the Kafka topic.
type CycleResult struct {
	CycleID        string         `json:"cycle_id"`
	CycleNumber    int            `json:"cycle_number"`
	Status         string         `json:"status"`
	DurationMs     float64        `json:"duration_ms"`
	Timestamp      time.Time      `json:"timestamp"`
	Summary        string         `json:"summary"`
	Decision       *Decision      `json:"decision,omitempty"`
	Alerts         []Alert        `json:"alerts,omitempty"`
	TasksCompleted []string       `json:"tasks_completed"`
	Errors         []TaskFault    `json:"errors,omitempty"`
	MarketData     CycleMarket    `json:"market_data"`
	Risk           CycleRisk      `json:"risk"`
	Sentiment      CycleSentiment `json:"sentiment"`
	ActiveTrades   CycleActivity  `json:"active_trades"`
	Error          string         `json:"error,omitempty"`
}

// TaskFault identifies a task that failed during a cycle.
type TaskFault struct {
	Task  string `json:"task"`
	Error string `json:"error"`
}
