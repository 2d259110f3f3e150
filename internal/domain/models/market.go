package models

import "time"

// Index identifiers used across the pipeline.
const (
	IndexNifty     = "nifty50"
	IndexBankNifty = "banknifty"
	IndexSensex    = "sensex"
)

// Option types as quoted on the NSE.
const (
	OptionCall = "CE"
	OptionPut  = "PE"
)

// OptionQuote is a single contract row from an options chain.
type OptionQuote struct {
	Index    string  `json:"index"`
	Strike   float64 `json:"strike"`
	Type     string  `json:"type"` // "CE" | "PE"
	LTP      float64 `json:"ltp"`
	OI       int64   `json:"oi"`
	Volume   int64   `json:"volume"`
	ChangeOI int64   `json:"change_oi"`
	IV       float64 `json:"iv"` // percent
	Expiry   string  `json:"expiry"`
	Bid      float64 `json:"bid"`
	Ask      float64 `json:"ask"`
	Source   string  `json:"source"`
}

// OHLCSeries holds intraday candles for one index, oldest first.
type OHLCSeries struct {
	Open       []float64   `json:"open"`
	High       []float64   `json:"high"`
	Low        []float64   `json:"low"`
	Close      []float64   `json:"close"`
	Volume     []float64   `json:"volume"`
	Timestamps []time.Time `json:"timestamps"`
}

// Len returns the number of candles in the series.
func (s OHLCSeries) Len() int { return len(s.Close) }

// NewsItem is one market headline.
type NewsItem struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Link      string `json:"link,omitempty"`
	Published string `json:"published,omitempty"`
	Source    string `json:"source"`
}

// MarketSnapshot is everything the data-fetch stage hands to the analysis
// stage: index prices, VIX, the options chain, news and candle history.
type MarketSnapshot struct {
	LTP          map[string]float64    `json:"ltp"`
	VIX          float64               `json:"vix"`
	OptionsChain []OptionQuote         `json:"options_chain"`
	News         []NewsItem            `json:"news"`
	Historical   map[string]OHLCSeries `json:"historical"`
	Source       string                `json:"source"`
	Timestamp    time.Time             `json:"timestamp"`
}
