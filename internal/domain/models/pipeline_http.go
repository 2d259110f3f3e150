package models

// Requests for the pipeline control endpoints. Defined in domain for
// consistency and reuse.

type StartRequest struct {
	IntervalMins int `query:"interval_mins" json:"interval_mins" default:"5" validate:"gte=1,lte=120"`
}

type HistoryRequest struct {
	Limit int `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=200"`
}

type OiHistoryRequest struct {
	Strike float64 `query:"strike" json:"strike" validate:"required,gt=0"`
	Type   string  `query:"type" json:"type" default:"CE" validate:"oneof=CE PE"`
	Limit  int     `query:"limit" json:"limit" default:"5" validate:"gte=1,lte=100"`
}
