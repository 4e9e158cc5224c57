package api

import (
	"time"

	"routerswitcher/internal/types"
)

// TimeNow is the clock used for response timestamps.
var TimeNow = time.Now

// APIError is the body of every non-2xx response.
type APIError struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// HistoryResponse is the body of GET /v1/history.
type HistoryResponse struct {
	Events []types.SwitchEvent `json:"events"`
}
