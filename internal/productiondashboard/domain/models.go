package domain

import (
	"github.com/smallbiznis/atelier/internal/closingperiod"
)

// Result is the envelope the dashboard endpoint answers with.
type Result struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error,omitempty"`
	Data    *closingperiod.Metrics `json:"data,omitempty"`
}

// NewResult wraps metrics or the error that prevented computing them.
func NewResult(metrics *closingperiod.Metrics, err error) Result {
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	return Result{Success: true, Data: metrics}
}
