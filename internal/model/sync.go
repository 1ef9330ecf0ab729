package model

import (
	"encoding/json"
	"time"
)

// Run statuses stored in the history table.
const (
	RunSuccess = "success"
	RunFailed  = "failed"
	RunSkipped = "skipped"
)

type SyncHistory struct {
	ID         string          `json:"id"`
	Job        string          `json:"job"`
	Status     string          `json:"status"`
	StartedAt  time.Time       `json:"started_at"`
	DurationMs int64           `json:"duration_ms"`
	Details    json.RawMessage `json:"details,omitempty"`
}

// RunSummary is what a job reports after one pass.
type RunSummary struct {
	Job       string `json:"job"`
	Processed int    `json:"processed"`
	Created   int    `json:"created,omitempty"`
	Updated   int    `json:"updated,omitempty"`
	Failed    int    `json:"failed,omitempty"`
	Notified  int    `json:"notified,omitempty"`
	Skipped   bool   `json:"skipped,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error,omitempty"`
}
