package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hetulpatel/oracleai/internal/verification"
)

// ResolutionEvent records one resolution attempt. It is published to Kafka
// and written to the SQLite journal.
type ResolutionEvent struct {
	EventID       string                `json:"event_id"`
	CycleID       string                `json:"cycle_id"`
	MarketID      uint64                `json:"market_id"`
	Question      string                `json:"question"`
	Category      string                `json:"category"`
	OddsUp        string                `json:"odds_up"`
	Outcome       string                `json:"outcome"`
	Confidence    int                   `json:"confidence"`
	Reasoning     string                `json:"reasoning"`
	Sources       []string              `json:"sources"`
	Verification  []verification.Source `json:"verification"`
	PromptHash    string                `json:"prompt_hash"`
	AdvisoryError string                `json:"advisory_error,omitempty"`
	Attempt       int64                 `json:"attempt"`
	Submitted     bool                  `json:"submitted"`
	SubmitError   string                `json:"submit_error,omitempty"`
	DryRun        bool                  `json:"dry_run,omitempty"`
	ResolvedAt    time.Time             `json:"resolved_at"`
}

// NewResolutionEvent stamps a fresh event ID. ResolvedAt starts at creation
// time; the resolver restamps it once the submission has finished.
func NewResolutionEvent(cycleID string, marketID uint64) ResolutionEvent {
	return ResolutionEvent{
		EventID:    uuid.NewString(),
		CycleID:    cycleID,
		MarketID:   marketID,
		ResolvedAt: time.Now().UTC(),
	}
}
