package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hetulpatel/oracleai/internal/models"
)

const insertAttemptSQL = `
INSERT INTO resolution_attempts (
	event_id, cycle_id, market_id, question, category, odds_up,
	outcome, confidence, reasoning, sources_json, verification_json,
	prompt_hash, advisory_error, attempt, submitted, submit_error,
	dry_run, resolved_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// InsertResolutionAttempt journals one attempt, successful or not.
func (s *Store) InsertResolutionAttempt(ctx context.Context, ev models.ResolutionEvent) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlite store not initialized")
	}
	sourcesJSON, err := json.Marshal(ev.Sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}
	verificationJSON, err := json.Marshal(ev.Verification)
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}
	_, err = s.db.ExecContext(ctx, insertAttemptSQL,
		ev.EventID,
		ev.CycleID,
		ev.MarketID,
		ev.Question,
		ev.Category,
		ev.OddsUp,
		ev.Outcome,
		ev.Confidence,
		ev.Reasoning,
		string(sourcesJSON),
		string(verificationJSON),
		ev.PromptHash,
		ev.AdvisoryError,
		ev.Attempt,
		boolToInt(ev.Submitted),
		ev.SubmitError,
		boolToInt(ev.DryRun),
		ev.ResolvedAt.UTC().Format(timeLayout),
	)
	return err
}

// RecordResolution satisfies the resolver's recorder interface.
func (s *Store) RecordResolution(ctx context.Context, ev models.ResolutionEvent) error {
	return s.InsertResolutionAttempt(ctx, ev)
}

// ListResolutionAttempts returns attempts for a market, oldest first.
func (s *Store) ListResolutionAttempts(ctx context.Context, marketID uint64) ([]models.ResolutionEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT event_id, cycle_id, market_id, question, category, odds_up,
	outcome, confidence, reasoning, sources_json, verification_json,
	prompt_hash, advisory_error, attempt, submitted, submit_error,
	dry_run, resolved_at
FROM resolution_attempts
WHERE market_id = ?
ORDER BY resolved_at, rowid`, marketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ResolutionEvent
	for rows.Next() {
		var (
			ev                            models.ResolutionEvent
			sourcesJSON, verificationJSON string
			submitted, dryRun             int
			resolvedAt                    string
		)
		if err := rows.Scan(
			&ev.EventID, &ev.CycleID, &ev.MarketID, &ev.Question, &ev.Category, &ev.OddsUp,
			&ev.Outcome, &ev.Confidence, &ev.Reasoning, &sourcesJSON, &verificationJSON,
			&ev.PromptHash, &ev.AdvisoryError, &ev.Attempt, &submitted, &ev.SubmitError,
			&dryRun, &resolvedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(sourcesJSON), &ev.Sources); err != nil {
			return nil, fmt.Errorf("decode sources: %w", err)
		}
		if err := json.Unmarshal([]byte(verificationJSON), &ev.Verification); err != nil {
			return nil, fmt.Errorf("decode verification: %w", err)
		}
		ev.Submitted = submitted != 0
		ev.DryRun = dryRun != 0
		if ts, err := time.Parse(timeLayout, resolvedAt); err == nil {
			ev.ResolvedAt = ts
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
