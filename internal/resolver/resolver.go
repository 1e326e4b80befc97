package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hetulpatel/oracleai/internal/advisory"
	"github.com/hetulpatel/oracleai/internal/hashutil"
	"github.com/hetulpatel/oracleai/internal/logging"
	"github.com/hetulpatel/oracleai/internal/markets"
	"github.com/hetulpatel/oracleai/internal/models"
	"github.com/hetulpatel/oracleai/internal/verification"
)

// MarketSource lists the current markets. Failures are absorbed by the
// source, which returns an empty slice.
type MarketSource interface {
	FetchMarkets(ctx context.Context) []markets.Market
}

type ResolutionSink interface {
	SubmitResolution(ctx context.Context, res markets.Resolution) error
}

type Advisor interface {
	Evaluate(ctx context.Context, question string, sources []verification.Source) (advisory.Verdict, error)
}

type Gatherer interface {
	Gather(ctx context.Context, category, question string) []verification.Source
}

// Recorder receives one event per attempt (Kafka publisher, SQLite journal).
type Recorder interface {
	RecordResolution(ctx context.Context, ev models.ResolutionEvent) error
}

// AttemptCounter counts attempts per market across cycles.
type AttemptCounter interface {
	Record(ctx context.Context, marketID uint64) (int64, error)
}

// MarketStore keeps the latest view of every fetched market.
type MarketStore interface {
	UpsertMarkets(ctx context.Context, list []markets.Market) error
}

// Config wires the resolver. Source, Sink, Advisor and Gatherer are
// required; the rest are optional.
type Config struct {
	Source    MarketSource
	Sink      ResolutionSink
	Advisor   Advisor
	Gatherer  Gatherer
	Recorders []Recorder
	Attempts  AttemptCounter
	Markets   MarketStore
	DryRun    bool
}

// Service runs resolution cycles.
type Service struct {
	cfg Config
}

func New(cfg Config) (*Service, error) {
	switch {
	case cfg.Source == nil:
		return nil, fmt.Errorf("resolver: market source is required")
	case cfg.Sink == nil:
		return nil, fmt.Errorf("resolver: resolution sink is required")
	case cfg.Advisor == nil:
		return nil, fmt.Errorf("resolver: advisor is required")
	case cfg.Gatherer == nil:
		return nil, fmt.Errorf("resolver: gatherer is required")
	}
	recorders := make([]Recorder, 0, len(cfg.Recorders))
	for _, r := range cfg.Recorders {
		if r != nil {
			recorders = append(recorders, r)
		}
	}
	cfg.Recorders = recorders
	return &Service{cfg: cfg}, nil
}

// SelectClosed keeps markets in the Closed state, preserving order.
func SelectClosed(list []markets.Market) []markets.Market {
	out := make([]markets.Market, 0, len(list))
	for _, m := range list {
		if m.Status == markets.StatusClosed {
			out = append(out, m)
		}
	}
	return out
}

// ProcessCycle fetches markets and resolves every Closed one in order.
// Per-market failures are logged and never abort the cycle; the only
// error returned is context cancellation.
func (s *Service) ProcessCycle(ctx context.Context) error {
	cycleID := uuid.NewString()
	all := s.cfg.Source.FetchMarkets(ctx)
	if s.cfg.Markets != nil {
		if err := s.cfg.Markets.UpsertMarkets(ctx, all); err != nil {
			logging.Warnf("[resolver] store markets: %v", err)
		}
	}

	closed := SelectClosed(all)
	logging.Debugf("[resolver] cycle %s: %d markets, %d closed", cycleID, len(all), len(closed))
	for _, m := range closed {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.resolve(ctx, cycleID, m)
	}
	return ctx.Err()
}

func (s *Service) resolve(ctx context.Context, cycleID string, m markets.Market) {
	ev := models.NewResolutionEvent(cycleID, m.ID)
	ev.Question = m.Question
	ev.Category = m.Category
	ev.OddsUp = m.OddsUp().StringFixed(4)
	ev.DryRun = s.cfg.DryRun

	if s.cfg.Attempts != nil {
		n, err := s.cfg.Attempts.Record(ctx, m.ID)
		if err != nil {
			logging.Warnf("[resolver] market %d: attempt counter: %v", m.ID, err)
		} else {
			ev.Attempt = n
			if n > 1 {
				logging.Warnf("[resolver] market %d still closed, attempt %d", m.ID, n)
			}
		}
	}

	logging.Infof("[resolver] resolving market %d: %s (odds up=%s down=%s)",
		m.ID, m.Question, ev.OddsUp, m.OddsDown().StringFixed(4))

	sources := s.cfg.Gatherer.Gather(ctx, m.Category, m.Question)
	ev.Verification = sources
	ev.PromptHash = hashutil.HashStrings(advisory.Prompt(m.Question, sources))

	verdict, err := s.cfg.Advisor.Evaluate(ctx, m.Question, sources)
	if err != nil {
		logging.Errorf("[resolver] market %d: advisory failed, using default verdict: %v", m.ID, err)
		ev.AdvisoryError = err.Error()
	}

	res := markets.Resolution{
		MarketID:   m.ID,
		Outcome:    verdict.Outcome.MarketOutcome(),
		Confidence: float64(verdict.Confidence),
		Reasoning:  verdict.Reasoning,
		Sources:    verdict.Sources,
	}
	ev.Outcome = string(res.Outcome)
	ev.Confidence = verdict.Confidence
	ev.Reasoning = verdict.Reasoning
	ev.Sources = verdict.Sources
	if ev.Sources == nil {
		ev.Sources = []string{}
	}

	if s.cfg.DryRun {
		logging.Infof("[resolver] dry run: market %d -> %s (%d%%) %s",
			m.ID, res.Outcome, verdict.Confidence, truncate(verdict.Reasoning, 160))
	} else if err := s.cfg.Sink.SubmitResolution(ctx, res); err != nil {
		logging.Errorf("[resolver] market %d: submit failed: %v", m.ID, err)
		ev.SubmitError = err.Error()
	} else {
		ev.Submitted = true
		logging.Infof("[resolver] market %d resolved %s (%d%%)", m.ID, res.Outcome, verdict.Confidence)
	}

	ev.ResolvedAt = time.Now().UTC()
	for _, r := range s.cfg.Recorders {
		if err := r.RecordResolution(ctx, ev); err != nil {
			logging.Warnf("[resolver] market %d: record attempt: %v", m.ID, err)
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
