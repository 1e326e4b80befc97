package advisory

import (
	"github.com/hetulpatel/oracleai/internal/llm"
	"github.com/hetulpatel/oracleai/internal/markets"
)

// Outcome is the advisory vocabulary for a binary market.
type Outcome string

const (
	OutcomeUp   Outcome = "UP"
	OutcomeDown Outcome = "DOWN"
)

const (
	DefaultConfidence = 50
	DefaultReasoning  = "unable to determine outcome due to API error"
)

// MarketOutcome maps the advisory vocabulary onto the mutation's enum.
func (o Outcome) MarketOutcome() markets.Outcome {
	if o == OutcomeDown {
		return markets.OutcomeDown
	}
	return markets.OutcomeUp
}

// Verdict is the structured decision for one market.
type Verdict struct {
	Outcome    Outcome  `json:"outcome"`
	Confidence int      `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	Sources    []string `json:"sources"`
}

// DefaultVerdict is returned whenever the advisory call cannot be trusted.
func DefaultVerdict() Verdict {
	return Verdict{
		Outcome:    OutcomeUp,
		Confidence: DefaultConfidence,
		Reasoning:  DefaultReasoning,
		Sources:    []string{},
	}
}

// Config controls the advisory service.
type Config struct {
	LLMClient    llm.Completer
	SystemPrompt string
}
