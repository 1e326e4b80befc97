package advisory

import (
	"context"
	"fmt"
	"strings"

	"github.com/hetulpatel/oracleai/internal/llm"
	"github.com/hetulpatel/oracleai/internal/logging"
	"github.com/hetulpatel/oracleai/internal/verification"
)

// Service turns a market question plus verification data into a Verdict.
type Service struct {
	llm          llm.Completer
	systemPrompt string
}

// NewService creates an advisory service.
func NewService(cfg Config) (*Service, error) {
	if cfg.LLMClient == nil {
		return nil, fmt.Errorf("advisory: llm client is required")
	}
	system := cfg.SystemPrompt
	if strings.TrimSpace(system) == "" {
		system = systemPrompt
	}
	return &Service{
		llm:          cfg.LLMClient,
		systemPrompt: system,
	}, nil
}

// Prompt renders the user prompt sent for a question; exposed for journaling.
func Prompt(question string, sources []verification.Source) string {
	return buildUserPrompt(question, sources)
}

// Evaluate asks the model and returns the coerced verdict. On any failure
// the verdict is DefaultVerdict() and the cause is returned alongside it.
func (s *Service) Evaluate(ctx context.Context, question string, sources []verification.Source) (Verdict, error) {
	if s == nil || s.llm == nil {
		return DefaultVerdict(), fmt.Errorf("advisory: service is nil")
	}

	user := buildUserPrompt(question, sources)
	if logging.Enabled(logging.LevelDebug) {
		logging.Debugf("[advisory] prompt:\n%s", user)
	}
	raw, err := s.llm.Complete(ctx, s.systemPrompt, user)
	if err != nil {
		return DefaultVerdict(), fmt.Errorf("advisory: llm call: %w", err)
	}

	verdict, err := ParseVerdict(raw)
	if err != nil {
		logging.Debugf("[advisory] unparsable reply: %q", raw)
		return DefaultVerdict(), fmt.Errorf("advisory: parse response: %w", err)
	}
	return verdict, nil
}

// Ask is Evaluate for callers that only want the verdict; errors are logged.
func (s *Service) Ask(ctx context.Context, question string, sources []verification.Source) Verdict {
	verdict, err := s.Evaluate(ctx, question, sources)
	if err != nil {
		logging.Errorf("[advisory] %v", err)
	}
	return verdict
}
