package advisory

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/hetulpatel/oracleai/internal/verification"
)

const systemPrompt = "You are the resolving oracle for a binary prediction market platform called OracleAI. Be objective and data-driven. Respond only with JSON."

const noDataMarker = "No external data available"

func buildUserPrompt(question string, sources []verification.Source) string {
	return strings.Join([]string{
		"Analyze the following question and data sources to determine the outcome.",
		"",
		"Question: " + strings.TrimSpace(question),
		"",
		"Data Sources:",
		renderSources(sources),
		"",
		"Instructions:",
		`1. Decide whether the outcome is "UP" (YES) or "DOWN" (NO).`,
		"2. Give a confidence score from 0 to 100.",
		"3. Explain your reasoning in 2-3 sentences.",
		"4. List the sources you used.",
		"",
		"Return EXACTLY this JSON format:\n{\n  \"outcome\": \"UP\" | \"DOWN\",\n  \"confidence\": 95,\n  \"reasoning\": \"explanation here\",\n  \"sources\": [\"url1\", \"url2\"]\n}",
		"",
		"If the data is insufficient, lower your confidence.",
	}, "\n")
}

func renderSources(sources []verification.Source) string {
	if len(sources) == 0 {
		return noDataMarker
	}
	lines := make([]string, 0, len(sources))
	for _, s := range sources {
		lines = append(lines, fmt.Sprintf("- %s: %s", s.Name, s.Data))
	}
	return strings.Join(lines, "\n")
}

// ExtractPayload returns the content of the first fenced code block (any
// or no language tag) when one is present, otherwise the trimmed text.
func ExtractPayload(raw string) string {
	text := strings.TrimSpace(raw)
	open := strings.Index(text, "```")
	if open < 0 {
		return text
	}
	body := text[open+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && isLanguageTag(body[:nl]) {
		body = body[nl+1:]
	} else if nl < 0 {
		body = strings.TrimLeftFunc(body, isTagRune)
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

func isLanguageTag(s string) bool {
	s = strings.TrimSpace(s)
	for _, r := range s {
		if !isTagRune(r) {
			return false
		}
	}
	return true
}

func isTagRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' || r == '+'
}

type rawVerdict struct {
	Outcome    any `json:"outcome"`
	Confidence any `json:"confidence"`
	Reasoning  any `json:"reasoning"`
	Sources    any `json:"sources"`
}

// ParseVerdict extracts and decodes the advisory reply, then coerces each
// field into the Verdict vocabulary. Only a payload that is not a JSON
// object is an error.
func ParseVerdict(raw string) (Verdict, error) {
	payload := ExtractPayload(raw)
	if payload == "" {
		return Verdict{}, fmt.Errorf("advisory: empty response")
	}
	if !strings.HasPrefix(payload, "{") {
		start := strings.Index(payload, "{")
		end := strings.LastIndex(payload, "}")
		if start >= 0 && end > start {
			payload = payload[start : end+1]
		}
	}
	if !strings.HasPrefix(payload, "{") {
		return Verdict{}, fmt.Errorf("advisory: response is not a JSON object")
	}

	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	var rv rawVerdict
	if err := dec.Decode(&rv); err != nil {
		return Verdict{}, fmt.Errorf("advisory: decode verdict: %w", err)
	}

	return Verdict{
		Outcome:    coerceOutcome(rv.Outcome),
		Confidence: coerceConfidence(rv.Confidence),
		Reasoning:  coerceString(rv.Reasoning),
		Sources:    coerceSources(rv.Sources),
	}, nil
}

func coerceOutcome(v any) Outcome {
	if s, ok := v.(string); ok && Outcome(s) == OutcomeDown {
		return OutcomeDown
	}
	return OutcomeUp
}

// coerceConfidence keeps JSON numbers (rounded, clamped to 0..100) and
// replaces everything else, numeric-looking strings included, with 50.
func coerceConfidence(v any) int {
	n, ok := v.(json.Number)
	if !ok {
		return DefaultConfidence
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) {
		return DefaultConfidence
	}
	c := int(math.Round(f))
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func coerceSources(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}
