package advisory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hetulpatel/oracleai/internal/markets"
	"github.com/hetulpatel/oracleai/internal/verification"
)

type fakeLLM struct {
	reply   string
	err     error
	system  string
	prompts []string
}

func (f *fakeLLM) Complete(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.system = systemPrompt
	f.prompts = append(f.prompts, userPrompt)
	return f.reply, f.err
}

func newService(t *testing.T, f *fakeLLM) *Service {
	t.Helper()
	svc, err := NewService(Config{LLMClient: f})
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresClient(t *testing.T) {
	_, err := NewService(Config{})
	require.Error(t, err)
}

func TestAskParsesReply(t *testing.T) {
	f := &fakeLLM{reply: `{"outcome":"DOWN","confidence":80,"reasoning":"Price below threshold","sources":["coinbase"]}`}
	svc := newService(t, f)

	got := svc.Ask(context.Background(), "Will BTC exceed $100k?", []verification.Source{
		{Name: "Coinbase", URL: "https://api.coinbase.com", Data: "BTC Price: $98000.00"},
	})

	assert.Equal(t, Verdict{Outcome: OutcomeDown, Confidence: 80, Reasoning: "Price below threshold", Sources: []string{"coinbase"}}, got)
	require.Len(t, f.prompts, 1)
	assert.Contains(t, f.prompts[0], "Question: Will BTC exceed $100k?")
	assert.Contains(t, f.prompts[0], "- Coinbase: BTC Price: $98000.00")
	assert.NotContains(t, f.prompts[0], noDataMarker)
	assert.Equal(t, systemPrompt, f.system)
}

func TestAskWithoutSourcesUsesNoDataMarker(t *testing.T) {
	f := &fakeLLM{reply: `{"outcome":"UP","confidence":60,"reasoning":"r","sources":[]}`}
	svc := newService(t, f)

	svc.Ask(context.Background(), "Will it happen?", nil)
	require.Len(t, f.prompts, 1)
	assert.Contains(t, f.prompts[0], "Data Sources:\n"+noDataMarker)
}

func TestAskTransportFailureReturnsDefault(t *testing.T) {
	f := &fakeLLM{err: errors.New("dial tcp: connection refused")}
	svc := newService(t, f)

	got := svc.Ask(context.Background(), "Will BTC exceed $100k?", nil)
	assert.Equal(t, DefaultVerdict(), got)

	verdict, err := svc.Evaluate(context.Background(), "Will BTC exceed $100k?", nil)
	require.Error(t, err)
	assert.Equal(t, DefaultVerdict(), verdict)
}

func TestAskMalformedReplyReturnsDefault(t *testing.T) {
	for _, reply := range []string{"", "I cannot answer that.", "```json\nnot json\n```", `["UP"]`, "null", `{"outcome":`} {
		f := &fakeLLM{reply: reply}
		got := newService(t, f).Ask(context.Background(), "q", nil)
		assert.Equal(t, DefaultVerdict(), got, "reply %q", reply)
	}
}

func TestDefaultVerdict(t *testing.T) {
	v := DefaultVerdict()
	assert.Equal(t, OutcomeUp, v.Outcome)
	assert.Equal(t, 50, v.Confidence)
	assert.Equal(t, "unable to determine outcome due to API error", v.Reasoning)
	assert.NotNil(t, v.Sources)
	assert.Empty(t, v.Sources)
}

func TestOutcomeCoercion(t *testing.T) {
	tests := []struct {
		raw  string
		want Outcome
	}{
		{`"UP"`, OutcomeUp},
		{`"DOWN"`, OutcomeDown},
		{`"down"`, OutcomeUp},
		{`"YES"`, OutcomeUp},
		{`"NO"`, OutcomeUp},
		{`""`, OutcomeUp},
		{`null`, OutcomeUp},
		{`1`, OutcomeUp},
		{`["DOWN"]`, OutcomeUp},
	}
	for _, tt := range tests {
		v, err := ParseVerdict(`{"outcome":` + tt.raw + `,"confidence":70}`)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, v.Outcome, "outcome %s", tt.raw)
	}

	v, err := ParseVerdict(`{"confidence":70}`)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUp, v.Outcome)
}

func TestConfidenceCoercion(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{`95`, 95},
		{`0`, 0},
		{`100`, 100},
		{`72.6`, 73},
		{`"80"`, 50},
		{`"high"`, 50},
		{`null`, 50},
		{`true`, 50},
		{`[80]`, 50},
		{`{"v":80}`, 50},
		{`-5`, 0},
		{`250`, 100},
	}
	for _, tt := range tests {
		v, err := ParseVerdict(`{"outcome":"DOWN","confidence":` + tt.raw + `}`)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, v.Confidence, "confidence %s", tt.raw)
	}

	v, err := ParseVerdict(`{"outcome":"DOWN"}`)
	require.NoError(t, err)
	assert.Equal(t, 50, v.Confidence)
}

func TestFencedPayloadMatchesUnwrapped(t *testing.T) {
	payload := `{"outcome":"DOWN","confidence":80,"reasoning":"Price below threshold","sources":["coinbase"]}`
	want, err := ParseVerdict(payload)
	require.NoError(t, err)

	wrapped := []string{
		"```json\n" + payload + "\n```",
		"```\n" + payload + "\n```",
		"```JSON\n" + payload + "\n```",
		"Here is my analysis:\n```json\n" + payload + "\n```\nLet me know if you need more.",
		"```json " + payload + "```",
		"```" + payload + "```",
		"  \n```json\n" + payload + "\n",
	}
	for _, raw := range wrapped {
		got, err := ParseVerdict(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, "raw %q", raw)
	}
}

func TestExtractPayload(t *testing.T) {
	assert.Equal(t, `{"a":1}`, ExtractPayload("  {\"a\":1}  "))
	assert.Equal(t, `{"a":1}`, ExtractPayload("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, ExtractPayload("```\n{\"a\":1}\n```\n```json\n{\"b\":2}\n```"))
	assert.Equal(t, "", ExtractPayload("```\n```"))
}

func TestSourcesCoercion(t *testing.T) {
	v, err := ParseVerdict(`{"outcome":"UP","confidence":90,"reasoning":"  ok ","sources":["a", 2, "", " b "]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "2", "b"}, v.Sources)
	assert.Equal(t, "ok", v.Reasoning)

	v, err = ParseVerdict(`{"outcome":"UP","sources":"https://example.com"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com"}, v.Sources)

	v, err = ParseVerdict(`{"outcome":"UP"}`)
	require.NoError(t, err)
	assert.NotNil(t, v.Sources)
	assert.Empty(t, v.Sources)
}

func TestProseAroundObject(t *testing.T) {
	v, err := ParseVerdict(`Verdict: {"outcome":"DOWN","confidence":61} (end)`)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDown, v.Outcome)
	assert.Equal(t, 61, v.Confidence)
}

func TestMarketOutcome(t *testing.T) {
	assert.Equal(t, markets.OutcomeUp, OutcomeUp.MarketOutcome())
	assert.Equal(t, markets.OutcomeDown, OutcomeDown.MarketOutcome())
	assert.Equal(t, markets.OutcomeUp, Outcome("SIDEWAYS").MarketOutcome())
}

func TestPromptRendersEverySource(t *testing.T) {
	p := Prompt("Rain in London?", []verification.Source{
		{Name: "Weather API", Data: "Weather data (demo mode)"},
		{Name: "Coinbase", Data: "BTC Price: $1.00"},
	})
	assert.Equal(t, 1, strings.Count(p, "- Weather API: Weather data (demo mode)"))
	assert.Equal(t, 1, strings.Count(p, "- Coinbase: BTC Price: $1.00"))
}
