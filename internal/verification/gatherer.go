package verification

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/hetulpatel/oracleai/internal/logging"
)

// Gatherer runs every matching rule, in table order, and keeps the sources
// that fetched successfully.
type Gatherer struct {
	rules []Rule
}

// NewGatherer builds a gatherer over an explicit rule table.
func NewGatherer(rules ...Rule) *Gatherer {
	return &Gatherer{rules: rules}
}

// Config controls the default rule table.
type Config struct {
	PriceURL   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewDefaultGatherer wires the crypto spot price lookup and the weather
// placeholder.
func NewDefaultGatherer(cfg Config) *Gatherer {
	return NewGatherer(DefaultRules(cfg)...)
}

// DefaultRules returns the built-in table. Callers may append to it.
func DefaultRules(cfg Config) []Rule {
	spot := NewSpotPriceFetcher(cfg)
	return []Rule{
		{
			Name:  "crypto-spot",
			Match: IsCryptoTopic,
			Fetch: spot.Fetch,
		},
		{
			Name:  "weather-placeholder",
			Match: IsWeatherTopic,
			Fetch: WeatherPlaceholder,
		},
	}
}

// RuleNames lists the table in evaluation order.
func (g *Gatherer) RuleNames() []string {
	if g == nil {
		return nil
	}
	names := make([]string, 0, len(g.rules))
	for _, r := range g.rules {
		names = append(names, r.Name)
	}
	return names
}

// Gather never fails: no match or failed lookups simply yield fewer sources.
func (g *Gatherer) Gather(ctx context.Context, category, question string) []Source {
	sources := []Source{}
	if g == nil {
		return sources
	}
	for _, rule := range g.rules {
		if rule.Match == nil || rule.Fetch == nil || !rule.Match(category, question) {
			continue
		}
		src, err := rule.Fetch(ctx, category, question)
		if err != nil {
			logging.Debugf("[verification] rule %s skipped: %v", rule.Name, err)
			continue
		}
		sources = append(sources, src)
	}
	return sources
}

// IsCryptoTopic matches questions mentioning BTC or a crypto category.
func IsCryptoTopic(category, question string) bool {
	return strings.Contains(question, "BTC") || strings.Contains(strings.ToLower(category), "crypto")
}

// IsWeatherTopic matches questions about weather or rain.
func IsWeatherTopic(_ string, question string) bool {
	q := strings.ToLower(question)
	return strings.Contains(q, "weather") || strings.Contains(q, "rain")
}

// WeatherPlaceholder stands in until a keyed weather provider is configured.
func WeatherPlaceholder(context.Context, string, string) (Source, error) {
	return Source{
		Name: "Weather API",
		URL:  "https://weather.com",
		Data: "Weather data (demo mode)",
	}, nil
}
