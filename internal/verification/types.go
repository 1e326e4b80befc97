package verification

import "context"

// Source is one piece of external data handed to the advisory prompt.
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Data string `json:"data"`
}

// MatchFunc decides whether a rule applies to a market.
type MatchFunc func(category, question string) bool

// FetchFunc produces a source for a matching market. Errors drop the source.
type FetchFunc func(ctx context.Context, category, question string) (Source, error)

// Rule pairs a predicate with the fetcher it selects.
type Rule struct {
	Name  string
	Match MatchFunc
	Fetch FetchFunc
}
