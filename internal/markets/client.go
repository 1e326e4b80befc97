package markets

import (
	"context"
	"fmt"
	"strings"

	"github.com/hetulpatel/oracleai/internal/graphql"
	"github.com/hetulpatel/oracleai/internal/logging"
)

const marketsQuery = `
query Markets {
	markets {
		entries {
			key
			value {
				id
				question
				description
				category
				status
				oracleMode
				totalPool
				upPool
				downPool
			}
		}
	}
}`

const resolveMutation = `
mutation ResolveMarketAI($marketId: Int!, $outcome: Outcome!, $confidence: Float!, $reasoning: String!, $sources: [String!]!) {
	resolveMarketAI(
		marketId: $marketId,
		outcome: $outcome,
		confidence: $confidence,
		reasoning: $reasoning,
		sources: $sources
	)
}`

// Transport executes GraphQL documents. *graphql.Client satisfies it.
type Transport interface {
	Do(ctx context.Context, query string, variables map[string]any, dst any) error
}

var _ Transport = (*graphql.Client)(nil)

// Client is both the market source and the resolution sink.
type Client struct {
	gql Transport
}

// NewClient wraps a GraphQL transport.
func NewClient(gql Transport) *Client {
	return &Client{gql: gql}
}

type marketsResponse struct {
	Markets struct {
		Entries []struct {
			Key   any    `json:"key"`
			Value Market `json:"value"`
		} `json:"entries"`
	} `json:"markets"`
}

// FetchMarkets returns every market the service knows about, in the order
// the service returned them. Any failure is logged and yields an empty
// slice; callers must read empty as "nothing to do this cycle".
func (c *Client) FetchMarkets(ctx context.Context) []Market {
	markets, err := c.ListMarkets(ctx)
	if err != nil {
		logging.Errorf("[markets] fetch failed: %v", err)
		return []Market{}
	}
	return markets
}

// ListMarkets is FetchMarkets with the error surfaced.
func (c *Client) ListMarkets(ctx context.Context) ([]Market, error) {
	if c == nil || c.gql == nil {
		return nil, fmt.Errorf("markets: client not initialized")
	}
	var resp marketsResponse
	if err := c.gql.Do(ctx, marketsQuery, nil, &resp); err != nil {
		return nil, fmt.Errorf("markets: query: %w", err)
	}
	out := make([]Market, 0, len(resp.Markets.Entries))
	for _, entry := range resp.Markets.Entries {
		out = append(out, entry.Value)
	}
	logging.Debugf("[markets] fetched %d markets", len(out))
	return out, nil
}

// SubmitResolution sends the resolveMarketAI mutation. Every field travels
// as a GraphQL variable.
func (c *Client) SubmitResolution(ctx context.Context, res Resolution) error {
	if c == nil || c.gql == nil {
		return fmt.Errorf("markets: client not initialized")
	}
	if res.Outcome != OutcomeUp && res.Outcome != OutcomeDown {
		return fmt.Errorf("markets: invalid outcome %q", res.Outcome)
	}
	sources := res.Sources
	if sources == nil {
		sources = []string{}
	}
	vars := map[string]any{
		"marketId":   res.MarketID,
		"outcome":    string(res.Outcome),
		"confidence": res.Confidence,
		"reasoning":  strings.TrimSpace(res.Reasoning),
		"sources":    sources,
	}
	if err := c.gql.Do(ctx, resolveMutation, vars, nil); err != nil {
		return fmt.Errorf("markets: resolve market %d: %w", res.MarketID, err)
	}
	return nil
}
