package verification

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spotServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestGatherCryptoQuestion(t *testing.T) {
	srv, hits := spotServer(t, http.StatusOK, `{"data":{"base":"BTC","currency":"USD","amount":"98000.00"}}`)
	g := NewDefaultGatherer(Config{PriceURL: srv.URL})

	got := g.Gather(context.Background(), "Crypto", "Will BTC exceed $100k?")
	require.Len(t, got, 1)
	assert.Equal(t, Source{Name: "Coinbase", URL: "https://api.coinbase.com", Data: "BTC Price: $98000.00"}, got[0])
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestGatherCryptoCategoryOnly(t *testing.T) {
	srv, hits := spotServer(t, http.StatusOK, `{"data":{"amount":"61234.5"}}`)
	g := NewDefaultGatherer(Config{PriceURL: srv.URL})

	got := g.Gather(context.Background(), "CRYPTO", "Will ETH close green?")
	require.Len(t, got, 1)
	assert.Equal(t, "BTC Price: $61234.5", got[0].Data)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestGatherKeepsQuotedPrecision(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{`"0.004567"`, "BTC Price: $0.004567"},
		{`" 98000.123456 "`, "BTC Price: $98000.123456"},
		{`"100000"`, "BTC Price: $100000"},
	}
	for _, tc := range tests {
		srv, _ := spotServer(t, http.StatusOK, `{"data":{"amount":`+tc.amount+`}}`)
		g := NewDefaultGatherer(Config{PriceURL: srv.URL})

		got := g.Gather(context.Background(), "", "BTC price on Friday?")
		require.Len(t, got, 1, tc.amount)
		assert.Equal(t, tc.want, got[0].Data, tc.amount)
	}
}

func TestSpotPriceParsesQuote(t *testing.T) {
	srv, _ := spotServer(t, http.StatusOK, `{"data":{"amount":"0.004567"}}`)
	price, err := NewSpotPriceFetcher(Config{PriceURL: srv.URL}).Price(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.004567", price.String())
}

func TestGatherCryptoFailuresAreSwallowed(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `oops`},
		{"bad json", http.StatusOK, `{"data":`},
		{"bad amount", http.StatusOK, `{"data":{"amount":"n/a"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := spotServer(t, tt.status, tt.body)
			g := NewDefaultGatherer(Config{PriceURL: srv.URL})
			got := g.Gather(context.Background(), "Crypto", "Will BTC exceed $100k?")
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestGatherWeather(t *testing.T) {
	srv, hits := spotServer(t, http.StatusOK, `{}`)
	g := NewDefaultGatherer(Config{PriceURL: srv.URL})

	got := g.Gather(context.Background(), "Custom", "Will it RAIN in Paris tomorrow?")
	require.Len(t, got, 1)
	assert.Equal(t, "Weather API", got[0].Name)
	assert.Equal(t, "Weather data (demo mode)", got[0].Data)
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestGatherBothRulesKeepTableOrder(t *testing.T) {
	srv, _ := spotServer(t, http.StatusOK, `{"data":{"amount":"1"}}`)
	g := NewDefaultGatherer(Config{PriceURL: srv.URL})

	got := g.Gather(context.Background(), "Crypto", "Will BTC miners see rain?")
	require.Len(t, got, 2)
	assert.Equal(t, "Coinbase", got[0].Name)
	assert.Equal(t, "Weather API", got[1].Name)
}

func TestRuleNames(t *testing.T) {
	g := NewDefaultGatherer(Config{})
	assert.Equal(t, []string{"crypto-spot", "weather-placeholder"}, g.RuleNames())

	var empty *Gatherer
	assert.Nil(t, empty.RuleNames())
}

func TestGatherNoMatch(t *testing.T) {
	g := NewDefaultGatherer(Config{PriceURL: "http://127.0.0.1:1"})
	got := g.Gather(context.Background(), "Politics", "Will the bill pass?")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGatherCustomRule(t *testing.T) {
	g := NewGatherer(
		Rule{
			Name:  "sports",
			Match: func(category, _ string) bool { return category == "Sports" },
			Fetch: func(context.Context, string, string) (Source, error) {
				return Source{Name: "Scores", Data: "3-1"}, nil
			},
		},
		Rule{
			Name:  "broken",
			Match: func(string, string) bool { return true },
			Fetch: func(context.Context, string, string) (Source, error) {
				return Source{}, errors.New("offline")
			},
		},
	)
	got := g.Gather(context.Background(), "Sports", "Will the home team win?")
	require.Len(t, got, 1)
	assert.Equal(t, "Scores", got[0].Name)
}

func TestTopicPredicates(t *testing.T) {
	assert.True(t, IsCryptoTopic("Custom", "BTC above 100k?"))
	assert.False(t, IsCryptoTopic("Custom", "btc above 100k?"))
	assert.True(t, IsCryptoTopic("crypto-assets", "anything"))
	assert.True(t, IsWeatherTopic("", "Weather in NYC"))
	assert.True(t, IsWeatherTopic("", "Will it rain?"))
	assert.False(t, IsWeatherTopic("Weather", "Snow in Oslo?"))
}
