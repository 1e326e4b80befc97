package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultSpotURL     = "https://api.coinbase.com/v2/prices/BTC-USD/spot"
	spotSourceURL      = "https://api.coinbase.com"
	defaultSpotTimeout = 10 * time.Second
)

// SpotPriceFetcher reads a Coinbase-style spot quote: {"data":{"amount":"..."}}.
type SpotPriceFetcher struct {
	url        string
	httpClient *http.Client
}

// NewSpotPriceFetcher builds a fetcher with sane defaults.
func NewSpotPriceFetcher(cfg Config) *SpotPriceFetcher {
	u := strings.TrimSpace(cfg.PriceURL)
	if u == "" {
		u = defaultSpotURL
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultSpotTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &SpotPriceFetcher{url: u, httpClient: client}
}

type spotResponse struct {
	Data struct {
		Base     string `json:"base"`
		Currency string `json:"currency"`
		Amount   string `json:"amount"`
	} `json:"data"`
}

// Price returns the quoted amount.
func (f *SpotPriceFetcher) Price(ctx context.Context) (decimal.Decimal, error) {
	_, amount, err := f.quote(ctx)
	return amount, err
}

// quote returns the amount as quoted plus its parsed value.
func (f *SpotPriceFetcher) quote(ctx context.Context) (string, decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", decimal.Zero, err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", decimal.Zero, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", decimal.Zero, fmt.Errorf("spot price %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var payload spotResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", decimal.Zero, fmt.Errorf("decode spot price: %w", err)
	}
	raw := strings.TrimSpace(payload.Data.Amount)
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return "", decimal.Zero, fmt.Errorf("parse spot amount %q: %w", payload.Data.Amount, err)
	}
	return raw, amount, nil
}

// Fetch adapts the quote to the rule table. The amount is rendered exactly
// as quoted.
func (f *SpotPriceFetcher) Fetch(ctx context.Context, _, _ string) (Source, error) {
	raw, _, err := f.quote(ctx)
	if err != nil {
		return Source{}, err
	}
	return Source{
		Name: "Coinbase",
		URL:  spotSourceURL,
		Data: fmt.Sprintf("BTC Price: $%s", raw),
	}, nil
}
