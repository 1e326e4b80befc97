package markets

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state reported by the market service.
type Status string

const (
	StatusActive    Status = "Active"
	StatusClosed    Status = "Closed"
	StatusResolved  Status = "Resolved"
	StatusCancelled Status = "Cancelled"
)

// ParseStatus normalizes the service's enum spelling ("CLOSED", "Closed",
// "closed"). Unknown values are returned verbatim.
func ParseStatus(raw string) Status {
	trimmed := strings.TrimSpace(raw)
	switch strings.ToLower(trimmed) {
	case "active":
		return StatusActive
	case "closed":
		return StatusClosed
	case "resolved":
		return StatusResolved
	case "cancelled", "canceled":
		return StatusCancelled
	}
	return Status(trimmed)
}

func (s *Status) UnmarshalText(text []byte) error {
	*s = ParseStatus(string(text))
	return nil
}

// Outcome is the resolution token accepted by the resolveMarketAI mutation.
type Outcome string

const (
	OutcomeUp   Outcome = "Up"
	OutcomeDown Outcome = "Down"
)

// Market is a snapshot of one binary market, fetched fresh each cycle.
type Market struct {
	ID          uint64          `json:"id"`
	Question    string          `json:"question"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Status      Status          `json:"status"`
	OracleMode  string          `json:"oracleMode"`
	TotalPool   decimal.Decimal `json:"totalPool"`
	UpPool      decimal.Decimal `json:"upPool"`
	DownPool    decimal.Decimal `json:"downPool"`
}

var half = decimal.NewFromFloat(0.5)

// OddsUp is the share of the pool staked on UP, 0.5 for an empty pool.
func (m Market) OddsUp() decimal.Decimal {
	if m.TotalPool.IsZero() {
		return half
	}
	return m.UpPool.Div(m.TotalPool)
}

// OddsDown is 1 - OddsUp.
func (m Market) OddsDown() decimal.Decimal {
	return decimal.NewFromInt(1).Sub(m.OddsUp())
}

// Resolution is the payload submitted for a closed market.
type Resolution struct {
	MarketID   uint64
	Outcome    Outcome
	Confidence float64
	Reasoning  string
	Sources    []string
}
