// Package events publishes domain events to Kafka for downstream
// consumers (analytics, notifications). Publishing is fire-and-forget:
// a broker outage never fails the originating operation.
package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// BetPlaced is emitted after a wager or combo wager is recorded.
type BetPlaced struct {
	WagerID   string          `json:"wager_id"`
	AccountID string          `json:"account_id"`
	Combo     bool            `json:"combo"`
	Stake     decimal.Decimal `json:"stake"`
	Currency  string          `json:"currency"`
	Odds      decimal.Decimal `json:"odds"`
	TsUnixMs  int64           `json:"ts_unix_ms"`
}

// BetSettled is emitted after a wager is graded.
type BetSettled struct {
	WagerID   string          `json:"wager_id"`
	AccountID string          `json:"account_id"`
	MatchID   string          `json:"match_id,omitempty"`
	Combo     bool            `json:"combo"`
	Won       bool            `json:"won"`
	Payout    decimal.Decimal `json:"payout"`
	TsUnixMs  int64           `json:"ts_unix_ms"`
}

// Conversion is emitted after a token-to-diamond exchange.
type Conversion struct {
	AccountID      string          `json:"account_id"`
	TokensSpent    decimal.Decimal `json:"tokens_spent"`
	DiamondsEarned decimal.Decimal `json:"diamonds_earned"`
	TsUnixMs       int64           `json:"ts_unix_ms"`
}

func nowMs() int64 { return time.Now().UnixMilli() }
