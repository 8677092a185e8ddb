// Package model defines the data models for the EazyBet backend.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency identifies which balance a stake or payout moves.
type Currency string

const (
	CurrencyTokens   Currency = "tokens"
	CurrencyDiamonds Currency = "diamonds"
)

// Valid reports whether c is a known currency.
func (c Currency) Valid() bool {
	return c == CurrencyTokens || c == CurrencyDiamonds
}

// Choice is a predicted match outcome.
type Choice string

const (
	ChoiceHome Choice = "HOME"
	ChoiceDraw Choice = "DRAW"
	ChoiceAway Choice = "AWAY"
)

// Valid reports whether c is a known choice.
func (c Choice) Valid() bool {
	return c == ChoiceHome || c == ChoiceDraw || c == ChoiceAway
}

// WagerState is the lifecycle state of a wager. Transitions are
// PENDING -> WON or PENDING -> LOST, exactly once, never reversed.
type WagerState string

const (
	WagerPending WagerState = "PENDING"
	WagerWon     WagerState = "WON"
	WagerLost    WagerState = "LOST"
)

// MatchStatus is the lifecycle state of a match.
type MatchStatus string

const (
	MatchUpcoming MatchStatus = "UPCOMING"
	MatchLive     MatchStatus = "LIVE"
	MatchFinished MatchStatus = "FINISHED"
)

// Valid reports whether s is a known match status.
func (s MatchStatus) Valid() bool {
	return s == MatchUpcoming || s == MatchLive || s == MatchFinished
}

// Account holds a user's wallet state. Balances never go negative and
// won_bets never exceeds total_bets; both are enforced at the store.
type Account struct {
	ID        uuid.UUID       `db:"id"`
	Username  string          `db:"username"`
	Tokens    decimal.Decimal `db:"tokens"`
	Diamonds  decimal.Decimal `db:"diamonds"`
	TotalBets int64           `db:"total_bets"`
	WonBets   int64           `db:"won_bets"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Balance returns the account balance in the given currency.
func (a *Account) Balance(c Currency) decimal.Decimal {
	if c == CurrencyDiamonds {
		return a.Diamonds
	}
	return a.Tokens
}

// Match is owned by the outcome feed; the betting core reads it only.
// Result, when set by an admin, takes precedence over the scores.
type Match struct {
	ID        uuid.UUID       `db:"id"`
	HomeTeam  string          `db:"home_team"`
	AwayTeam  string          `db:"away_team"`
	League    string          `db:"league"`
	Status    MatchStatus     `db:"status"`
	OddsHome  decimal.Decimal `db:"odds_home"`
	OddsDraw  decimal.Decimal `db:"odds_draw"`
	OddsAway  decimal.Decimal `db:"odds_away"`
	ScoreHome *int32          `db:"score_home"`
	ScoreAway *int32          `db:"score_away"`
	Result    *Choice         `db:"result"`
	StartsAt  time.Time       `db:"starts_at"`
	Settled   bool            `db:"settled"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Odds returns the match odds for the given choice.
func (m *Match) Odds(c Choice) decimal.Decimal {
	switch c {
	case ChoiceHome:
		return m.OddsHome
	case ChoiceAway:
		return m.OddsAway
	default:
		return m.OddsDraw
	}
}

// Outcome returns the winning side of a finished match. The explicit
// result wins; otherwise it is derived from the final scores. ok is
// false when the match has no determinable outcome yet.
func (m *Match) Outcome() (Choice, bool) {
	if m.Status != MatchFinished {
		return "", false
	}
	if m.Result != nil {
		return *m.Result, true
	}
	if m.ScoreHome == nil || m.ScoreAway == nil {
		return "", false
	}
	switch {
	case *m.ScoreHome > *m.ScoreAway:
		return ChoiceHome, true
	case *m.ScoreHome < *m.ScoreAway:
		return ChoiceAway, true
	default:
		return ChoiceDraw, true
	}
}

// Wager is a single-match bet. Odds are copied from the match at
// placement time; PotentialPayout is the rounded promise shown to the
// user, RealizedPayout what settlement actually credited.
type Wager struct {
	ID              uuid.UUID       `db:"id"`
	AccountID       uuid.UUID       `db:"account_id"`
	MatchID         uuid.UUID       `db:"match_id"`
	Choice          Choice          `db:"choice"`
	Stake           decimal.Decimal `db:"stake"`
	Currency        Currency        `db:"currency"`
	Odds            decimal.Decimal `db:"odds"`
	PotentialPayout decimal.Decimal `db:"potential_payout"`
	PotentialBonus  decimal.Decimal `db:"potential_bonus"`
	State           WagerState      `db:"state"`
	RealizedPayout  decimal.Decimal `db:"realized_payout"`
	CreatedAt       time.Time       `db:"created_at"`
	SettledAt       *time.Time      `db:"settled_at"`
}

// Selection is one leg of a combo wager.
type Selection struct {
	ID      int64           `db:"id"`
	ComboID uuid.UUID       `db:"combo_id"`
	MatchID uuid.UUID       `db:"match_id"`
	Choice  Choice          `db:"choice"`
	Odds    decimal.Decimal `db:"odds"`
}

// ComboWager is a multi-match bet that pays out only if every leg wins.
// TotalOdds is the product of the selection odds.
type ComboWager struct {
	ID              uuid.UUID       `db:"id"`
	AccountID       uuid.UUID       `db:"account_id"`
	Stake           decimal.Decimal `db:"stake"`
	Currency        Currency        `db:"currency"`
	TotalOdds       decimal.Decimal `db:"total_odds"`
	PotentialPayout decimal.Decimal `db:"potential_payout"`
	PotentialBonus  decimal.Decimal `db:"potential_bonus"`
	State           WagerState      `db:"state"`
	RealizedPayout  decimal.Decimal `db:"realized_payout"`
	CreatedAt       time.Time       `db:"created_at"`
	SettledAt       *time.Time      `db:"settled_at"`

	Selections []Selection `db:"-"`
}

// TapEvent records tokens granted through tap-to-earn, used to enforce
// the daily cap.
type TapEvent struct {
	ID           int64           `db:"id"`
	AccountID    uuid.UUID       `db:"account_id"`
	TokensEarned decimal.Decimal `db:"tokens_earned"`
	CreatedAt    time.Time       `db:"created_at"`
}

// Referral links a referrer to a referee; the bonus is granted at most
// once per pair.
type Referral struct {
	ID         int64     `db:"id"`
	ReferrerID uuid.UUID `db:"referrer_id"`
	RefereeID  uuid.UUID `db:"referee_id"`
	CreatedAt  time.Time `db:"created_at"`
}

// Audit log entry types written to system_logs.
const (
	LogBetPlaced          = "bet_placed"
	LogComboBetPlaced     = "combo_bet_placed"
	LogBetSettledWon      = "bet_settled_won"
	LogBetSettledLost     = "bet_settled_lost"
	LogComboSettledWon    = "combo_settled_won"
	LogComboSettledLost   = "combo_settled_lost"
	LogConversion         = "tokens_converted"
	LogTapEarn            = "tap_earn"
	LogReferralBonus      = "referral_bonus"
	LogAccountReset       = "account_reset"
	LogMatchScoreUpdated  = "match_score_updated"
	LogMatchResolved      = "match_resolved"
	LogCompensationFailed = "compensation_failed"
)

// LeaderboardEntry is a read model for the diamond standings.
type LeaderboardEntry struct {
	Rank      int             `db:"-"`
	AccountID uuid.UUID       `db:"id"`
	Username  string          `db:"username"`
	Diamonds  decimal.Decimal `db:"diamonds"`
	TotalBets int64           `db:"total_bets"`
	WonBets   int64           `db:"won_bets"`
	WinRate   int             `db:"-"`
}
