package api

import (
	"time"

	"github.com/shopspring/decimal"

	"eazybet-backend/internal/model"
)

type accountResponse struct {
	ID        string          `json:"id"`
	Username  string          `json:"username"`
	Tokens    decimal.Decimal `json:"tokens"`
	Diamonds  decimal.Decimal `json:"diamonds"`
	TotalBets int64           `json:"total_bets"`
	WonBets   int64           `json:"won_bets"`
	WinRate   int             `json:"win_rate"`
}

func toAccountResponse(a *model.Account) accountResponse {
	return accountResponse{
		ID:        a.ID.String(),
		Username:  a.Username,
		Tokens:    a.Tokens,
		Diamonds:  a.Diamonds,
		TotalBets: a.TotalBets,
		WonBets:   a.WonBets,
		WinRate:   winRate(a.WonBets, a.TotalBets),
	}
}

func winRate(won, total int64) int {
	if total == 0 {
		return 0
	}
	return int(won * 100 / total)
}

type wagerResponse struct {
	ID              string          `json:"id"`
	MatchID         string          `json:"match_id"`
	Choice          string          `json:"choice"`
	Stake           decimal.Decimal `json:"stake"`
	Currency        string          `json:"currency"`
	Odds            decimal.Decimal `json:"odds"`
	PotentialPayout decimal.Decimal `json:"potential_payout"`
	PotentialBonus  decimal.Decimal `json:"potential_bonus"`
	State           string          `json:"state"`
	RealizedPayout  decimal.Decimal `json:"realized_payout"`
	CreatedAt       time.Time       `json:"created_at"`
	SettledAt       *time.Time      `json:"settled_at,omitempty"`
}

func toWagerResponse(w *model.Wager) wagerResponse {
	return wagerResponse{
		ID:              w.ID.String(),
		MatchID:         w.MatchID.String(),
		Choice:          string(w.Choice),
		Stake:           w.Stake,
		Currency:        string(w.Currency),
		Odds:            w.Odds,
		PotentialPayout: w.PotentialPayout,
		PotentialBonus:  w.PotentialBonus,
		State:           string(w.State),
		RealizedPayout:  w.RealizedPayout,
		CreatedAt:       w.CreatedAt,
		SettledAt:       w.SettledAt,
	}
}

type selectionResponse struct {
	MatchID string          `json:"match_id"`
	Choice  string          `json:"choice"`
	Odds    decimal.Decimal `json:"odds"`
}

type comboResponse struct {
	ID              string              `json:"id"`
	Stake           decimal.Decimal     `json:"stake"`
	Currency        string              `json:"currency"`
	TotalOdds       decimal.Decimal     `json:"total_odds"`
	PotentialPayout decimal.Decimal     `json:"potential_payout"`
	PotentialBonus  decimal.Decimal     `json:"potential_bonus"`
	State           string              `json:"state"`
	RealizedPayout  decimal.Decimal     `json:"realized_payout"`
	Selections      []selectionResponse `json:"selections"`
	CreatedAt       time.Time           `json:"created_at"`
	SettledAt       *time.Time          `json:"settled_at,omitempty"`
}

func toComboResponse(c *model.ComboWager) comboResponse {
	selections := make([]selectionResponse, len(c.Selections))
	for i, sel := range c.Selections {
		selections[i] = selectionResponse{
			MatchID: sel.MatchID.String(),
			Choice:  string(sel.Choice),
			Odds:    sel.Odds,
		}
	}
	return comboResponse{
		ID:              c.ID.String(),
		Stake:           c.Stake,
		Currency:        string(c.Currency),
		TotalOdds:       c.TotalOdds,
		PotentialPayout: c.PotentialPayout,
		PotentialBonus:  c.PotentialBonus,
		State:           string(c.State),
		RealizedPayout:  c.RealizedPayout,
		Selections:      selections,
		CreatedAt:       c.CreatedAt,
		SettledAt:       c.SettledAt,
	}
}

type matchResponse struct {
	ID        string          `json:"id"`
	HomeTeam  string          `json:"home_team"`
	AwayTeam  string          `json:"away_team"`
	League    string          `json:"league,omitempty"`
	Status    string          `json:"status"`
	OddsHome  decimal.Decimal `json:"odds_home"`
	OddsDraw  decimal.Decimal `json:"odds_draw"`
	OddsAway  decimal.Decimal `json:"odds_away"`
	ScoreHome *int32          `json:"score_home,omitempty"`
	ScoreAway *int32          `json:"score_away,omitempty"`
	Result    *model.Choice   `json:"result,omitempty"`
	StartsAt  time.Time       `json:"starts_at"`
}

func toMatchResponse(m *model.Match) matchResponse {
	return matchResponse{
		ID:        m.ID.String(),
		HomeTeam:  m.HomeTeam,
		AwayTeam:  m.AwayTeam,
		League:    m.League,
		Status:    string(m.Status),
		OddsHome:  m.OddsHome,
		OddsDraw:  m.OddsDraw,
		OddsAway:  m.OddsAway,
		ScoreHome: m.ScoreHome,
		ScoreAway: m.ScoreAway,
		Result:    m.Result,
		StartsAt:  m.StartsAt,
	}
}

func toMatchResponses(ms []*model.Match) []matchResponse {
	out := make([]matchResponse, len(ms))
	for i, m := range ms {
		out[i] = toMatchResponse(m)
	}
	return out
}

type leaderboardEntryResponse struct {
	Rank     int             `json:"rank"`
	Username string          `json:"username"`
	Diamonds decimal.Decimal `json:"diamonds"`
	WinRate  int             `json:"win_rate"`
}
