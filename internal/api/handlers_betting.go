package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"eazybet-backend/internal/model"
	"eazybet-backend/internal/service"
)

type placeBetRequest struct {
	MatchID  string          `json:"match_id"`
	Choice   string          `json:"choice"`
	Stake    decimal.Decimal `json:"stake"`
	Currency string          `json:"currency"`
}

func (s *Server) handlePlaceBet(w http.ResponseWriter, r *http.Request) {
	var req placeBetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	matchID, err := uuid.Parse(req.MatchID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid match id")
		return
	}

	wager, err := s.betting.PlaceBet(r.Context(), accountID(r), matchID,
		model.Choice(req.Choice), req.Stake, model.Currency(req.Currency))
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWagerResponse(wager))
}

type comboSelectionRequest struct {
	MatchID string `json:"match_id"`
	Choice  string `json:"choice"`
}

type placeComboRequest struct {
	Selections []comboSelectionRequest `json:"selections"`
	Stake      decimal.Decimal         `json:"stake"`
	Currency   string                  `json:"currency"`
}

func (s *Server) handlePlaceComboBet(w http.ResponseWriter, r *http.Request) {
	var req placeComboRequest
	if !decodeBody(w, r, &req) {
		return
	}

	inputs := make([]service.SelectionInput, len(req.Selections))
	for i, sel := range req.Selections {
		matchID, err := uuid.Parse(sel.MatchID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid match id in selections")
			return
		}
		inputs[i] = service.SelectionInput{MatchID: matchID, Choice: model.Choice(sel.Choice)}
	}

	combo, err := s.betting.PlaceComboBet(r.Context(), accountID(r), inputs,
		req.Stake, model.Currency(req.Currency))
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toComboResponse(combo))
}

// stateFilter translates the ?state query parameter into wager states.
func stateFilter(raw string) []model.WagerState {
	switch raw {
	case "pending":
		return []model.WagerState{model.WagerPending}
	case "settled":
		return []model.WagerState{model.WagerWon, model.WagerLost}
	default:
		return nil
	}
}

func (s *Server) handleListBets(w http.ResponseWriter, r *http.Request) {
	states := stateFilter(r.URL.Query().Get("state"))

	list, err := s.accounts.ListWagers(r.Context(), accountID(r), states)
	if err != nil {
		serviceError(w, err)
		return
	}

	simple := make([]wagerResponse, len(list.Simple))
	for i, wg := range list.Simple {
		simple[i] = toWagerResponse(wg)
	}
	combos := make([]comboResponse, len(list.Combos))
	for i, c := range list.Combos {
		combos[i] = toComboResponse(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"wagers": simple,
		"combos": combos,
	})
}

type convertRequest struct {
	Tokens decimal.Decimal `json:"tokens"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.conversion.Convert(r.Context(), accountID(r), req.Tokens)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tokens_spent":    result.TokensSpent,
		"diamonds_earned": result.DiamondsEarned,
		"account":         toAccountResponse(result.Account),
	})
}
