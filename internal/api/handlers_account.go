package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

type registerRequest struct {
	Username string `json:"username"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	account, err := s.accounts.Register(r.Context(), req.Username)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	account, err := s.accounts.GetAccount(r.Context(), accountID(r))
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

type tapRequest struct {
	Taps int64 `json:"taps"`
}

func (s *Server) handleTap(w http.ResponseWriter, r *http.Request) {
	var req tapRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.accounts.TapEarn(r.Context(), accountID(r), req.Taps)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tokens_earned":   result.TokensEarned,
		"earned_today":    result.EarnedToday,
		"remaining_today": result.RemainingToday,
	})
}

type referralRequest struct {
	ReferrerID string `json:"referrer_id"`
}

// handleReferral credits the referral bonus; the authenticated caller
// is the referee.
func (s *Server) handleReferral(w http.ResponseWriter, r *http.Request) {
	var req referralRequest
	if !decodeBody(w, r, &req) {
		return
	}
	referrerID, err := uuid.Parse(req.ReferrerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid referrer id")
		return
	}

	if err := s.accounts.ReferralBonus(r.Context(), referrerID, accountID(r)); err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rewarded"})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	account, err := s.accounts.Reset(r.Context(), accountID(r))
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := s.accounts.Leaderboard(r.Context(), limit)
	if err != nil {
		serviceError(w, err)
		return
	}

	out := make([]leaderboardEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = leaderboardEntryResponse{
			Rank:     i + 1,
			Username: e.Username,
			Diamonds: e.Diamonds,
			WinRate:  winRate(e.WonBets, e.TotalBets),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": out})
}
