package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"eazybet-backend/internal/model"
	"eazybet-backend/internal/service"
)

func (s *Server) handleUpcomingMatches(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	matches, err := s.matches.ListMatches(r.Context(), model.MatchUpcoming, limit)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": toMatchResponses(matches)})
}

func (s *Server) handleMatchResults(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	matches, err := s.matches.ListMatches(r.Context(), model.MatchFinished, limit)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": toMatchResponses(matches)})
}

type createMatchRequest struct {
	HomeTeam string          `json:"home_team"`
	AwayTeam string          `json:"away_team"`
	League   string          `json:"league"`
	OddsHome decimal.Decimal `json:"odds_home"`
	OddsDraw decimal.Decimal `json:"odds_draw"`
	OddsAway decimal.Decimal `json:"odds_away"`
	StartsAt time.Time       `json:"starts_at"`
}

func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	match, err := s.matches.CreateMatch(r.Context(), service.MatchInput{
		HomeTeam: req.HomeTeam,
		AwayTeam: req.AwayTeam,
		League:   req.League,
		OddsHome: req.OddsHome,
		OddsDraw: req.OddsDraw,
		OddsAway: req.OddsAway,
		StartsAt: req.StartsAt,
	})
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMatchResponse(match))
}

func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}

type updateScoreRequest struct {
	ScoreHome int32  `json:"score_home"`
	ScoreAway int32  `json:"score_away"`
	Status    string `json:"status"`
}

func (s *Server) handleUpdateScore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req updateScoreRequest
	if !decodeBody(w, r, &req) {
		return
	}

	match, err := s.matches.UpdateScore(r.Context(), id,
		req.ScoreHome, req.ScoreAway, model.MatchStatus(req.Status))
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMatchResponse(match))
}

type submitResultRequest struct {
	Result string `json:"result"`
}

func (s *Server) handleSubmitResult(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req submitResultRequest
	if !decodeBody(w, r, &req) {
		return
	}

	match, err := s.matches.SubmitResult(r.Context(), id, model.Choice(req.Result))
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMatchResponse(match))
}

func (s *Server) handleSettleMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "matchID")
	if !ok {
		return
	}

	report, err := s.settlement.SettleMatch(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"simple_graded": report.SimpleGraded,
		"combos_graded": report.CombosGraded,
		"failed":        report.Failed,
	})
}
