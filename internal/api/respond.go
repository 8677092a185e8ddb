package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"eazybet-backend/internal/service"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	writeJSON(w, status, body)
}

// serviceError maps the service error taxonomy to HTTP. Anything
// unmapped is a 500 with an opaque body; the detail goes to the log.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, "insufficient_funds", err.Error())
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrMatchNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrInvalidStake),
		errors.Is(err, service.ErrInvalidChoice),
		errors.Is(err, service.ErrInvalidCurrency),
		errors.Is(err, service.ErrMatchUnavailable),
		errors.Is(err, service.ErrTooFewSelections),
		errors.Is(err, service.ErrTooManySelections),
		errors.Is(err, service.ErrDuplicateSelection),
		errors.Is(err, service.ErrBelowMinimum),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrNothingToConvert),
		errors.Is(err, service.ErrInvalidUsername),
		errors.Is(err, service.ErrInvalidTapCount),
		errors.Is(err, service.ErrSelfReferral),
		errors.Is(err, service.ErrInvalidOdds),
		errors.Is(err, service.ErrInvalidTeams),
		errors.Is(err, service.ErrInvalidScore),
		errors.Is(err, service.ErrInvalidResult),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrMatchNotFinished),
		errors.Is(err, service.ErrNoOutcome):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, service.ErrDailyCapReached):
		writeError(w, http.StatusTooManyRequests, "daily_cap_reached", err.Error())
	case errors.Is(err, service.ErrReferralExists):
		writeError(w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, service.ErrMatchFinished):
		writeError(w, http.StatusConflict, "match_finished", err.Error())
	default:
		log.Error().Err(err).Msg("Unhandled service error")
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return false
	}
	return true
}
