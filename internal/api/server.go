// Package api exposes the betting backend over HTTP. Handlers are thin:
// decode, call the service, map the error taxonomy to a status code.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"eazybet-backend/internal/config"
	"eazybet-backend/internal/service"
)

// Server wires the HTTP surface to the service layer.
type Server struct {
	accounts   *service.AccountService
	betting    *service.BettingService
	conversion *service.ConversionService
	matches    *service.MatchService
	settlement *service.SettlementService
	auth       Authenticator
	cfg        config.ServerConfig
	healthPing func(ctx context.Context) error
}

// NewServer creates a new Server instance.
func NewServer(
	accounts *service.AccountService,
	betting *service.BettingService,
	conversion *service.ConversionService,
	matches *service.MatchService,
	settlement *service.SettlementService,
	auth Authenticator,
	cfg config.ServerConfig,
	healthPing func(ctx context.Context) error,
) *Server {
	return &Server{
		accounts:   accounts,
		betting:    betting,
		conversion: conversion,
		matches:    matches,
		settlement: settlement,
		auth:       auth,
		cfg:        cfg,
		healthPing: healthPing,
	}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/accounts", s.handleRegister)
	r.Get("/leaderboard", s.handleLeaderboard)
	r.Get("/matches/upcoming", s.handleUpcomingMatches)
	r.Get("/matches/results", s.handleMatchResults)

	r.Group(func(r chi.Router) {
		r.Use(requireAccount(s.auth))

		r.Post("/bets", s.handlePlaceBet)
		r.Post("/bets/combo", s.handlePlaceComboBet)
		r.Get("/bets", s.handleListBets)
		r.Get("/wallet", s.handleWallet)
		r.Post("/wallet/convert", s.handleConvert)
		r.Post("/tap", s.handleTap)
		r.Post("/referrals", s.handleReferral)
		r.Post("/account/reset", s.handleReset)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAdmin(s.cfg.AdminToken))

		r.Post("/admin/matches", s.handleCreateMatch)
		r.Post("/admin/matches/{id}/score", s.handleUpdateScore)
		r.Post("/admin/matches/{id}/resolve", s.handleSubmitResult)
		r.Post("/admin/settle/{matchID}", s.handleSettleMatch)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.healthPing != nil {
		if err := s.healthPing(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "unhealthy", "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
