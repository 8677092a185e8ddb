// Package main is the entry point for the EazyBet betting backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"eazybet-backend/internal/api"
	"eazybet-backend/internal/audit"
	"eazybet-backend/internal/config"
	"eazybet-backend/internal/events"
	"eazybet-backend/internal/metrics"
	"eazybet-backend/internal/pkg/cache"
	"eazybet-backend/internal/pkg/db"
	"eazybet-backend/internal/repository"
	"eazybet-backend/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Repositories
	accountRepo := repository.NewAccountRepository(dbPool.Pool)
	wagerRepo := repository.NewWagerRepository(dbPool.Pool)
	comboRepo := repository.NewComboRepository(dbPool.Pool)
	matchRepo := repository.NewMatchRepository(dbPool.Pool)
	rewardsRepo := repository.NewRewardsRepository(dbPool.Pool)
	sysLogRepo := repository.NewSystemLogRepository(dbPool.Pool)

	// Ambient infrastructure: all optional pieces degrade to nil and
	// are safe to call in that state.
	auditLog := audit.New(sysLogRepo)
	publisher := events.NewPublisher(&cfg.Kafka)
	defer publisher.Close()
	board := cache.NewLeaderboard(ctx, &cfg.Redis)
	defer board.Close()

	// Services
	settlementService := service.NewSettlementService(
		accountRepo, wagerRepo, comboRepo, matchRepo, auditLog, publisher, board,
	)
	bettingService := service.NewBettingService(
		accountRepo, wagerRepo, comboRepo, matchRepo, auditLog, publisher, cfg.Betting,
	)
	conversionService := service.NewConversionService(
		accountRepo, auditLog, publisher, cfg.Conversion,
	)
	accountService := service.NewAccountService(
		accountRepo, wagerRepo, comboRepo, rewardsRepo, auditLog, publisher, board, cfg.Rewards,
	)
	matchService := service.NewMatchService(matchRepo, settlementService, auditLog)

	// Settlement sweep: safety net behind the result-submission trigger.
	var sweeper *cron.Cron
	if cfg.Settlement.SweepEnabled {
		sweeper = cron.New(cron.WithSeconds())
		_, err := sweeper.AddFunc(cfg.Settlement.SweepCron, func() {
			sweepCtx, sweepCancel := context.WithTimeout(ctx, time.Minute)
			defer sweepCancel()
			if err := settlementService.SweepFinished(sweepCtx); err != nil {
				log.Error().Err(err).Msg("Settlement sweep failed")
			}
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule settlement sweep")
		}
		sweeper.Start()
		log.Info().Str("schedule", cfg.Settlement.SweepCron).Msg("Settlement sweep scheduled")
	}

	metricsServer := metrics.StartServer(cfg.Metrics.Port, dbPool.HealthCheck)

	apiServer := api.NewServer(
		accountService, bettingService, conversionService, matchService, settlementService,
		api.HeaderAuthenticator{}, cfg.Server, dbPool.HealthCheck,
	)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      apiServer.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	if sweeper != nil {
		<-sweeper.Stop().Done()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Metrics server shutdown failed")
	}

	log.Info().Msg("Server stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create accounts table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			id UUID PRIMARY KEY,
			username VARCHAR(64) NOT NULL,
			tokens NUMERIC(20,2) NOT NULL DEFAULT 0 CHECK (tokens >= 0),
			diamonds NUMERIC(20,2) NOT NULL DEFAULT 0 CHECK (diamonds >= 0),
			total_bets BIGINT NOT NULL DEFAULT 0,
			won_bets BIGINT NOT NULL DEFAULT 0 CHECK (won_bets <= total_bets),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_accounts_diamonds ON accounts(diamonds DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: accounts table created")

	// Migration 2: Create matches table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS matches (
			id UUID PRIMARY KEY,
			home_team VARCHAR(255) NOT NULL,
			away_team VARCHAR(255) NOT NULL,
			league VARCHAR(255) NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL DEFAULT 'UPCOMING',
			odds_home NUMERIC(10,2) NOT NULL,
			odds_draw NUMERIC(10,2) NOT NULL,
			odds_away NUMERIC(10,2) NOT NULL,
			score_home INT,
			score_away INT,
			result VARCHAR(10),
			starts_at TIMESTAMPTZ NOT NULL,
			settled BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_matches_status ON matches(status, starts_at);
		CREATE INDEX IF NOT EXISTS idx_matches_unsettled ON matches(settled) WHERE settled = FALSE;
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: matches table created")

	// Migration 3: Create wagers table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS wagers (
			id UUID PRIMARY KEY,
			account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			match_id UUID NOT NULL REFERENCES matches(id),
			choice VARCHAR(10) NOT NULL,
			stake NUMERIC(20,2) NOT NULL CHECK (stake > 0),
			currency VARCHAR(10) NOT NULL,
			odds NUMERIC(10,2) NOT NULL,
			potential_payout NUMERIC(20,2) NOT NULL,
			potential_bonus NUMERIC(20,2) NOT NULL DEFAULT 0,
			state VARCHAR(10) NOT NULL DEFAULT 'PENDING',
			realized_payout NUMERIC(20,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			settled_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_wagers_match_pending ON wagers(match_id) WHERE state = 'PENDING';
		CREATE INDEX IF NOT EXISTS idx_wagers_account_time ON wagers(account_id, created_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: wagers table created")

	// Migration 4: Create combo wager tables
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS combo_wagers (
			id UUID PRIMARY KEY,
			account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			stake NUMERIC(20,2) NOT NULL CHECK (stake > 0),
			currency VARCHAR(10) NOT NULL,
			total_odds NUMERIC(14,4) NOT NULL,
			potential_payout NUMERIC(20,2) NOT NULL,
			potential_bonus NUMERIC(20,2) NOT NULL DEFAULT 0,
			state VARCHAR(10) NOT NULL DEFAULT 'PENDING',
			realized_payout NUMERIC(20,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			settled_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_combo_wagers_account_time ON combo_wagers(account_id, created_at DESC);

		CREATE TABLE IF NOT EXISTS combo_selections (
			id BIGSERIAL PRIMARY KEY,
			combo_id UUID NOT NULL REFERENCES combo_wagers(id) ON DELETE CASCADE,
			match_id UUID NOT NULL REFERENCES matches(id),
			choice VARCHAR(10) NOT NULL,
			odds NUMERIC(10,2) NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_combo_selections_match ON combo_selections(match_id);
		CREATE INDEX IF NOT EXISTS idx_combo_selections_combo ON combo_selections(combo_id);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 4: combo wager tables created")

	// Migration 5: Create system logs table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS system_logs (
			id BIGSERIAL PRIMARY KEY,
			type VARCHAR(50) NOT NULL,
			payload JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_system_logs_type_time ON system_logs(type, created_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 5: system_logs table created")

	// Migration 6: Create reward tables
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tap_events (
			id BIGSERIAL PRIMARY KEY,
			account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			tokens_earned NUMERIC(20,2) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_tap_events_account_time ON tap_events(account_id, created_at DESC);

		CREATE TABLE IF NOT EXISTS referrals (
			id BIGSERIAL PRIMARY KEY,
			referrer_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			referee_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (referrer_id, referee_id)
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 6: reward tables created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
