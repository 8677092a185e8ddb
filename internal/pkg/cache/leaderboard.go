// Package cache provides an optional Redis mirror of the diamond
// leaderboard. The accounts table stays the source of truth; the ZSET
// exists for consumers that want cheap rank lookups (realtime widgets)
// without hitting Postgres. All updates are fire-and-forget.
package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"eazybet-backend/internal/config"
)

// Leaderboard mirrors diamond balances into a Redis sorted set. A nil
// Leaderboard is valid and does nothing.
type Leaderboard struct {
	client *redis.Client
	key    string
}

// NewLeaderboard connects to Redis per config. Returns nil when the
// cache is not configured; a connection failure is logged, not fatal.
func NewLeaderboard(ctx context.Context, cfg *config.RedisConfig) *Leaderboard {
	if !cfg.Enabled() {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Addr).Msg("Redis unavailable, leaderboard cache disabled")
		_ = client.Close()
		return nil
	}

	log.Info().Str("addr", cfg.Addr).Str("key", cfg.LeaderboardKey).Msg("Leaderboard cache connected")
	return &Leaderboard{client: client, key: cfg.LeaderboardKey}
}

// Close releases the Redis connection.
func (l *Leaderboard) Close() error {
	if l == nil {
		return nil
	}
	return l.client.Close()
}

// AddDiamonds bumps an account's cached score by delta.
func (l *Leaderboard) AddDiamonds(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) {
	if l == nil || delta.IsZero() {
		return
	}
	f, _ := delta.Float64()
	if err := l.client.ZIncrBy(ctx, l.key, f, accountID.String()).Err(); err != nil {
		log.Warn().Err(err).Str("account_id", accountID.String()).Msg("Failed to update leaderboard cache")
	}
}

// Remove drops an account from the cached standings (account reset).
func (l *Leaderboard) Remove(ctx context.Context, accountID uuid.UUID) {
	if l == nil {
		return
	}
	if err := l.client.ZRem(ctx, l.key, accountID.String()).Err(); err != nil {
		log.Warn().Err(err).Str("account_id", accountID.String()).Msg("Failed to remove leaderboard cache entry")
	}
}
