package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// RewardsRepository persists tap-to-earn events and referral grants.
type RewardsRepository struct {
	pool *pgxpool.Pool
}

// NewRewardsRepository creates a new RewardsRepository instance.
func NewRewardsRepository(pool *pgxpool.Pool) *RewardsRepository {
	return &RewardsRepository{pool: pool}
}

// RecordTap records tokens granted through tapping.
func (r *RewardsRepository) RecordTap(ctx context.Context, accountID uuid.UUID, tokensEarned decimal.Decimal) error {
	const query = `
		INSERT INTO tap_events (account_id, tokens_earned, created_at)
		VALUES ($1, $2, NOW())
	`

	if _, err := r.pool.Exec(ctx, query, accountID, tokensEarned); err != nil {
		return fmt.Errorf("failed to record tap event: %w", err)
	}
	return nil
}

// TapsEarnedSince sums the tokens granted to an account since the given
// time; used to enforce the daily cap.
func (r *RewardsRepository) TapsEarnedSince(ctx context.Context, accountID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	const query = `
		SELECT COALESCE(SUM(tokens_earned), 0)
		FROM tap_events
		WHERE account_id = $1 AND created_at >= $2
	`

	var total decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, accountID, since).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum tap events: %w", err)
	}
	return total, nil
}

// CreateReferral records a referral grant. Returns ErrReferralExists
// when the pair was already rewarded.
func (r *RewardsRepository) CreateReferral(ctx context.Context, referrerID, refereeID uuid.UUID) error {
	const query = `
		INSERT INTO referrals (referrer_id, referee_id, created_at)
		VALUES ($1, $2, NOW())
	`

	if _, err := r.pool.Exec(ctx, query, referrerID, refereeID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrReferralExists
		}
		return fmt.Errorf("failed to create referral: %w", err)
	}
	return nil
}

// DeleteTapsByAccount removes an account's tap history (account reset).
func (r *RewardsRepository) DeleteTapsByAccount(ctx context.Context, accountID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM tap_events WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("failed to delete tap events: %w", err)
	}
	return nil
}
