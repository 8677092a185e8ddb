package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"eazybet-backend/internal/model"
)

const wagerColumns = `id, account_id, match_id, choice, stake, currency, odds,
	potential_payout, potential_bonus, state, realized_payout, created_at, settled_at`

// WagerRepository handles simple (single-match) wager persistence.
type WagerRepository struct {
	pool *pgxpool.Pool
}

// NewWagerRepository creates a new WagerRepository instance.
func NewWagerRepository(pool *pgxpool.Pool) *WagerRepository {
	return &WagerRepository{pool: pool}
}

func scanWager(row pgx.Row) (*model.Wager, error) {
	var w model.Wager
	err := row.Scan(
		&w.ID,
		&w.AccountID,
		&w.MatchID,
		&w.Choice,
		&w.Stake,
		&w.Currency,
		&w.Odds,
		&w.PotentialPayout,
		&w.PotentialBonus,
		&w.State,
		&w.RealizedPayout,
		&w.CreatedAt,
		&w.SettledAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Create inserts a new wager in PENDING state.
func (r *WagerRepository) Create(ctx context.Context, w *model.Wager) (*model.Wager, error) {
	const query = `
		INSERT INTO wagers (id, account_id, match_id, choice, stake, currency, odds,
			potential_payout, potential_bonus, state, realized_payout, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'PENDING', 0, NOW())
		RETURNING ` + wagerColumns

	created, err := scanWager(r.pool.QueryRow(ctx, query,
		uuid.New(), w.AccountID, w.MatchID, w.Choice, w.Stake, w.Currency, w.Odds,
		w.PotentialPayout, w.PotentialBonus,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create wager: %w", err)
	}
	return created, nil
}

// GetByID retrieves a wager by id.
func (r *WagerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Wager, error) {
	const query = `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1`

	w, err := scanWager(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWagerNotFound
		}
		return nil, fmt.Errorf("failed to get wager: %w", err)
	}
	return w, nil
}

// ListPendingByMatch retrieves every PENDING wager referencing a match.
func (r *WagerRepository) ListPendingByMatch(ctx context.Context, matchID uuid.UUID) ([]*model.Wager, error) {
	const query = `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE match_id = $1 AND state = 'PENDING'
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending wagers: %w", err)
	}
	defer rows.Close()

	var wagers []*model.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wager: %w", err)
		}
		wagers = append(wagers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wagers: %w", err)
	}
	return wagers, nil
}

// ListByAccount retrieves an account's wagers, newest first. states
// filters the result; an empty slice returns everything.
func (r *WagerRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, states []model.WagerState) ([]*model.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE account_id = $1`
	args := []any{accountID}
	if len(states) > 0 {
		query += ` AND state = ANY($2)`
		ss := make([]string, len(states))
		for i, s := range states {
			ss[i] = string(s)
		}
		args = append(args, ss)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list wagers: %w", err)
	}
	defer rows.Close()

	var wagers []*model.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wager: %w", err)
		}
		wagers = append(wagers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wagers: %w", err)
	}
	return wagers, nil
}

// Settle transitions a wager out of PENDING as a compare-and-swap: the
// UPDATE matches only while the row is still PENDING, so a concurrent
// settlement of the same match grades each wager exactly once. Returns
// false when the wager was already settled.
func (r *WagerRepository) Settle(ctx context.Context, id uuid.UUID, state model.WagerState, realizedPayout decimal.Decimal) (bool, error) {
	const query = `
		UPDATE wagers
		SET state = $2, realized_payout = $3, settled_at = NOW()
		WHERE id = $1 AND state = 'PENDING'
	`

	tag, err := r.pool.Exec(ctx, query, id, state, realizedPayout)
	if err != nil {
		return false, fmt.Errorf("failed to settle wager: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CountPendingByMatch reports how many wagers on a match still await
// settlement.
func (r *WagerRepository) CountPendingByMatch(ctx context.Context, matchID uuid.UUID) (int64, error) {
	const query = `SELECT COUNT(*) FROM wagers WHERE match_id = $1 AND state = 'PENDING'`

	var n int64
	if err := r.pool.QueryRow(ctx, query, matchID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pending wagers: %w", err)
	}
	return n, nil
}

// DeleteByAccount removes all of an account's wagers (account reset).
func (r *WagerRepository) DeleteByAccount(ctx context.Context, accountID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM wagers WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("failed to delete wagers: %w", err)
	}
	return nil
}
