// Package repository provides data access layer implementations.
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

// Common errors for repository operations.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrWagerNotFound     = errors.New("wager not found")
	ErrMatchNotFound     = errors.New("match not found")
	ErrReferralExists    = errors.New("referral already granted")
)

const accountColumns = `id, username, tokens, diamonds, total_bets, won_bets, created_at, updated_at`

// AccountRepository is the ledger store: one row per user, holding the
// token and diamond balances and the bet counters. All mutations are
// single conditional statements so a balance check and its debit cannot
// be split by a concurrent writer.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository instance.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// balanceColumn maps a currency to its column. Currencies are validated
// at the service boundary; anything else falls back to tokens.
func balanceColumn(c model.Currency) string {
	if c == model.CurrencyDiamonds {
		return "diamonds"
	}
	return "tokens"
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID,
		&a.Username,
		&a.Tokens,
		&a.Diamonds,
		&a.TotalBets,
		&a.WonBets,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create creates a new account with the given seed balances.
func (r *AccountRepository) Create(ctx context.Context, username string, tokens, diamonds decimal.Decimal) (*model.Account, error) {
	const query = `
		INSERT INTO accounts (id, username, tokens, diamonds, total_bets, won_bets, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, 0, NOW(), NOW())
		RETURNING ` + accountColumns

	a, err := scanAccount(r.pool.QueryRow(ctx, query, uuid.New(), username, tokens, diamonds))
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return a, nil
}

// GetByID retrieves an account by id.
// Returns ErrAccountNotFound if the account does not exist.
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	a, err := scanAccount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return a, nil
}

// exists reports whether the account row is present, used to tell an
// unknown account apart from an insufficient balance after a
// conditional update matched no rows.
func (r *AccountRepository) exists(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}
	return exists, nil
}

// DebitForWager atomically deducts a stake and increments total_bets.
// The balance check happens at mutation time: the UPDATE matches only
// when the balance still covers the amount, so two concurrent
// placements cannot both spend the same funds.
func (r *AccountRepository) DebitForWager(ctx context.Context, id uuid.UUID, currency model.Currency, amount decimal.Decimal) error {
	col := balanceColumn(currency)
	query := fmt.Sprintf(`
		UPDATE accounts
		SET %[1]s = %[1]s - $2, total_bets = total_bets + 1, updated_at = NOW()
		WHERE id = $1 AND %[1]s >= $2
	`, col)

	tag, err := r.pool.Exec(ctx, query, id, amount)
	if err != nil {
		return fmt.Errorf("failed to debit account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		ok, err := r.exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAccountNotFound
		}
		return ErrInsufficientFunds
	}
	return nil
}

// CompensateWagerDebit reverses a DebitForWager exactly: the stake is
// restored and the total_bets increment undone in one statement.
func (r *AccountRepository) CompensateWagerDebit(ctx context.Context, id uuid.UUID, currency model.Currency, amount decimal.Decimal) error {
	col := balanceColumn(currency)
	query := fmt.Sprintf(`
		UPDATE accounts
		SET %[1]s = %[1]s + $2, total_bets = total_bets - 1, updated_at = NOW()
		WHERE id = $1
	`, col)

	tag, err := r.pool.Exec(ctx, query, id, amount)
	if err != nil {
		return fmt.Errorf("failed to compensate debit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Credit adds to a single balance.
func (r *AccountRepository) Credit(ctx context.Context, id uuid.UUID, currency model.Currency, amount decimal.Decimal) error {
	col := balanceColumn(currency)
	query := fmt.Sprintf(`
		UPDATE accounts
		SET %[1]s = %[1]s + $2, updated_at = NOW()
		WHERE id = $1
	`, col)

	tag, err := r.pool.Exec(ctx, query, id, amount)
	if err != nil {
		return fmt.Errorf("failed to credit account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// CreditWin pays out a settled wager: both balance deltas and the
// won_bets increment land in one statement so a crash cannot leave a
// paid wager without its counter.
func (r *AccountRepository) CreditWin(ctx context.Context, id uuid.UUID, tokens, diamonds decimal.Decimal) error {
	const query = `
		UPDATE accounts
		SET tokens = tokens + $2, diamonds = diamonds + $3, won_bets = won_bets + 1, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, tokens, diamonds)
	if err != nil {
		return fmt.Errorf("failed to credit win: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// ConvertTokens atomically exchanges tokens for diamonds. The token
// debit re-checks sufficiency at mutation time, same discipline as
// DebitForWager.
func (r *AccountRepository) ConvertTokens(ctx context.Context, id uuid.UUID, tokenAmount, diamondAmount decimal.Decimal) error {
	const query = `
		UPDATE accounts
		SET tokens = tokens - $2, diamonds = diamonds + $3, updated_at = NOW()
		WHERE id = $1 AND tokens >= $2
	`

	tag, err := r.pool.Exec(ctx, query, id, tokenAmount, diamondAmount)
	if err != nil {
		return fmt.Errorf("failed to convert tokens: %w", err)
	}
	if tag.RowsAffected() == 0 {
		ok, err := r.exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAccountNotFound
		}
		return ErrInsufficientFunds
	}
	return nil
}

// Reset restores an account to its starting balances and zeroes the
// betting counters.
func (r *AccountRepository) Reset(ctx context.Context, id uuid.UUID, tokens, diamonds decimal.Decimal) error {
	const query = `
		UPDATE accounts
		SET tokens = $2, diamonds = $3, total_bets = 0, won_bets = 0, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, tokens, diamonds)
	if err != nil {
		return fmt.Errorf("failed to reset account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Top retrieves the leaderboard ordered by diamonds. This is a display
// read and does not need the ledger's atomicity guarantees.
func (r *AccountRepository) Top(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	const query = `
		SELECT id, username, diamonds, total_bets, won_bets
		FROM accounts
		ORDER BY diamonds DESC, username ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.AccountID, &e.Username, &e.Diamonds, &e.TotalBets, &e.WonBets); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}
	return entries, nil
}
