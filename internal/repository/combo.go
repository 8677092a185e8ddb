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

const comboColumns = `id, account_id, stake, currency, total_odds,
	potential_payout, potential_bonus, state, realized_payout, created_at, settled_at`

// ComboRepository handles combo wager persistence. A combo is a header
// row plus one selections row per leg. Header creation and selection
// insertion are deliberately separate operations: the placement service
// owns the rollback path (delete header, compensate ledger) when the
// second step fails.
type ComboRepository struct {
	pool *pgxpool.Pool
}

// NewComboRepository creates a new ComboRepository instance.
func NewComboRepository(pool *pgxpool.Pool) *ComboRepository {
	return &ComboRepository{pool: pool}
}

func scanCombo(row pgx.Row) (*model.ComboWager, error) {
	var c model.ComboWager
	err := row.Scan(
		&c.ID,
		&c.AccountID,
		&c.Stake,
		&c.Currency,
		&c.TotalOdds,
		&c.PotentialPayout,
		&c.PotentialBonus,
		&c.State,
		&c.RealizedPayout,
		&c.CreatedAt,
		&c.SettledAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateHeader inserts the combo header in PENDING state.
func (r *ComboRepository) CreateHeader(ctx context.Context, c *model.ComboWager) (*model.ComboWager, error) {
	const query = `
		INSERT INTO combo_wagers (id, account_id, stake, currency, total_odds,
			potential_payout, potential_bonus, state, realized_payout, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'PENDING', 0, NOW())
		RETURNING ` + comboColumns

	created, err := scanCombo(r.pool.QueryRow(ctx, query,
		uuid.New(), c.AccountID, c.Stake, c.Currency, c.TotalOdds,
		c.PotentialPayout, c.PotentialBonus,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create combo header: %w", err)
	}
	return created, nil
}

// InsertSelections attaches the legs to a combo header in one batch.
func (r *ComboRepository) InsertSelections(ctx context.Context, comboID uuid.UUID, selections []model.Selection) error {
	rows := make([][]any, len(selections))
	for i, s := range selections {
		rows[i] = []any{comboID, s.MatchID, s.Choice, s.Odds}
	}

	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"combo_selections"},
		[]string{"combo_id", "match_id", "choice", "odds"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to insert combo selections: %w", err)
	}
	return nil
}

// DeleteHeader removes an orphaned combo header (placement rollback).
// Selections cascade.
func (r *ComboRepository) DeleteHeader(ctx context.Context, comboID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM combo_wagers WHERE id = $1`, comboID); err != nil {
		return fmt.Errorf("failed to delete combo header: %w", err)
	}
	return nil
}

// loadSelections fetches the legs for a set of combo headers.
func (r *ComboRepository) loadSelections(ctx context.Context, combos []*model.ComboWager) error {
	if len(combos) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(combos))
	byID := make(map[uuid.UUID]*model.ComboWager, len(combos))
	for i, c := range combos {
		ids[i] = c.ID
		byID[c.ID] = c
	}

	const query = `
		SELECT id, combo_id, match_id, choice, odds
		FROM combo_selections
		WHERE combo_id = ANY($1)
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load combo selections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s model.Selection
		if err := rows.Scan(&s.ID, &s.ComboID, &s.MatchID, &s.Choice, &s.Odds); err != nil {
			return fmt.Errorf("failed to scan combo selection: %w", err)
		}
		if c, ok := byID[s.ComboID]; ok {
			c.Selections = append(c.Selections, s)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating combo selections: %w", err)
	}
	return nil
}

// GetByID retrieves a combo wager with its selections.
func (r *ComboRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ComboWager, error) {
	const query = `SELECT ` + comboColumns + ` FROM combo_wagers WHERE id = $1`

	c, err := scanCombo(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWagerNotFound
		}
		return nil, fmt.Errorf("failed to get combo wager: %w", err)
	}
	if err := r.loadSelections(ctx, []*model.ComboWager{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// ListPendingByMatch retrieves every PENDING combo with at least one
// selection referencing the match, selections included.
func (r *ComboRepository) ListPendingByMatch(ctx context.Context, matchID uuid.UUID) ([]*model.ComboWager, error) {
	const query = `
		SELECT ` + comboColumns + `
		FROM combo_wagers
		WHERE state = 'PENDING'
		  AND id IN (SELECT combo_id FROM combo_selections WHERE match_id = $1)
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending combos: %w", err)
	}
	defer rows.Close()

	var combos []*model.ComboWager
	for rows.Next() {
		c, err := scanCombo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan combo wager: %w", err)
		}
		combos = append(combos, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating combo wagers: %w", err)
	}

	if err := r.loadSelections(ctx, combos); err != nil {
		return nil, err
	}
	return combos, nil
}

// ListByAccount retrieves an account's combo wagers, newest first,
// optionally filtered by state.
func (r *ComboRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, states []model.WagerState) ([]*model.ComboWager, error) {
	query := `SELECT ` + comboColumns + ` FROM combo_wagers WHERE account_id = $1`
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
		return nil, fmt.Errorf("failed to list combo wagers: %w", err)
	}
	defer rows.Close()

	var combos []*model.ComboWager
	for rows.Next() {
		c, err := scanCombo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan combo wager: %w", err)
		}
		combos = append(combos, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating combo wagers: %w", err)
	}

	if err := r.loadSelections(ctx, combos); err != nil {
		return nil, err
	}
	return combos, nil
}

// Settle transitions a combo out of PENDING with the same
// compare-and-swap discipline as WagerRepository.Settle.
func (r *ComboRepository) Settle(ctx context.Context, id uuid.UUID, state model.WagerState, realizedPayout decimal.Decimal) (bool, error) {
	const query = `
		UPDATE combo_wagers
		SET state = $2, realized_payout = $3, settled_at = NOW()
		WHERE id = $1 AND state = 'PENDING'
	`

	tag, err := r.pool.Exec(ctx, query, id, state, realizedPayout)
	if err != nil {
		return false, fmt.Errorf("failed to settle combo wager: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteByAccount removes all of an account's combos (account reset).
// Selections cascade.
func (r *ComboRepository) DeleteByAccount(ctx context.Context, accountID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM combo_wagers WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("failed to delete combo wagers: %w", err)
	}
	return nil
}
