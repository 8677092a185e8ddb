package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eazybet-backend/internal/model"
)

const matchColumns = `id, home_team, away_team, league, status, odds_home, odds_draw, odds_away,
	score_home, score_away, result, starts_at, settled, created_at, updated_at`

// MatchRepository is the storage side of the match outcome feed. The
// betting core only reads from it; the write paths exist for the admin
// surface and the settlement sweep bookkeeping.
type MatchRepository struct {
	pool *pgxpool.Pool
}

// NewMatchRepository creates a new MatchRepository instance.
func NewMatchRepository(pool *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{pool: pool}
}

func scanMatch(row pgx.Row) (*model.Match, error) {
	var m model.Match
	err := row.Scan(
		&m.ID,
		&m.HomeTeam,
		&m.AwayTeam,
		&m.League,
		&m.Status,
		&m.OddsHome,
		&m.OddsDraw,
		&m.OddsAway,
		&m.ScoreHome,
		&m.ScoreAway,
		&m.Result,
		&m.StartsAt,
		&m.Settled,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a new upcoming match.
func (r *MatchRepository) Create(ctx context.Context, m *model.Match) (*model.Match, error) {
	const query = `
		INSERT INTO matches (id, home_team, away_team, league, status,
			odds_home, odds_draw, odds_away, starts_at, settled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'UPCOMING', $5, $6, $7, $8, FALSE, NOW(), NOW())
		RETURNING ` + matchColumns

	created, err := scanMatch(r.pool.QueryRow(ctx, query,
		uuid.New(), m.HomeTeam, m.AwayTeam, m.League,
		m.OddsHome, m.OddsDraw, m.OddsAway, m.StartsAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	return created, nil
}

// GetByID retrieves a match by id.
// Returns ErrMatchNotFound if the match does not exist.
func (r *MatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Match, error) {
	const query = `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	m, err := scanMatch(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return m, nil
}

// GetByIDs retrieves several matches at once, keyed by id. Missing ids
// are simply absent from the result.
func (r *MatchRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Match, error) {
	const query = `SELECT ` + matchColumns + ` FROM matches WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}
	defer rows.Close()

	matches := make(map[uuid.UUID]*model.Match, len(ids))
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}
	return matches, nil
}

// ListByStatus retrieves matches in a given status, soonest first.
func (r *MatchRepository) ListByStatus(ctx context.Context, status model.MatchStatus, limit int) ([]*model.Match, error) {
	const query = `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status = $1
		ORDER BY starts_at ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []*model.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}
	return matches, nil
}

// ListFinishedUnsettled retrieves finished matches with a determinable
// outcome that the settlement sweep has not yet cleared.
func (r *MatchRepository) ListFinishedUnsettled(ctx context.Context) ([]*model.Match, error) {
	const query = `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status = 'FINISHED'
		  AND settled = FALSE
		  AND (result IS NOT NULL OR (score_home IS NOT NULL AND score_away IS NOT NULL))
		ORDER BY starts_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list finished unsettled matches: %w", err)
	}
	defer rows.Close()

	var matches []*model.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}
	return matches, nil
}

// UpdateScore records final scores and moves the match to FINISHED
// (or the given status).
func (r *MatchRepository) UpdateScore(ctx context.Context, id uuid.UUID, scoreHome, scoreAway int32, status model.MatchStatus) (*model.Match, error) {
	const query = `
		UPDATE matches
		SET score_home = $2, score_away = $3, status = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + matchColumns

	m, err := scanMatch(r.pool.QueryRow(ctx, query, id, scoreHome, scoreAway, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to update match score: %w", err)
	}
	return m, nil
}

// SubmitResult records an explicit winning side and finishes the match.
func (r *MatchRepository) SubmitResult(ctx context.Context, id uuid.UUID, result model.Choice) (*model.Match, error) {
	const query = `
		UPDATE matches
		SET result = $2, status = 'FINISHED', updated_at = NOW()
		WHERE id = $1
		RETURNING ` + matchColumns

	m, err := scanMatch(r.pool.QueryRow(ctx, query, id, result))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to submit match result: %w", err)
	}
	return m, nil
}

// MarkSettled flags a match as fully graded so the sweep skips it.
func (r *MatchRepository) MarkSettled(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE matches SET settled = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark match settled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMatchNotFound
	}
	return nil
}
