package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SystemLogRepository appends audit entries. Rows are write-once and
// never read back by the core; they exist for external observability.
type SystemLogRepository struct {
	pool *pgxpool.Pool
}

// NewSystemLogRepository creates a new SystemLogRepository instance.
func NewSystemLogRepository(pool *pgxpool.Pool) *SystemLogRepository {
	return &SystemLogRepository{pool: pool}
}

// Append writes one audit entry. Callers treat failures as
// fire-and-forget; the returned error is for logging only.
func (r *SystemLogRepository) Append(ctx context.Context, logType string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal log payload: %w", err)
	}

	const query = `
		INSERT INTO system_logs (type, payload, created_at)
		VALUES ($1, $2, NOW())
	`

	if _, err := r.pool.Exec(ctx, query, logType, body); err != nil {
		return fmt.Errorf("failed to append system log: %w", err)
	}
	return nil
}
