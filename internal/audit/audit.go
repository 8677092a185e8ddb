// Package audit fans operation records out to the append-only
// system_logs table and, when configured, the Kafka event stream.
// Writes are fire-and-forget: the core never blocks on, or fails
// because of, observability.
package audit

import (
	"context"

	"github.com/rs/zerolog/log"

	"eazybet-backend/internal/repository"
)

// Log records audit entries. A zero-value Log (nil sink) drops
// everything, which keeps tests free of audit wiring.
type Log struct {
	sys *repository.SystemLogRepository
}

// New creates an audit Log backed by the system_logs repository.
func New(sys *repository.SystemLogRepository) *Log {
	return &Log{sys: sys}
}

// Record appends one audit entry. Failures are logged and swallowed.
func (l *Log) Record(ctx context.Context, logType string, payload map[string]any) {
	if l == nil || l.sys == nil {
		return
	}
	if err := l.sys.Append(ctx, logType, payload); err != nil {
		log.Warn().Err(err).Str("type", logType).Msg("Failed to append audit entry")
	}
}
