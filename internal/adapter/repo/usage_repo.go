package repo

import (
	"context"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// UsageRecorderPG persists usage events for observability.
type UsageRecorderPG struct {
	sql infra.SQLExecutor
}

// NewUsageRecorder constructs the recorder.
func NewUsageRecorder(sql infra.SQLExecutor) *UsageRecorderPG {
	return &UsageRecorderPG{sql: sql}
}

// Record inserts one usage event.
func (r *UsageRecorderPG) Record(ctx context.Context, userID, requestID, eventType string, success bool, latencyMS int, properties []byte) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertUsageEvent, userID, requestID, eventType, success, latencyMS, properties)
	return err
}

var _ domain.UsageRecorder = (*UsageRecorderPG)(nil)
