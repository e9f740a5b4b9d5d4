package repo

import (
	"context"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// AnalyticsRepositoryPG implements AnalyticsRepository using PostgreSQL.
type AnalyticsRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewAnalyticsRepository constructs the repository.
func NewAnalyticsRepository(sql infra.SQLExecutor) *AnalyticsRepositoryPG {
	return &AnalyticsRepositoryPG{sql: sql}
}

// IncrementCounters upserts metrics for the provided day.
func (r *AnalyticsRepositoryPG) IncrementCounters(ctx context.Context, day string, counters map[string]int) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertAnalyticsDaily,
		day,
		counters["report_requests"],
		counters["request_success"],
		counters["request_fail"],
		counters["tokens_consumed"],
		counters["tokens_refunded"],
		counters["artifacts_served"],
	)
	return err
}

// GetSummary returns the latest day's aggregated stats.
func (r *AnalyticsRepositoryPG) GetSummary(ctx context.Context) (*domain.AnalyticsDaily, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectAnalyticsSummary)
	var summary domain.AnalyticsDaily
	if err := row.Scan(
		&summary.Day,
		&summary.ReportRequests,
		&summary.RequestSuccess,
		&summary.RequestFail,
		&summary.TokensConsumed,
		&summary.TokensRefunded,
		&summary.ArtifactsServed,
		&summary.CreatedAt,
		&summary.UpdatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &summary, nil
}

var _ domain.AnalyticsRepository = (*AnalyticsRepositoryPG)(nil)
