package repo

import (
	"context"
	"fmt"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"

	"github.com/jackc/pgx/v5"
)

// ReportRepositoryPG implements domain.ReportRepository.
type ReportRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewReportRepository creates a report repository backed by PostgreSQL.
func NewReportRepository(sql infra.SQLExecutor) *ReportRepositoryPG {
	return &ReportRepositoryPG{sql: sql}
}

// Create inserts a new report job in PENDING state.
func (r *ReportRepositoryPG) Create(ctx context.Context, job *domain.ReportJob) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertReportJob,
		job.ID,
		job.UserID,
		job.Idea,
		string(job.Tier),
		job.CostTokens,
	)
	if err != nil {
		return fmt.Errorf("insert report job: %w", err)
	}
	return nil
}

// GetByID fetches a report job by its identifier.
func (r *ReportRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.ReportJob, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectReportJob, jobID)
	return scanReportJob(row)
}

// GetForUser fetches a job scoped to its owner.
func (r *ReportRepositoryPG) GetForUser(ctx context.Context, jobID, userID string) (*domain.ReportJob, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectReportJobForUser, jobID, userID)
	return scanReportJob(row)
}

// ListByUser returns the owner's most recent jobs.
func (r *ReportRepositoryPG) ListByUser(ctx context.Context, userID string, limit int) ([]domain.ReportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListReportJobsByUser, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list report jobs: %w", err)
	}
	defer rows.Close()
	var jobs []domain.ReportJob
	for rows.Next() {
		job, err := scanReportJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// MarkProcessing performs the conditional PENDING -> PROCESSING transition.
// The boolean reports whether this caller won the transition.
func (r *ReportRepositoryPG) MarkProcessing(ctx context.Context, jobID string) (bool, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QMarkReportProcessing, jobID)
	var id string
	if err := row.Scan(&id); err != nil {
		if infra.IsNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("mark processing: %w", err)
	}
	return true, nil
}

// MarkCompleted persists the terminal COMPLETED state with the artifact
// reference, usage breakdown and preview.
func (r *ReportRepositoryPG) MarkCompleted(ctx context.Context, jobID string, update domain.CompletionUpdate) error {
	_, err := r.sql.Exec(ctx, sqlinline.QMarkReportCompleted,
		jobID,
		update.ArtifactKey,
		update.ArtifactBytes,
		update.Preview,
		update.Usage.PromptTokens,
		update.Usage.CompletionTokens,
		update.Usage.TotalTokens,
		update.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}

// MarkFailed moves a non-terminal job to FAILED. The boolean reports whether
// the transition happened; the refund is gated on it.
func (r *ReportRepositoryPG) MarkFailed(ctx context.Context, jobID, errMsg string) (bool, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QMarkReportFailed, jobID, errMsg)
	var id string
	if err := row.Scan(&id); err != nil {
		if infra.IsNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("mark failed: %w", err)
	}
	return true, nil
}

// RecordDownload bumps the download counter after a successful artifact read.
func (r *ReportRepositoryPG) RecordDownload(ctx context.Context, jobID string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QRecordReportDownload, jobID)
	return err
}

func scanReportJob(row pgx.Row) (*domain.ReportJob, error) {
	var job domain.ReportJob
	var tier, status string
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.Idea,
		&tier,
		&status,
		&job.CostTokens,
		&job.Usage.PromptTokens,
		&job.Usage.CompletionTokens,
		&job.Usage.TotalTokens,
		&job.ArtifactKey,
		&job.ArtifactBytes,
		&job.Preview,
		&job.ErrorMessage,
		&job.DownloadCount,
		&job.LastDownloadAt,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.CompletedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	job.Tier = domain.ReportTier(tier)
	job.Status = domain.ReportStatus(status)
	return &job, nil
}

var _ domain.ReportRepository = (*ReportRepositoryPG)(nil)
