package domain

import "context"

// UserRepository defines access methods for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	IncrementRequestCounter(ctx context.Context, userID string) error
}

// ReportRepository defines persistence for report jobs.
//
// MarkProcessing and MarkFailed are conditional transitions: they return true
// only when the row actually moved, so callers can gate side effects (running
// the pipeline, crediting a refund) on winning the transition. A terminal row
// never transitions again.
type ReportRepository interface {
	Create(ctx context.Context, job *ReportJob) error
	GetByID(ctx context.Context, jobID string) (*ReportJob, error)
	GetForUser(ctx context.Context, jobID, userID string) (*ReportJob, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]ReportJob, error)
	MarkProcessing(ctx context.Context, jobID string) (bool, error)
	MarkCompleted(ctx context.Context, jobID string, update CompletionUpdate) error
	MarkFailed(ctx context.Context, jobID, errMsg string) (bool, error)
	RecordDownload(ctx context.Context, jobID string) error
}

// TokenLedger tracks per-user token balances. Debit must be atomic: it
// succeeds only when the available balance covers the amount, and on refusal
// it mutates nothing. Credit is the compensating action; idempotency is the
// caller's responsibility.
type TokenLedger interface {
	Debit(ctx context.Context, userID string, amount int) (ok bool, available int, err error)
	Credit(ctx context.Context, userID string, amount int) error
	Balance(ctx context.Context, userID string) (*TokenBalance, error)
}

// UsageRecorder persists observability events. Best effort; callers log and
// continue on error.
type UsageRecorder interface {
	Record(ctx context.Context, userID, requestID, eventType string, success bool, latencyMS int, properties []byte) error
}

// AnalyticsRepository updates metrics counters.
type AnalyticsRepository interface {
	IncrementCounters(ctx context.Context, day string, counters map[string]int) error
	GetSummary(ctx context.Context) (*AnalyticsDaily, error)
}
