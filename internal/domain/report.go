package domain

import "time"

// ReportTier enumerates supported report complexity tiers. The tier selects
// the ordered section set a job generates and its token cost.
type ReportTier string

const (
	TierBasic         ReportTier = "basic"
	TierAdvanced      ReportTier = "advanced"
	TierComprehensive ReportTier = "comprehensive"
)

// Valid reports whether the tier is one of the defined values.
func (t ReportTier) Valid() bool {
	switch t {
	case TierBasic, TierAdvanced, TierComprehensive:
		return true
	}
	return false
}

// ReportStatus enumerates report job lifecycle states. PENDING is initial;
// COMPLETED and FAILED are terminal.
type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "PENDING"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusCompleted  ReportStatus = "COMPLETED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// Terminal reports whether the status admits no further transitions.
func (s ReportStatus) Terminal() bool {
	return s == ReportStatusCompleted || s == ReportStatusFailed
}

// UsageBreakdown accumulates generation-backend token consumption across all
// section calls of one job. Counters are summed monotonically and never reset
// mid-job.
type UsageBreakdown struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add folds another usage sample into the breakdown.
func (u *UsageBreakdown) Add(other UsageBreakdown) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// ReportJob is the persistent record of one generation request.
//
// CostTokens is debited from the owner's token account at creation and is
// immutable afterwards; it is the exact amount credited back when the job
// fails. ArtifactKey stays empty until the job completes.
type ReportJob struct {
	ID             string
	UserID         string
	Idea           string
	Tier           ReportTier
	Status         ReportStatus
	CostTokens     int
	Usage          UsageBreakdown
	ArtifactKey    string
	ArtifactBytes  int64
	Preview        string
	ErrorMessage   string
	DownloadCount  int
	LastDownloadAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

// CompletionUpdate carries the fields persisted on the PROCESSING → COMPLETED
// transition.
type CompletionUpdate struct {
	ArtifactKey   string
	ArtifactBytes int64
	Preview       string
	Usage         UsageBreakdown
	CompletedAt   time.Time
}
