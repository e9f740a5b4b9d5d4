package domain

import "time"

// AnalyticsDaily stores aggregated metrics for a specific day.
type AnalyticsDaily struct {
	Day             time.Time
	ReportRequests  int
	RequestSuccess  int
	RequestFail     int
	TokensConsumed  int
	TokensRefunded  int
	ArtifactsServed int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
