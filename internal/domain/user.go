package domain

import "time"

// UserRole enumerates supported roles.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// User represents an authenticated account within the platform. Identity is
// resolved by the session layer; the pipeline trusts it as-is.
type User struct {
	ID               string
	Email            string
	Name             string
	Locale           string
	Role             UserRole
	ReportsRequested int // lifetime request counter, observability only
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
