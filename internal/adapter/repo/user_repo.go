package repo

import (
	"context"
	"fmt"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(sql infra.SQLExecutor) *UserRepositoryPG {
	return &UserRepositoryPG{sql: sql}
}

// GetByID fetches a user by UUID.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectUserByID, id)
	var u domain.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Locale, &role, &u.ReportsRequested, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	u.Role = domain.UserRole(role)
	return &u, nil
}

// IncrementRequestCounter bumps the lifetime report counter. Observability
// only; not part of cost accounting.
func (r *UserRepositoryPG) IncrementRequestCounter(ctx context.Context, userID string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QIncrementReportCounter, userID)
	return err
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)
