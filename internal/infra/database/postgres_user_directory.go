package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"city_report_service/internal/apperr"
	"city_report_service/internal/domain/report"
	"city_report_service/internal/domain/user"
)

// PostgresUserDirectory reads the shared users table. The engine never writes
// to it; account management is a separate concern.
type PostgresUserDirectory struct {
	db *sql.DB
}

func NewPostgresUserDirectory(db *sql.DB) *PostgresUserDirectory {
	return &PostgresUserDirectory{db: db}
}

func (r *PostgresUserDirectory) GetByID(ctx context.Context, id int64) (*user.User, error) {
	query := `SELECT id, display_name, role, COALESCE(technical_office_id, 0), COALESCE(company_id, 0), created_at
		FROM users WHERE id = $1`
	u := user.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.DisplayName, &u.Role, &u.TechnicalOfficeID, &u.CompanyID, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("getting user %d: %v: %w", id, err, apperr.ErrUnavailable)
	}
	return &u, nil
}

// pickLeastLoaded selects the staff member matching the filter with the
// fewest non-terminal reports in the given assignment column, ties broken by
// lowest id. The ordering makes repeated picks deterministic.
func (r *PostgresUserDirectory) pickLeastLoaded(ctx context.Context, role user.Role, filterColumn string, filterID int64, assignmentColumn string) (*user.User, error) {
	query := fmt.Sprintf(`SELECT u.id, u.display_name, u.role,
		       COALESCE(u.technical_office_id, 0), COALESCE(u.company_id, 0), u.created_at
		FROM users u
		LEFT JOIN reports r ON r.%s = u.id AND r.status NOT IN ($1, $2)
		WHERE u.role = $3 AND u.%s = $4
		GROUP BY u.id
		ORDER BY COUNT(r.id) ASC, u.id ASC
		LIMIT 1`, assignmentColumn, filterColumn)

	u := user.User{}
	err := r.db.QueryRowContext(ctx, query,
		report.StatusResolved, report.StatusRejected, role, filterID,
	).Scan(&u.ID, &u.DisplayName, &u.Role, &u.TechnicalOfficeID, &u.CompanyID, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no %s for %s %d: %w", role, filterColumn, filterID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("picking %s for %s %d: %v: %w", role, filterColumn, filterID, err, apperr.ErrUnavailable)
	}
	return &u, nil
}

func (r *PostgresUserDirectory) PickTechnician(ctx context.Context, technicalOfficeID int64) (*user.User, error) {
	return r.pickLeastLoaded(ctx, user.RoleTechnician, "technical_office_id", technicalOfficeID, "assignee_id")
}

func (r *PostgresUserDirectory) PickMaintainer(ctx context.Context, companyID int64) (*user.User, error) {
	return r.pickLeastLoaded(ctx, user.RoleExternalMaintainer, "company_id", companyID, "external_maintainer_id")
}
