package database

import (
	"context"
	"time"

	"unimerch_back_end/internal/models"
)

// ActiveStaffRoles returns the role names currently granted to userID.
func (s *Store) ActiveStaffRoles(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role FROM staff_roles WHERE user_id = $1 AND is_active = TRUE ORDER BY role`, userID)
	if err != nil {
		return nil, wrap("load staff roles", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, wrap("scan staff role", err)
		}
		roles = append(roles, role)
	}
	return roles, wrap("load staff roles", rows.Err())
}

// ListStaffRoles returns every assignment, revoked ones included.
func (s *Store) ListStaffRoles(ctx context.Context) ([]models.StaffRoleAssignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, role, granted_by, granted_at, is_active FROM staff_roles ORDER BY user_id, role`)
	if err != nil {
		return nil, wrap("list staff roles", err)
	}
	defer rows.Close()

	var out []models.StaffRoleAssignment
	for rows.Next() {
		var a models.StaffRoleAssignment
		if err := rows.Scan(&a.UserID, &a.Role, &a.GrantedBy, &a.GrantedAt, &a.IsActive); err != nil {
			return nil, wrap("scan staff role", err)
		}
		out = append(out, a)
	}
	return out, wrap("list staff roles", rows.Err())
}

// GrantStaffRole activates a role, reviving a revoked assignment.
func (s *Store) GrantStaffRole(ctx context.Context, a models.StaffRoleAssignment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO staff_roles (user_id, role, granted_by, granted_at, is_active)
		 VALUES ($1, $2, $3, $4, TRUE)
		 ON CONFLICT (user_id, role) DO UPDATE SET granted_by = EXCLUDED.granted_by,
		     granted_at = EXCLUDED.granted_at, is_active = TRUE`,
		a.UserID, a.Role, a.GrantedBy, a.GrantedAt)
	return wrap("grant staff role", err)
}

// RevokeStaffRole tombstones an active assignment.
func (s *Store) RevokeStaffRole(ctx context.Context, userID, role string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE staff_roles SET is_active = FALSE, granted_at = $1 WHERE user_id = $2 AND role = $3 AND is_active = TRUE`,
		at, userID, role)
	if err != nil {
		return wrap("revoke staff role", err)
	}
	return requireRow(res, "revoke staff role", "staff role")
}
