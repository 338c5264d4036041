package database

import (
	"context"
	"database/sql"
	"time"

	"unimerch_back_end/internal/models"
)

func (s *Store) GetCustomer(ctx context.Context, userID string) (*models.Customer, error) {
	var (
		c       models.Customer
		role    sql.NullString
		college sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, email, name, role, college, provider, created_at, updated_at FROM customers WHERE user_id = $1`,
		userID).Scan(&c.ID, &c.Email, &c.Name, &role, &college, &c.Provider, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, notFound("get customer", "customer", err)
	}
	c.Role = models.CustomerRole(role.String)
	c.College = models.College(college.String)
	return &c, nil
}

// UpsertCustomer records a sign-in. Role and college set by staff survive
// later logins; the stored row is returned.
func (s *Store) UpsertCustomer(ctx context.Context, c *models.Customer) (*models.Customer, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (user_id, email, name, provider, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (user_id) DO UPDATE SET email = EXCLUDED.email, name = EXCLUDED.name,
		     provider = EXCLUDED.provider, updated_at = EXCLUDED.updated_at`,
		c.ID, c.Email, c.Name, c.Provider, c.UpdatedAt)
	if err != nil {
		return nil, wrap("upsert customer", err)
	}
	return s.GetCustomer(ctx, c.ID)
}

// UpdateCustomerProfile sets the pricing role and college of a customer.
func (s *Store) UpdateCustomerProfile(ctx context.Context, userID string, role models.CustomerRole, college models.College, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE customers SET role = $1, college = $2, updated_at = $3 WHERE user_id = $4`,
		nullString(string(role)), nullString(string(college)), at, userID)
	if err != nil {
		return wrap("update customer profile", err)
	}
	return requireRow(res, "update customer profile", "customer")
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
