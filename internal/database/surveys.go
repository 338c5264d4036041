package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"unimerch_back_end/internal/models"
)

const categoryColumns = `category_id, name, questions, is_deleted, created_at`

func scanCategory(row rowScanner) (*models.SurveyCategory, error) {
	var c models.SurveyCategory
	if err := row.Scan(&c.ID, &c.Name, pq.Array(&c.Questions), &c.IsDeleted, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) SurveyForOrder(ctx context.Context, orderID uuid.UUID) (*models.CustomerSatisfactionSurvey, error) {
	var (
		sv        models.CustomerSatisfactionSurvey
		ratings   pq.Int64Array
		submitted sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT survey_id, order_id, category_id, ratings, comment, submitted_at, created_at
		 FROM customer_satisfaction_surveys WHERE order_id = $1`, orderID).
		Scan(&sv.ID, &sv.OrderID, &sv.CategoryID, &ratings, &sv.Comment, &submitted, &sv.CreatedAt)
	if err != nil {
		return nil, notFound("get survey", "survey", err)
	}
	for _, r := range ratings {
		sv.Ratings = append(sv.Ratings, int(r))
	}
	if submitted.Valid {
		at := submitted.Time
		sv.SubmittedAt = &at
	}
	return &sv, nil
}

// CreateSurvey inserts the survey of an order. A second survey for the same
// order fails with apperr.ErrConflict.
func (s *Store) CreateSurvey(ctx context.Context, sv *models.CustomerSatisfactionSurvey) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO customer_satisfaction_surveys (survey_id, order_id, category_id, created_at) VALUES ($1, $2, $3, $4)`,
		sv.ID, sv.OrderID, sv.CategoryID, sv.CreatedAt)
	return wrap("create survey", err)
}

// SubmitSurvey stores answers once; a submitted survey is left untouched.
func (s *Store) SubmitSurvey(ctx context.Context, surveyID uuid.UUID, ratings []int, comment string, at time.Time) error {
	values := make(pq.Int64Array, len(ratings))
	for i, r := range ratings {
		values[i] = int64(r)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE customer_satisfaction_surveys SET ratings = $1, comment = $2, submitted_at = $3
		 WHERE survey_id = $4 AND submitted_at IS NULL`,
		values, comment, at, surveyID)
	if err != nil {
		return wrap("submit survey", err)
	}
	return requireRow(res, "submit survey", "open survey")
}

// DefaultSurveyCategory is the oldest live category.
func (s *Store) DefaultSurveyCategory(ctx context.Context) (*models.SurveyCategory, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM survey_categories WHERE is_deleted = FALSE ORDER BY created_at LIMIT 1`)
	c, err := scanCategory(row)
	if err != nil {
		return nil, notFound("default survey category", "survey category", err)
	}
	return c, nil
}

// GetSurveyCategory also returns deleted categories so old surveys keep
// their questions.
func (s *Store) GetSurveyCategory(ctx context.Context, id uuid.UUID) (*models.SurveyCategory, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM survey_categories WHERE category_id = $1`, id)
	c, err := scanCategory(row)
	if err != nil {
		return nil, notFound("get survey category", "survey category", err)
	}
	return c, nil
}

func (s *Store) ListSurveyCategories(ctx context.Context) ([]models.SurveyCategory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM survey_categories WHERE is_deleted = FALSE ORDER BY created_at`)
	if err != nil {
		return nil, wrap("list survey categories", err)
	}
	defer rows.Close()

	var out []models.SurveyCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, wrap("scan survey category", err)
		}
		out = append(out, *c)
	}
	return out, wrap("list survey categories", rows.Err())
}

func (s *Store) CreateSurveyCategory(ctx context.Context, c *models.SurveyCategory) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO survey_categories (`+categoryColumns+`) VALUES ($1, $2, $3, FALSE, $4)`,
		c.ID, c.Name, pq.Array(c.Questions), c.CreatedAt)
	return wrap("create survey category", err)
}

func (s *Store) DeleteSurveyCategory(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE survey_categories SET is_deleted = TRUE WHERE category_id = $1 AND is_deleted = FALSE`, id)
	if err != nil {
		return wrap("delete survey category", err)
	}
	return requireRow(res, "delete survey category", "survey category")
}
