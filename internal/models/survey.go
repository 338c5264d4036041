package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxSurveyQuestions caps the questions of a survey category.
const MaxSurveyQuestions = 4

type SurveyCategory struct {
	ID        uuid.UUID `json:"id" db:"category_id"`
	Name      string    `json:"name" db:"name"`
	Questions []string  `json:"questions" db:"questions"`
	IsDeleted bool      `json:"-" db:"is_deleted"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CustomerSatisfactionSurvey is created once per order, the first time the
// order is delivered.
type CustomerSatisfactionSurvey struct {
	ID          uuid.UUID  `json:"id" db:"survey_id"`
	OrderID     uuid.UUID  `json:"order_id" db:"order_id"`
	CategoryID  uuid.UUID  `json:"category_id" db:"category_id"`
	Questions   []string   `json:"questions,omitempty"`
	Ratings     []int      `json:"ratings,omitempty" db:"ratings"`
	Comment     string     `json:"comment,omitempty" db:"comment"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty" db:"submitted_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}
