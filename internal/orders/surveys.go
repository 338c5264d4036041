package orders

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"unimerch_back_end/internal/apperr"
	"unimerch_back_end/internal/models"
	"unimerch_back_end/internal/permissions"
)

const maxCommentLength = 1000

// Survey returns the survey of a customer's order with its questions.
func (s *Service) Survey(ctx context.Context, customerID string, orderID uuid.UUID) (*models.CustomerSatisfactionSurvey, error) {
	if _, err := s.GetCustomerOrder(ctx, customerID, orderID); err != nil {
		return nil, err
	}
	survey, err := s.surveys.SurveyForOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	category, err := s.surveys.GetSurveyCategory(ctx, survey.CategoryID)
	if err != nil {
		return nil, err
	}
	survey.Questions = category.Questions
	return survey, nil
}

// SubmitSurvey records the customer's answers: one rating from 1 to 5 per
// question. A survey is answered once.
func (s *Service) SubmitSurvey(ctx context.Context, customerID string, orderID uuid.UUID, ratings []int, comment string) (*models.CustomerSatisfactionSurvey, error) {
	survey, err := s.Survey(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}
	if survey.SubmittedAt != nil {
		return nil, apperr.Field("survey", "already submitted")
	}

	if len(ratings) != len(survey.Questions) {
		return nil, apperr.Field("ratings", fmt.Sprintf("expected %d ratings", len(survey.Questions)))
	}
	fields := map[string]string{}
	for i, r := range ratings {
		if r < 1 || r > 5 {
			fields[fmt.Sprintf("ratings[%d]", i)] = "must be between 1 and 5"
		}
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > maxCommentLength {
		fields["comment"] = "too long"
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("invalid survey answers", fields)
	}

	now := s.now()
	if err := s.surveys.SubmitSurvey(ctx, survey.ID, ratings, comment, now); err != nil {
		return nil, err
	}
	survey.Ratings = ratings
	survey.Comment = comment
	survey.SubmittedAt = &now
	log.Printf("📝 Survey for order %s answered", orderID)
	return survey, nil
}

func (s *Service) SurveyCategories(ctx context.Context, actor permissions.Actor) ([]models.SurveyCategory, error) {
	if err := s.gate.Authorize(ctx, actor, models.ActionSurveyCategory, "", permissions.ReportsRead); err != nil {
		return nil, err
	}
	return s.surveys.ListSurveyCategories(ctx)
}

// CreateSurveyCategory stores a template of one to four questions.
func (s *Service) CreateSurveyCategory(ctx context.Context, actor permissions.Actor, name string, questions []string) (*models.SurveyCategory, error) {
	if err := s.gate.Authorize(ctx, actor, models.ActionSurveyCategory, "", permissions.ReportsCreate); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	fields := map[string]string{}
	if name == "" {
		fields["name"] = "required"
	}
	cleaned := make([]string, 0, len(questions))
	for i, q := range questions {
		q = strings.TrimSpace(q)
		if q == "" {
			fields[fmt.Sprintf("questions[%d]", i)] = "must not be empty"
			continue
		}
		cleaned = append(cleaned, q)
	}
	if len(questions) == 0 || len(questions) > models.MaxSurveyQuestions {
		fields["questions"] = fmt.Sprintf("between 1 and %d questions", models.MaxSurveyQuestions)
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("invalid survey category", fields)
	}

	category := &models.SurveyCategory{
		ID:        uuid.New(),
		Name:      name,
		Questions: cleaned,
		CreatedAt: s.now(),
	}
	if err := s.surveys.CreateSurveyCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteSurveyCategory tombstones a category. Existing surveys keep it.
func (s *Service) DeleteSurveyCategory(ctx context.Context, actor permissions.Actor, id uuid.UUID) error {
	if err := s.gate.Authorize(ctx, actor, models.ActionSurveyCategory, id.String(), permissions.ReportsDelete); err != nil {
		return err
	}
	return s.surveys.DeleteSurveyCategory(ctx, id)
}
