package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/classhub/classhub-api/internal/models"
)

// SurveyRepository provides database access for surveys, their questions and
// responses.
type SurveyRepository struct {
	db *sqlx.DB
}

// NewSurveyRepository creates a new instance of SurveyRepository.
func NewSurveyRepository(db *sqlx.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

// List returns all surveys, newest first.
func (r *SurveyRepository) List(ctx context.Context) ([]models.Survey, error) {
	const query = `SELECT id, title, description, is_active, created_by, created_at FROM surveys ORDER BY created_at DESC`
	var surveys []models.Survey
	if err := r.db.SelectContext(ctx, &surveys, query); err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	return surveys, nil
}

// FindByID returns one survey.
func (r *SurveyRepository) FindByID(ctx context.Context, id string) (*models.Survey, error) {
	const query = `SELECT id, title, description, is_active, created_by, created_at FROM surveys WHERE id = $1 LIMIT 1`
	var survey models.Survey
	if err := r.db.GetContext(ctx, &survey, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find survey: %w", err)
	}
	return &survey, nil
}

// ListQuestions returns the questions of a survey in position order, with
// options attached.
func (r *SurveyRepository) ListQuestions(ctx context.Context, surveyID string) ([]models.SurveyQuestion, error) {
	const query = `SELECT id, survey_id, text, question_type, position, created_at FROM survey_questions WHERE survey_id = $1 ORDER BY position ASC`
	var questions []models.SurveyQuestion
	if err := r.db.SelectContext(ctx, &questions, query, surveyID); err != nil {
		return nil, fmt.Errorf("list survey questions: %w", err)
	}
	if len(questions) == 0 {
		return questions, nil
	}

	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	const optQuery = `SELECT id, question_id, text, position FROM survey_question_options WHERE question_id = ANY($1) ORDER BY position ASC`
	var options []models.SurveyQuestionOption
	if err := r.db.SelectContext(ctx, &options, optQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list survey question options: %w", err)
	}

	byQuestion := make(map[string][]models.SurveyQuestionOption, len(questions))
	for _, opt := range options {
		byQuestion[opt.QuestionID] = append(byQuestion[opt.QuestionID], opt)
	}
	for i := range questions {
		questions[i].Options = byQuestion[questions[i].ID]
	}
	return questions, nil
}

// CreateWithQuestions inserts a survey together with its questions and
// options in a single transaction.
func (r *SurveyRepository) CreateWithQuestions(ctx context.Context, survey *models.Survey, questions []models.SurveyQuestion) error {
	if survey.ID == "" {
		survey.ID = uuid.NewString()
	}
	if survey.CreatedAt.IsZero() {
		survey.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create survey: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const surveyQuery = `INSERT INTO surveys (id, title, description, is_active, created_by, created_at) VALUES (:id, :title, :description, :is_active, :created_by, :created_at)`
	if _, err := tx.NamedExecContext(ctx, surveyQuery, survey); err != nil {
		return fmt.Errorf("create survey: %w", err)
	}

	const questionQuery = `INSERT INTO survey_questions (id, survey_id, text, question_type, position, created_at) VALUES (:id, :survey_id, :text, :question_type, :position, :created_at)`
	const optionQuery = `INSERT INTO survey_question_options (id, question_id, text, position) VALUES (:id, :question_id, :text, :position)`
	for i := range questions {
		q := &questions[i]
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		q.SurveyID = survey.ID
		q.Position = i
		if q.CreatedAt.IsZero() {
			q.CreatedAt = survey.CreatedAt
		}
		if _, err := tx.NamedExecContext(ctx, questionQuery, q); err != nil {
			return fmt.Errorf("create survey question: %w", err)
		}
		for j := range q.Options {
			opt := &q.Options[j]
			if opt.ID == "" {
				opt.ID = uuid.NewString()
			}
			opt.QuestionID = q.ID
			opt.Position = j
			if _, err := tx.NamedExecContext(ctx, optionQuery, opt); err != nil {
				return fmt.Errorf("create survey question option: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create survey: %w", err)
	}
	return nil
}

// CountResponses returns the number of completed responses for a survey.
func (r *SurveyRepository) CountResponses(ctx context.Context, surveyID string) (int, error) {
	const query = `SELECT COUNT(*) FROM survey_responses WHERE survey_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, surveyID); err != nil {
		return 0, fmt.Errorf("count survey responses: %w", err)
	}
	return count, nil
}

// CountQuestions returns the number of questions in a survey.
func (r *SurveyRepository) CountQuestions(ctx context.Context, surveyID string) (int, error) {
	const query = `SELECT COUNT(*) FROM survey_questions WHERE survey_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, surveyID); err != nil {
		return 0, fmt.Errorf("count survey questions: %w", err)
	}
	return count, nil
}

// HasResponded reports whether a user already completed a survey.
func (r *SurveyRepository) HasResponded(ctx context.Context, surveyID, userID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM survey_responses WHERE survey_id = $1 AND user_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, surveyID, userID); err != nil {
		return false, fmt.Errorf("check survey response: %w", err)
	}
	return count > 0, nil
}

// CreateResponse stores a user's completed response with their per-question
// answers in a single transaction.
func (r *SurveyRepository) CreateResponse(ctx context.Context, response *models.SurveyResponse, answers []models.SurveyAnswer) error {
	if response.ID == "" {
		response.ID = uuid.NewString()
	}
	if response.CreatedAt.IsZero() {
		response.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create response: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const responseQuery = `INSERT INTO survey_responses (id, survey_id, user_id, created_at) VALUES (:id, :survey_id, :user_id, :created_at)`
	if _, err := tx.NamedExecContext(ctx, responseQuery, response); err != nil {
		return fmt.Errorf("create survey response: %w", err)
	}

	const answerQuery = `INSERT INTO survey_question_responses (id, question_id, user_id, option_id, text, created_at) VALUES (:id, :question_id, :user_id, :option_id, :text, :created_at)`
	for i := range answers {
		a := &answers[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		a.UserID = response.UserID
		if a.CreatedAt.IsZero() {
			a.CreatedAt = response.CreatedAt
		}
		if _, err := tx.NamedExecContext(ctx, answerQuery, a); err != nil {
			return fmt.Errorf("create survey answer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create response: %w", err)
	}
	return nil
}

// Delete removes a survey; questions, options and responses cascade.
func (r *SurveyRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM surveys WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	return nil
}
