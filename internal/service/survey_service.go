package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classhub/classhub-api/internal/models"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
)

type surveyRepository interface {
	List(ctx context.Context) ([]models.Survey, error)
	FindByID(ctx context.Context, id string) (*models.Survey, error)
	ListQuestions(ctx context.Context, surveyID string) ([]models.SurveyQuestion, error)
	CreateWithQuestions(ctx context.Context, survey *models.Survey, questions []models.SurveyQuestion) error
	CountResponses(ctx context.Context, surveyID string) (int, error)
	CountQuestions(ctx context.Context, surveyID string) (int, error)
	HasResponded(ctx context.Context, surveyID, userID string) (bool, error)
	CreateResponse(ctx context.Context, response *models.SurveyResponse, answers []models.SurveyAnswer) error
	Delete(ctx context.Context, id string) error
}

// SurveyQuestionRequest defines one question in a create payload.
type SurveyQuestionRequest struct {
	Text    string              `json:"text" validate:"required"`
	Type    models.QuestionType `json:"question_type" validate:"required"`
	Options []string            `json:"options" validate:"dive,required"`
}

// CreateSurveyRequest is the payload for creating a survey with questions.
type CreateSurveyRequest struct {
	Title       string                  `json:"title" validate:"required"`
	Description *string                 `json:"description"`
	Questions   []SurveyQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

// SurveyAnswerRequest is one answer in a respond payload.
type SurveyAnswerRequest struct {
	QuestionID string  `json:"question_id" validate:"required"`
	OptionID   *string `json:"option_id"`
	Text       *string `json:"text"`
}

// RespondRequest submits a user's answers to a survey.
type RespondRequest struct {
	Answers []SurveyAnswerRequest `json:"answers" validate:"required,min=1,dive"`
}

// SurveyService manages questionnaires and their responses.
type SurveyService struct {
	repo      surveyRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSurveyService constructs a SurveyService.
func NewSurveyService(repo surveyRepository, validate *validator.Validate, logger *zap.Logger) *SurveyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SurveyService{repo: repo, validator: validate, logger: logger}
}

// List returns all surveys decorated with question/response counts and
// whether the requesting user already responded.
func (s *SurveyService) List(ctx context.Context, userID string) ([]models.SurveyWithStats, error) {
	surveys, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list surveys")
	}

	out := make([]models.SurveyWithStats, 0, len(surveys))
	for _, survey := range surveys {
		questionCount, err := s.repo.CountQuestions(ctx, survey.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count questions")
		}
		responseCount, err := s.repo.CountResponses(ctx, survey.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count responses")
		}
		responded, err := s.repo.HasResponded(ctx, survey.ID, userID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check response")
		}
		out = append(out, models.SurveyWithStats{
			Survey:        survey,
			QuestionCount: questionCount,
			ResponseCount: responseCount,
			Responded:     responded,
		})
	}
	return out, nil
}

// Get returns one survey with its questions.
func (s *SurveyService) Get(ctx context.Context, id string) (*models.Survey, []models.SurveyQuestion, error) {
	survey, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "survey not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load survey")
	}
	questions, err := s.repo.ListQuestions(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load questions")
	}
	return survey, questions, nil
}

// Create stores a survey and its questions. Choice questions need at least
// two options; text questions must not carry any.
func (s *SurveyService) Create(ctx context.Context, req CreateSurveyRequest, creatorID string) (*models.Survey, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid survey payload")
	}

	questions := make([]models.SurveyQuestion, len(req.Questions))
	for i, q := range req.Questions {
		if !q.Type.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown question type %q", q.Type))
		}
		switch q.Type {
		case models.QuestionText:
			if len(q.Options) > 0 {
				return nil, appErrors.Clone(appErrors.ErrValidation, "text questions cannot have options")
			}
		default:
			if len(q.Options) < 2 {
				return nil, appErrors.Clone(appErrors.ErrValidation, "choice questions need at least two options")
			}
		}

		options := make([]models.SurveyQuestionOption, len(q.Options))
		for j, text := range q.Options {
			options[j] = models.SurveyQuestionOption{Text: text}
		}
		questions[i] = models.SurveyQuestion{
			Text:    q.Text,
			Type:    q.Type,
			Options: options,
		}
	}

	survey := &models.Survey{
		Title:       req.Title,
		Description: req.Description,
		IsActive:    true,
		CreatedBy:   creatorID,
	}
	if err := s.repo.CreateWithQuestions(ctx, survey, questions); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create survey")
	}

	s.logger.Info("survey created", zap.String("survey_id", survey.ID))
	return survey, nil
}

// Respond stores a user's answers. Each user may respond once per survey.
func (s *SurveyService) Respond(ctx context.Context, surveyID, userID string, req RespondRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid response payload")
	}

	survey, err := s.repo.FindByID(ctx, surveyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "survey not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load survey")
	}
	if !survey.IsActive {
		return appErrors.Clone(appErrors.ErrConflict, "survey is closed")
	}

	responded, err := s.repo.HasResponded(ctx, surveyID, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check response")
	}
	if responded {
		return appErrors.Clone(appErrors.ErrConflict, "survey already answered")
	}

	answers := make([]models.SurveyAnswer, len(req.Answers))
	for i, a := range req.Answers {
		if a.OptionID == nil && a.Text == nil {
			return appErrors.Clone(appErrors.ErrValidation, "answer needs an option or text")
		}
		answers[i] = models.SurveyAnswer{
			QuestionID: a.QuestionID,
			OptionID:   a.OptionID,
			Text:       a.Text,
		}
	}

	response := &models.SurveyResponse{SurveyID: surveyID, UserID: userID}
	if err := s.repo.CreateResponse(ctx, response, answers); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store response")
	}
	return nil
}

// Delete removes a survey with its questions and responses.
func (s *SurveyService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "survey not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load survey")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete survey")
	}
	return nil
}
