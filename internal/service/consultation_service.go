package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classhub/classhub-api/internal/models"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
)

type consultationRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.ConsultationLog, error)
	Overview(ctx context.Context) ([]models.ConsultationOverview, error)
	FindByID(ctx context.Context, id string) (*models.ConsultationLog, error)
	Create(ctx context.Context, log *models.ConsultationLog) error
	Update(ctx context.Context, log *models.ConsultationLog) error
	Delete(ctx context.Context, id string) error
}

// ConsultationRequest is the payload for creating or updating a consultation
// log.
type ConsultationRequest struct {
	StudentID        string    `json:"student_id" validate:"required"`
	ConsultationDate time.Time `json:"consultation_date" validate:"required"`
	Content          string    `json:"content" validate:"required"`
	Notes            *string   `json:"notes"`
}

// ConsultationService manages counseling session records.
type ConsultationService struct {
	repo      consultationRepository
	users     submissionUserRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewConsultationService constructs a ConsultationService.
func NewConsultationService(repo consultationRepository, users submissionUserRepository, validate *validator.Validate, logger *zap.Logger) *ConsultationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ConsultationService{repo: repo, users: users, validator: validate, logger: logger}
}

// Overview returns every roster student with their latest consultation date.
func (s *ConsultationService) Overview(ctx context.Context) ([]models.ConsultationOverview, error) {
	overview, err := s.repo.Overview(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load consultation overview")
	}
	return overview, nil
}

// ListByStudent returns one student's consultation history, newest first.
func (s *ConsultationService) ListByStudent(ctx context.Context, studentID string) ([]models.ConsultationLog, error) {
	logs, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list consultation logs")
	}
	return logs, nil
}

// Create records a new counseling session.
func (s *ConsultationService) Create(ctx context.Context, req ConsultationRequest) (*models.ConsultationLog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid consultation payload")
	}

	if _, err := s.users.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	log := &models.ConsultationLog{
		StudentID:        req.StudentID,
		ConsultationDate: req.ConsultationDate,
		Content:          req.Content,
		Notes:            req.Notes,
	}
	if err := s.repo.Create(ctx, log); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create consultation log")
	}
	return log, nil
}

// Update edits an existing consultation log.
func (s *ConsultationService) Update(ctx context.Context, id string, req ConsultationRequest) (*models.ConsultationLog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid consultation payload")
	}

	log, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "consultation log not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load consultation log")
	}

	log.ConsultationDate = req.ConsultationDate
	log.Content = req.Content
	log.Notes = req.Notes

	if err := s.repo.Update(ctx, log); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update consultation log")
	}
	return log, nil
}

// Delete removes a consultation log.
func (s *ConsultationService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "consultation log not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load consultation log")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete consultation log")
	}
	return nil
}
