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

type assignmentRepository interface {
	List(ctx context.Context) ([]models.Assignment, error)
	ListWithCounts(ctx context.Context) ([]models.AssignmentWithCount, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) (bool, error)
	Delete(ctx context.Context, id string) error
}

// AssignmentRequest is the payload for creating or updating an assignment.
type AssignmentRequest struct {
	Title     string    `json:"title" validate:"required"`
	Content   *string   `json:"content"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	Links     []string  `json:"links" validate:"dive,url"`
}

// AssignmentService manages the assignment lifecycle.
type AssignmentService struct {
	repo      assignmentRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(repo assignmentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AssignmentService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns all assignments with submission counts, newest first.
func (s *AssignmentService) List(ctx context.Context) ([]models.AssignmentWithCount, error) {
	assignments, err := s.repo.ListWithCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// ListToday returns assignments whose window contains the given instant.
func (s *AssignmentService) ListToday(ctx context.Context, now time.Time) ([]models.Assignment, error) {
	assignments, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	open := make([]models.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if a.WindowOpen(now) {
			open = append(open, a)
		}
	}
	return open, nil
}

// Get returns one assignment.
func (s *AssignmentService) Get(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return assignment, nil
}

// Create stores a new assignment owned by the acting admin.
func (s *AssignmentService) Create(ctx context.Context, req AssignmentRequest, creatorID string) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrInvalidWindow, "")
	}

	assignment := &models.Assignment{
		Title:     req.Title,
		Content:   req.Content,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Links:     req.Links,
		CreatedBy: creatorID,
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	s.invalidateProgress(ctx)
	s.logger.Info("assignment created", zap.String("assignment_id", assignment.ID))
	return assignment, nil
}

// Update modifies an assignment. Only the creating admin may edit; a
// non-creator gets forbidden even if the assignment exists.
func (s *AssignmentService) Update(ctx context.Context, id string, req AssignmentRequest, actorID string) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrInvalidWindow, "")
	}

	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	assignment.Title = req.Title
	assignment.Content = req.Content
	assignment.StartDate = req.StartDate
	assignment.EndDate = req.EndDate
	assignment.Links = req.Links
	assignment.CreatedBy = actorID

	updated, err := s.repo.Update(ctx, assignment)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the creator can edit this assignment")
	}

	s.invalidateProgress(ctx)
	return assignment, nil
}

// Delete removes an assignment and its submissions.
func (s *AssignmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}

	s.invalidateProgress(ctx)
	s.logger.Info("assignment deleted", zap.String("assignment_id", id))
	return nil
}

func (s *AssignmentService) invalidateProgress(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, progressCachePattern); err != nil {
		s.logger.Warn("failed to invalidate progress cache", zap.Error(err))
	}
}
