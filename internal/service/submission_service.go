package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classhub/classhub-api/internal/models"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
	"github.com/classhub/classhub-api/pkg/mailer"
)

type submissionRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Submission, error)
	Find(ctx context.Context, userID, assignmentID string) (*models.Submission, error)
	Upsert(ctx context.Context, submission *models.Submission) (bool, error)
}

type submissionAssignmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
}

type submissionUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Mailer delivers outbound email.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// SubmitRequest is the payload for handing in homework.
type SubmitRequest struct {
	AssignmentID string `json:"assignment_id" validate:"required"`
	URL          string `json:"url" validate:"required,url"`
}

// SubmissionService handles the student submit flow.
type SubmissionService struct {
	repo        submissionRepository
	assignments submissionAssignmentRepository
	users       submissionUserRepository
	progress    *ProgressService
	mailer      Mailer
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService. The mailer may be nil
// when first-submission notifications are disabled.
func NewSubmissionService(
	repo submissionRepository,
	assignments submissionAssignmentRepository,
	users submissionUserRepository,
	progress *ProgressService,
	mail Mailer,
	validate *validator.Validate,
	logger *zap.Logger,
) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SubmissionService{
		repo:        repo,
		assignments: assignments,
		users:       users,
		progress:    progress,
		mailer:      mail,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Submit hands in (or replaces) a user's homework URL for an assignment.
// Resubmission keeps the original review status; the assignment window must
// be open either way.
func (s *SubmissionService) Submit(ctx context.Context, userID string, req SubmitRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	assignment, err := s.assignments.FindByID(ctx, req.AssignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	if !assignment.WindowOpen(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrWindowClosed, "")
	}

	submission := &models.Submission{
		UserID:       userID,
		AssignmentID: req.AssignmentID,
		URL:          req.URL,
	}
	inserted, err := s.repo.Upsert(ctx, submission)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store submission")
	}

	s.progress.Invalidate(ctx)

	if inserted {
		s.notifyFirstSubmission(userID, assignment, submission.URL)
	}

	return submission, nil
}

// ListByUser returns a user's submissions.
func (s *SubmissionService) ListByUser(ctx context.Context, userID string) ([]models.Submission, error) {
	submissions, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return submissions, nil
}

// Get returns one (user, assignment) submission.
func (s *SubmissionService) Get(ctx context.Context, userID, assignmentID string) (*models.Submission, error) {
	submission, err := s.repo.Find(ctx, userID, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return submission, nil
}

// notifyFirstSubmission sends the submitting student a confirmation email on
// their first submission for an assignment. Delivery is async and best
// effort; resubmissions never notify.
func (s *SubmissionService) notifyFirstSubmission(userID string, assignment *models.Assignment, url string) {
	if s.mailer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		user, err := s.users.FindByID(ctx, userID)
		if err != nil {
			s.logger.Warn("failed to load submitter for notification", zap.Error(err))
			return
		}

		msg := mailer.Message{
			ToEmail: user.Email,
			ToName:  user.Name,
			Subject: fmt.Sprintf("[과제 제출 완료] %s", assignment.Title),
			TextBody: fmt.Sprintf("%s 님, '%s' 과제 제출이 완료되었습니다.\n제출 URL: %s",
				user.Name, assignment.Title, url),
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			s.logger.Warn("failed to send submission notification",
				zap.String("assignment_id", assignment.ID),
				zap.Error(err),
			)
		}
	}()
}
