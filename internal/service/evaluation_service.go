package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/classhub/classhub-api/internal/models"
	appErrors "github.com/classhub/classhub-api/pkg/errors"
)

type evaluationSubmissionRepository interface {
	ListByAssignments(ctx context.Context, assignmentIDs []string) ([]models.Submission, error)
	UpdateStatus(ctx context.Context, userID, assignmentID string, status models.ReviewStatus) (*models.Submission, error)
}

type evaluationAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// EvaluationService scores reviewed submissions and maintains review
// statuses.
type EvaluationService struct {
	users       progressRosterRepository
	assignments progressAssignmentRepository
	submissions evaluationSubmissionRepository
	audit       evaluationAuditRepository
	progress    *ProgressService
	logger      *zap.Logger
}

// NewEvaluationService constructs an EvaluationService.
func NewEvaluationService(
	users progressRosterRepository,
	assignments progressAssignmentRepository,
	submissions evaluationSubmissionRepository,
	audit evaluationAuditRepository,
	progress *ProgressService,
	logger *zap.Logger,
) *EvaluationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationService{
		users:       users,
		assignments: assignments,
		submissions: submissions,
		audit:       audit,
		progress:    progress,
		logger:      logger,
	}
}

// Sheet builds the scored roster × assignments table. Unlike the progress
// matrix, a failed feed here fails the build: a partial score sheet would be
// misleading.
func (s *EvaluationService) Sheet(ctx context.Context) (*models.EvaluationSheet, error) {
	assignments, err := s.assignments.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	sortColumns(assignments)
	roster, err := s.users.ListRoster(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	assignmentIDs := make([]string, len(assignments))
	for i, a := range assignments {
		assignmentIDs[i] = a.ID
	}
	submissions, err := s.submissions.ListByAssignments(ctx, assignmentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submissions")
	}

	index := make(map[string]models.ReviewStatus, len(submissions))
	for _, sub := range submissions {
		key := sub.UserID + "\x00" + sub.AssignmentID
		if _, ok := index[key]; !ok {
			index[key] = sub.Status
		}
	}

	sheet := &models.EvaluationSheet{
		Assignments: make([]models.AssignmentColumn, len(assignments)),
		Rows:        make([]models.EvaluationRow, len(roster)),
	}
	for i, a := range assignments {
		sheet.Assignments[i] = models.AssignmentColumn{ID: a.ID, Title: a.Title}
	}
	for i, entry := range roster {
		row := models.EvaluationRow{
			UserID:   entry.ID,
			UserName: entry.Name,
			Cells:    make([]models.EvaluationCell, len(assignments)),
		}
		for j, a := range assignments {
			status := models.StatusNotSubmitted
			if st, ok := index[entry.ID+"\x00"+a.ID]; ok {
				status = st
			}
			score := models.Score(status)
			row.Cells[j] = models.EvaluationCell{
				AssignmentID: a.ID,
				Status:       status,
				Score:        score,
			}
			row.Subtotal += score
		}
		sheet.Rows[i] = row
	}

	return sheet, nil
}

// UpdateStatus sets the review status for one submission, records the change
// in the audit log and returns the stored row.
func (s *EvaluationService) UpdateStatus(ctx context.Context, userID, assignmentID string, status models.ReviewStatus, actorID string) (*models.Submission, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("unknown review status %q", status))
	}

	submission, err := s.submissions.UpdateStatus(ctx, userID, assignmentID, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update review status")
	}

	s.progress.Invalidate(ctx)

	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionStatusChange,
		Resource:   "submission",
		ResourceID: &submission.ID,
		NewValues:  []byte(fmt.Sprintf(`{"status":%q}`, status)),
	}); err != nil {
		s.logger.Warn("failed to record status change audit log", zap.Error(err))
	}

	return submission, nil
}
