package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classhub/classhub-api/internal/models"
)

type mockEvaluationSubmissionRepo struct {
	submissions []models.Submission
	updated     *models.Submission
	updateErr   error
}

func (m *mockEvaluationSubmissionRepo) ListByAssignments(ctx context.Context, assignmentIDs []string) ([]models.Submission, error) {
	return m.submissions, nil
}

func (m *mockEvaluationSubmissionRepo) UpdateStatus(ctx context.Context, userID, assignmentID string, status models.ReviewStatus) (*models.Submission, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.updated = &models.Submission{
		ID:           "sub-1",
		UserID:       userID,
		AssignmentID: assignmentID,
		Status:       status,
	}
	return m.updated, nil
}

type mockAuditRepo struct {
	logs []models.AuditLog
}

func (m *mockAuditRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func newEvaluationService(submissions *mockEvaluationSubmissionRepo, audit *mockAuditRepo) *EvaluationService {
	progress := newProgressService(&mockRosterRepo{}, &mockAssignmentReader{}, &mockSubmissionReader{})
	return NewEvaluationService(
		&mockRosterRepo{roster: testRoster()},
		&mockAssignmentReader{assignments: testAssignments()},
		submissions,
		audit,
		progress,
		nil,
	)
}

func TestScoreMapping(t *testing.T) {
	assert.Equal(t, 0, models.Score(models.StatusNotSubmitted))
	assert.Equal(t, 0, models.Score(models.StatusInReview))
	assert.Equal(t, 1, models.Score(models.StatusNeedsRevision))
	assert.Equal(t, 2, models.Score(models.StatusApproved))
	assert.Equal(t, 3, models.Score(models.StatusExemplary))
}

func TestEvaluationSheetSubtotals(t *testing.T) {
	// user-1: approved (2) + not submitted (0) = 2
	// user-2: exemplary (3) + in review (0) = 3
	submissions := &mockEvaluationSubmissionRepo{submissions: []models.Submission{
		{UserID: "user-1", AssignmentID: "asg-1", Status: models.StatusApproved},
		{UserID: "user-2", AssignmentID: "asg-1", Status: models.StatusExemplary},
		{UserID: "user-2", AssignmentID: "asg-2", Status: models.StatusInReview},
	}}
	svc := newEvaluationService(submissions, &mockAuditRepo{})

	sheet, err := svc.Sheet(context.Background())
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 2)

	assert.Equal(t, 2, sheet.Rows[0].Subtotal)
	assert.Equal(t, 3, sheet.Rows[1].Subtotal)
	assert.Equal(t, models.StatusNotSubmitted, sheet.Rows[0].Cells[1].Status)

	// rebuilding from the same data yields the same totals
	again, err := svc.Sheet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sheet, again)
}

func TestEvaluationUpdateStatusRejectsUnknown(t *testing.T) {
	svc := newEvaluationService(&mockEvaluationSubmissionRepo{}, &mockAuditRepo{})

	_, err := svc.UpdateStatus(context.Background(), "user-1", "asg-1", models.ReviewStatus("late"), "admin-1")
	require.Error(t, err)
}

func TestEvaluationUpdateStatusRejectsVirtualNotSubmitted(t *testing.T) {
	svc := newEvaluationService(&mockEvaluationSubmissionRepo{}, &mockAuditRepo{})

	_, err := svc.UpdateStatus(context.Background(), "user-1", "asg-1", models.StatusNotSubmitted, "admin-1")
	require.Error(t, err)
}

func TestEvaluationUpdateStatusNotFound(t *testing.T) {
	svc := newEvaluationService(&mockEvaluationSubmissionRepo{updateErr: sql.ErrNoRows}, &mockAuditRepo{})

	_, err := svc.UpdateStatus(context.Background(), "user-1", "asg-1", models.StatusApproved, "admin-1")
	require.Error(t, err)
}

func TestEvaluationUpdateStatusRecordsAudit(t *testing.T) {
	audit := &mockAuditRepo{}
	svc := newEvaluationService(&mockEvaluationSubmissionRepo{}, audit)

	submission, err := svc.UpdateStatus(context.Background(), "user-1", "asg-1", models.StatusExemplary, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusExemplary, submission.Status)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionStatusChange, audit.logs[0].Action)
	require.NotNil(t, audit.logs[0].UserID)
	assert.Equal(t, "admin-1", *audit.logs[0].UserID)
}
