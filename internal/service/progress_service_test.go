package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classhub/classhub-api/internal/models"
)

type mockRosterRepo struct {
	roster []models.RosterEntry
	err    error
}

func (m *mockRosterRepo) ListRoster(ctx context.Context) ([]models.RosterEntry, error) {
	return m.roster, m.err
}

type mockAssignmentReader struct {
	assignments []models.Assignment
	err         error
}

func (m *mockAssignmentReader) List(ctx context.Context) ([]models.Assignment, error) {
	return m.assignments, m.err
}

type mockSubmissionReader struct {
	submissions []models.Submission
	err         error
}

func (m *mockSubmissionReader) ListByAssignments(ctx context.Context, assignmentIDs []string) ([]models.Submission, error) {
	return m.submissions, m.err
}

func testRoster() []models.RosterEntry {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return []models.RosterEntry{
		{ID: "user-1", Name: "김지민", CreatedAt: base},
		{ID: "user-2", Name: "이서준", CreatedAt: base.Add(time.Hour)},
	}
}

func testAssignments() []models.Assignment {
	return []models.Assignment{
		{ID: "asg-1", Title: "1일차과제"},
		{ID: "asg-2", Title: "2일차과제"},
	}
}

func newProgressService(roster *mockRosterRepo, assignments *mockAssignmentReader, submissions *mockSubmissionReader) *ProgressService {
	return NewProgressService(roster, assignments, submissions, nil, nil, time.Minute, nil)
}

func TestProgressMatrixStates(t *testing.T) {
	svc := newProgressService(
		&mockRosterRepo{roster: testRoster()},
		&mockAssignmentReader{assignments: testAssignments()},
		&mockSubmissionReader{submissions: []models.Submission{
			{UserID: "user-1", AssignmentID: "asg-1", URL: "https://blog.example.com/1", Status: models.StatusApproved},
		}},
	)

	matrix, err := svc.Matrix(context.Background())
	require.NoError(t, err)
	require.Empty(t, matrix.Degraded)
	require.Len(t, matrix.Assignments, 2)
	require.Len(t, matrix.Rows, 2)

	completed := matrix.Rows[0].Cells[0]
	assert.Equal(t, models.CellCompleted, completed.State)
	assert.Equal(t, "https://blog.example.com/1", completed.URL)
	require.NotNil(t, completed.Status)
	assert.Equal(t, models.StatusApproved, *completed.Status)

	// every other pair has no submission row
	assert.Equal(t, models.CellNotCompleted, matrix.Rows[0].Cells[1].State)
	assert.Equal(t, models.CellNotCompleted, matrix.Rows[1].Cells[0].State)
	assert.Equal(t, models.CellNotCompleted, matrix.Rows[1].Cells[1].State)
}

func TestProgressMatrixDuplicateSubmissionFirstWins(t *testing.T) {
	svc := newProgressService(
		&mockRosterRepo{roster: testRoster()},
		&mockAssignmentReader{assignments: testAssignments()},
		&mockSubmissionReader{submissions: []models.Submission{
			{UserID: "user-1", AssignmentID: "asg-1", URL: "https://first.example.com", Status: models.StatusInReview},
			{UserID: "user-1", AssignmentID: "asg-1", URL: "https://second.example.com", Status: models.StatusApproved},
		}},
	)

	matrix, err := svc.Matrix(context.Background())
	require.NoError(t, err)
	cell := matrix.Rows[0].Cells[0]
	assert.Equal(t, "https://first.example.com", cell.URL)
	require.NotNil(t, cell.Status)
	assert.Equal(t, models.StatusInReview, *cell.Status)
}

func TestProgressMatrixSubmissionFeedDegraded(t *testing.T) {
	svc := newProgressService(
		&mockRosterRepo{roster: testRoster()},
		&mockAssignmentReader{assignments: testAssignments()},
		&mockSubmissionReader{err: errors.New("connection refused")},
	)

	matrix, err := svc.Matrix(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{models.FeedSubmissions}, matrix.Degraded)
	for _, row := range matrix.Rows {
		for _, cell := range row.Cells {
			assert.Equal(t, models.CellUnknown, cell.State)
		}
	}
}

func TestProgressMatrixRosterFeedDegraded(t *testing.T) {
	svc := newProgressService(
		&mockRosterRepo{err: errors.New("connection refused")},
		&mockAssignmentReader{assignments: testAssignments()},
		&mockSubmissionReader{},
	)

	matrix, err := svc.Matrix(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{models.FeedRoster}, matrix.Degraded)
	assert.Len(t, matrix.Assignments, 2)
	assert.Empty(t, matrix.Rows)
}

func TestProgressMatrixZeroAssignments(t *testing.T) {
	svc := newProgressService(
		&mockRosterRepo{roster: testRoster()},
		&mockAssignmentReader{},
		&mockSubmissionReader{},
	)

	matrix, err := svc.Matrix(context.Background())
	require.NoError(t, err)
	require.Empty(t, matrix.Degraded)
	assert.Empty(t, matrix.Assignments)
	require.Len(t, matrix.Rows, 2)
	assert.Empty(t, matrix.Rows[0].Cells)
}

func TestProgressMatrixZeroUsers(t *testing.T) {
	svc := newProgressService(
		&mockRosterRepo{},
		&mockAssignmentReader{assignments: testAssignments()},
		&mockSubmissionReader{},
	)

	matrix, err := svc.Matrix(context.Background())
	require.NoError(t, err)
	assert.Len(t, matrix.Assignments, 2)
	assert.Empty(t, matrix.Rows)
}

func TestProgressMatrixRosterOrderPreserved(t *testing.T) {
	svc := newProgressService(
		&mockRosterRepo{roster: testRoster()},
		&mockAssignmentReader{assignments: testAssignments()},
		&mockSubmissionReader{},
	)

	matrix, err := svc.Matrix(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user-1", matrix.Rows[0].UserID)
	assert.Equal(t, "user-2", matrix.Rows[1].UserID)
}

func TestProgressMatrixColumnsOldestFirst(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc := newProgressService(
		&mockRosterRepo{roster: testRoster()},
		&mockAssignmentReader{assignments: []models.Assignment{
			{ID: "asg-2", Title: "2일차과제", CreatedAt: base.Add(24 * time.Hour)},
			{ID: "asg-1", Title: "1일차과제", CreatedAt: base},
		}},
		&mockSubmissionReader{},
	)

	matrix, err := svc.Matrix(context.Background())
	require.NoError(t, err)
	require.Len(t, matrix.Assignments, 2)
	assert.Equal(t, "1일차과제", matrix.Assignments[0].Title)
	assert.Equal(t, "2일차과제", matrix.Assignments[1].Title)
	assert.Equal(t, "asg-1", matrix.Rows[0].Cells[0].AssignmentID)
}
