package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classhub/classhub-api/internal/models"
)

func newExportService(submissions []models.Submission) *ExportService {
	evaluation := newEvaluationService(&mockEvaluationSubmissionRepo{submissions: submissions}, &mockAuditRepo{})
	svc := NewExportService(evaluation, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestExportEvaluationCSV(t *testing.T) {
	svc := newExportService([]models.Submission{
		{UserID: "user-1", AssignmentID: "asg-1", Status: models.StatusApproved},
		{UserID: "user-2", AssignmentID: "asg-2", Status: models.StatusExemplary},
	})

	result, err := svc.Evaluation(context.Background(), ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "과제평가_2025-06-15.csv", result.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", result.ContentType)

	bom := []byte{0xEF, 0xBB, 0xBF}
	require.True(t, bytes.HasPrefix(result.Payload, bom))

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(result.Payload, bom)))
	records, err := reader.ReadAll()
	require.NoError(t, err)

	// header plus one row per roster user
	require.Len(t, records, 3)
	assert.Equal(t, []string{"User / Assignment", "부분합", "1일차과제", "2일차과제"}, records[0])
	assert.Equal(t, []string{"김지민", "2", "2", "0"}, records[1])
	assert.Equal(t, []string{"이서준", "3", "0", "3"}, records[2])
}

func TestExportEvaluationCSVOrdinalHeaders(t *testing.T) {
	// Headers derive from column position, never from assignment titles, and
	// cells carry the numeric score rather than the status string.
	evaluation := NewEvaluationService(
		&mockRosterRepo{roster: []models.RosterEntry{{ID: "user-1", Name: "김지민"}}},
		&mockAssignmentReader{assignments: []models.Assignment{{ID: "asg-1", Title: "블로그 개설하기"}}},
		&mockEvaluationSubmissionRepo{submissions: []models.Submission{
			{UserID: "user-1", AssignmentID: "asg-1", Status: models.StatusApproved},
		}},
		&mockAuditRepo{},
		nil,
		nil,
	)
	svc := NewExportService(evaluation, nil, nil, nil)

	result, err := svc.Evaluation(context.Background(), ExportFormatCSV)
	require.NoError(t, err)

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(result.Payload, []byte{0xEF, 0xBB, 0xBF})))
	records, err := reader.ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, []string{"User / Assignment", "부분합", "1일차과제"}, records[0])
	assert.Equal(t, []string{"김지민", "2", "2"}, records[1])
}

func TestExportEvaluationCSVEmptyRoster(t *testing.T) {
	evaluation := NewEvaluationService(
		&mockRosterRepo{},
		&mockAssignmentReader{assignments: testAssignments()},
		&mockEvaluationSubmissionRepo{},
		&mockAuditRepo{},
		newProgressService(&mockRosterRepo{}, &mockAssignmentReader{}, &mockSubmissionReader{}),
		nil,
	)
	svc := NewExportService(evaluation, nil, nil, nil)

	result, err := svc.Evaluation(context.Background(), ExportFormatCSV)
	require.NoError(t, err)

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(result.Payload, []byte{0xEF, 0xBB, 0xBF})))
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestExportEvaluationPDF(t *testing.T) {
	svc := newExportService(nil)

	result, err := svc.Evaluation(context.Background(), ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "과제평가_2025-06-15.pdf", result.Filename)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, bytes.HasPrefix(result.Payload, []byte("%PDF")), fmt.Sprintf("unexpected prefix %q", result.Payload[:4]))
}

func TestExportEvaluationUnsupportedFormat(t *testing.T) {
	svc := newExportService(nil)

	_, err := svc.Evaluation(context.Background(), "xlsx")
	require.Error(t, err)
}
