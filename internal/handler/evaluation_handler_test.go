package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classhub/classhub-api/internal/middleware"
	"github.com/classhub/classhub-api/internal/models"
	"github.com/classhub/classhub-api/internal/service"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type fakeRosterRepo struct {
	roster []models.RosterEntry
	err    error
}

func (f *fakeRosterRepo) ListRoster(context.Context) ([]models.RosterEntry, error) {
	return f.roster, f.err
}

type fakeAssignmentReader struct {
	assignments []models.Assignment
	err         error
}

func (f *fakeAssignmentReader) List(context.Context) ([]models.Assignment, error) {
	return f.assignments, f.err
}

type fakeEvalSubmissionRepo struct {
	submissions []models.Submission
	updated     *models.Submission
	updateErr   error
	lastStatus  models.ReviewStatus
}

func (f *fakeEvalSubmissionRepo) ListByAssignments(context.Context, []string) ([]models.Submission, error) {
	return f.submissions, nil
}

func (f *fakeEvalSubmissionRepo) UpdateStatus(_ context.Context, userID, assignmentID string, status models.ReviewStatus) (*models.Submission, error) {
	f.lastStatus = status
	return f.updated, f.updateErr
}

type fakeAuditRepo struct{ logs []*models.AuditLog }

func (f *fakeAuditRepo) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.logs = append(f.logs, log)
	return nil
}

func newEvaluationTestHandler(subs *fakeEvalSubmissionRepo) *EvaluationHandler {
	roster := &fakeRosterRepo{roster: []models.RosterEntry{{ID: "user-1", Name: "김지민"}}}
	assignments := &fakeAssignmentReader{assignments: []models.Assignment{{ID: "asg-1", Title: "1일차과제"}}}
	eval := service.NewEvaluationService(roster, assignments, subs, &fakeAuditRepo{}, nil, nil)
	export := service.NewExportService(eval, nil, nil, nil)
	return NewEvaluationHandler(eval, export)
}

func TestEvaluationHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEvaluationTestHandler(&fakeEvalSubmissionRepo{
		submissions: []models.Submission{{UserID: "user-1", AssignmentID: "asg-1", Status: models.StatusApproved}},
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/evaluations/export?format=csv", nil)

	handler.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), "attachment; filename*=UTF-8''"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, rec.Body.String(), "User / Assignment")
	assert.Contains(t, rec.Body.String(), "김지민,2,2")
}

func TestEvaluationHandlerExportRejectsUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEvaluationTestHandler(&fakeEvalSubmissionRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/evaluations/export?format=xlsx", nil)

	handler.Export(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvaluationHandlerUpdateStatusRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEvaluationTestHandler(&fakeEvalSubmissionRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPatch, "/evaluations/user-1/asg-1", strings.NewReader(`{"status":"승인"}`))

	handler.UpdateStatus(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEvaluationHandlerUpdateStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	subs := &fakeEvalSubmissionRepo{
		updated: &models.Submission{
			UserID:       "user-1",
			AssignmentID: "asg-1",
			Status:       models.StatusExemplary,
			UpdatedAt:    time.Now().UTC(),
		},
	}
	handler := newEvaluationTestHandler(subs)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPatch, "/evaluations/user-1/asg-1", strings.NewReader(`{"status":"모범답안"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "userId", Value: "user-1"}, {Key: "assignmentId", Value: "asg-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.UpdateStatus(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusExemplary, subs.lastStatus)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var submission models.Submission
	require.NoError(t, json.Unmarshal(envelope.Data, &submission))
	assert.Equal(t, models.StatusExemplary, submission.Status)
}
