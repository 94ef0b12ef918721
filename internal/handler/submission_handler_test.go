package handler

import (
	"context"
	"database/sql"
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

type fakeSubmissionRepo struct {
	stored   []models.Submission
	inserted bool
}

func (f *fakeSubmissionRepo) ListByUser(context.Context, string) ([]models.Submission, error) {
	return f.stored, nil
}

func (f *fakeSubmissionRepo) Find(context.Context, string, string) (*models.Submission, error) {
	if len(f.stored) == 0 {
		return nil, sql.ErrNoRows
	}
	return &f.stored[0], nil
}

func (f *fakeSubmissionRepo) Upsert(_ context.Context, submission *models.Submission) (bool, error) {
	// Mirror the real repository's contract: a fresh row gets the default
	// review status.
	if submission.Status == "" {
		submission.Status = models.StatusInReview
	}
	f.stored = append(f.stored, *submission)
	return f.inserted, nil
}

type fakeAssignmentFinder struct {
	assignment *models.Assignment
	err        error
}

func (f *fakeAssignmentFinder) FindByID(context.Context, string) (*models.Assignment, error) {
	return f.assignment, f.err
}

func newSubmissionTestHandler(repo *fakeSubmissionRepo, assignments *fakeAssignmentFinder) *SubmissionHandler {
	svc := service.NewSubmissionService(repo, assignments, nil, nil, nil, nil, nil)
	return NewSubmissionHandler(svc)
}

func openWindowAssignment() *models.Assignment {
	now := time.Now().UTC()
	return &models.Assignment{
		ID:        "asg-1",
		Title:     "1일차과제",
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(time.Hour),
	}
}

func TestSubmissionHandlerSubmitRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSubmissionTestHandler(&fakeSubmissionRepo{}, &fakeAssignmentFinder{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/submissions", strings.NewReader(`{}`))

	handler.Submit(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmissionHandlerSubmitRejectsBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSubmissionTestHandler(&fakeSubmissionRepo{}, &fakeAssignmentFinder{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/submissions", strings.NewReader(`{"assignment_id":`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1"})

	handler.Submit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmissionHandlerSubmitCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeSubmissionRepo{inserted: true}
	handler := newSubmissionTestHandler(repo, &fakeAssignmentFinder{assignment: openWindowAssignment()})

	body := `{"assignment_id":"asg-1","url":"https://blog.example.com/day-1"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/submissions", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent})

	handler.Submit(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.stored, 1)
	assert.Equal(t, "user-1", repo.stored[0].UserID)
	assert.Equal(t, models.StatusInReview, repo.stored[0].Status)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var submission models.Submission
	require.NoError(t, json.Unmarshal(envelope.Data, &submission))
	assert.Equal(t, "https://blog.example.com/day-1", submission.URL)
}

func TestSubmissionHandlerListMine(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeSubmissionRepo{stored: []models.Submission{
		{UserID: "user-1", AssignmentID: "asg-1", URL: "https://blog.example.com/day-1", Status: models.StatusApproved},
	}}
	handler := newSubmissionTestHandler(repo, &fakeAssignmentFinder{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/submissions/me", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1"})

	handler.ListMine(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var submissions []models.Submission
	require.NoError(t, json.Unmarshal(envelope.Data, &submissions))
	require.Len(t, submissions, 1)
	assert.Equal(t, models.StatusApproved, submissions[0].Status)
}
