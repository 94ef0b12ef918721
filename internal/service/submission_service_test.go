package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classhub/classhub-api/internal/models"
	"github.com/classhub/classhub-api/pkg/mailer"
)

type mockSubmissionRepo struct {
	stored   map[string]models.Submission
	inserted bool
}

func (m *mockSubmissionRepo) ListByUser(ctx context.Context, userID string) ([]models.Submission, error) {
	var list []models.Submission
	for _, sub := range m.stored {
		if sub.UserID == userID {
			list = append(list, sub)
		}
	}
	return list, nil
}

func (m *mockSubmissionRepo) Find(ctx context.Context, userID, assignmentID string) (*models.Submission, error) {
	if sub, ok := m.stored[userID+"/"+assignmentID]; ok {
		return &sub, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubmissionRepo) Upsert(ctx context.Context, submission *models.Submission) (bool, error) {
	if m.stored == nil {
		m.stored = make(map[string]models.Submission)
	}
	key := submission.UserID + "/" + submission.AssignmentID
	if submission.Status == "" {
		submission.Status = models.StatusInReview
	}
	// Mirror the ON CONFLICT contract: a conflicting row keeps its id,
	// creation time and review status, and only the URL is replaced.
	if prior, exists := m.stored[key]; exists {
		submission.ID = prior.ID
		submission.Status = prior.Status
		submission.CreatedAt = prior.CreatedAt
		prior.URL = submission.URL
		m.stored[key] = prior
		m.inserted = false
		return false, nil
	}
	m.stored[key] = *submission
	m.inserted = true
	return true, nil
}

type mockAssignmentRepo struct {
	assignments map[string]models.Assignment
}

func (m *mockAssignmentRepo) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	if a, ok := m.assignments[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

type mockUserReader struct {
	users map[string]*models.User
}

func (m *mockUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

type mockMailer struct {
	sent chan mailer.Message
}

func newMockMailer() *mockMailer {
	return &mockMailer{sent: make(chan mailer.Message, 1)}
}

func (m *mockMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.sent <- msg
	return nil
}

func openAssignment() models.Assignment {
	now := time.Now().UTC()
	return models.Assignment{
		ID:        "asg-1",
		Title:     "1일차과제",
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(time.Hour),
	}
}

func closedAssignment() models.Assignment {
	now := time.Now().UTC()
	return models.Assignment{
		ID:        "asg-2",
		Title:     "2일차과제",
		StartDate: now.Add(-48 * time.Hour),
		EndDate:   now.Add(-24 * time.Hour),
	}
}

func newSubmissionService(repo *mockSubmissionRepo, assignments *mockAssignmentRepo, mail Mailer) *SubmissionService {
	users := &mockUserReader{users: map[string]*models.User{
		"user-1": {ID: "user-1", Email: "kim@classhub.dev", Name: "김지민"},
	}}
	progress := newProgressService(&mockRosterRepo{}, &mockAssignmentReader{}, &mockSubmissionReader{})
	return NewSubmissionService(repo, assignments, users, progress, mail, nil, nil)
}

func TestSubmitStoresWithInReviewStatus(t *testing.T) {
	repo := &mockSubmissionRepo{}
	svc := newSubmissionService(repo, &mockAssignmentRepo{assignments: map[string]models.Assignment{"asg-1": openAssignment()}}, nil)

	submission, err := svc.Submit(context.Background(), "user-1", SubmitRequest{
		AssignmentID: "asg-1",
		URL:          "https://blog.example.com/1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInReview, submission.Status)
	assert.True(t, repo.inserted)
}

func TestSubmitRejectsClosedWindow(t *testing.T) {
	svc := newSubmissionService(&mockSubmissionRepo{}, &mockAssignmentRepo{assignments: map[string]models.Assignment{"asg-2": closedAssignment()}}, nil)

	_, err := svc.Submit(context.Background(), "user-1", SubmitRequest{
		AssignmentID: "asg-2",
		URL:          "https://blog.example.com/1",
	})
	require.Error(t, err)
}

func TestSubmitRejectsInvalidURL(t *testing.T) {
	svc := newSubmissionService(&mockSubmissionRepo{}, &mockAssignmentRepo{assignments: map[string]models.Assignment{"asg-1": openAssignment()}}, nil)

	_, err := svc.Submit(context.Background(), "user-1", SubmitRequest{
		AssignmentID: "asg-1",
		URL:          "not a url",
	})
	require.Error(t, err)
}

func TestSubmitUnknownAssignment(t *testing.T) {
	svc := newSubmissionService(&mockSubmissionRepo{}, &mockAssignmentRepo{}, nil)

	_, err := svc.Submit(context.Background(), "user-1", SubmitRequest{
		AssignmentID: "missing",
		URL:          "https://blog.example.com/1",
	})
	require.Error(t, err)
}

func TestSubmitFirstSubmissionNotifies(t *testing.T) {
	mail := newMockMailer()
	svc := newSubmissionService(&mockSubmissionRepo{}, &mockAssignmentRepo{assignments: map[string]models.Assignment{"asg-1": openAssignment()}}, mail)

	_, err := svc.Submit(context.Background(), "user-1", SubmitRequest{
		AssignmentID: "asg-1",
		URL:          "https://blog.example.com/1",
	})
	require.NoError(t, err)

	select {
	case msg := <-mail.sent:
		assert.Equal(t, "kim@classhub.dev", msg.ToEmail)
		assert.Equal(t, "[과제 제출 완료] 1일차과제", msg.Subject)
		assert.Contains(t, msg.TextBody, "https://blog.example.com/1")
	case <-time.After(time.Second):
		t.Fatal("expected a notification for the first submission")
	}
}

func TestSubmitResubmissionDoesNotNotify(t *testing.T) {
	mail := newMockMailer()
	repo := &mockSubmissionRepo{}
	svc := newSubmissionService(repo, &mockAssignmentRepo{assignments: map[string]models.Assignment{"asg-1": openAssignment()}}, mail)

	first, err := svc.Submit(context.Background(), "user-1", SubmitRequest{
		AssignmentID: "asg-1",
		URL:          "https://blog.example.com/1",
	})
	require.NoError(t, err)
	<-mail.sent

	// An admin reviews the first submission before the student resubmits.
	reviewed := repo.stored["user-1/asg-1"]
	reviewed.Status = models.StatusApproved
	repo.stored["user-1/asg-1"] = reviewed

	second, err := svc.Submit(context.Background(), "user-1", SubmitRequest{
		AssignmentID: "asg-1",
		URL:          "https://blog.example.com/1-v2",
	})
	require.NoError(t, err)

	select {
	case <-mail.sent:
		t.Fatal("resubmission must not notify")
	case <-time.After(100 * time.Millisecond):
	}

	stored := repo.stored["user-1/asg-1"]
	assert.Equal(t, "https://blog.example.com/1-v2", stored.URL)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.StatusApproved, second.Status)
}
