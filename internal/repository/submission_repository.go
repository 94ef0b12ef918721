package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/classhub/classhub-api/internal/models"
)

// SubmissionRepository provides database access for homework submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository creates a new instance of SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// ListByAssignments returns all submissions for the given assignments in one
// batched query. An empty id list yields an empty result without touching
// the database.
func (r *SubmissionRepository) ListByAssignments(ctx context.Context, assignmentIDs []string) ([]models.Submission, error) {
	if len(assignmentIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, user_id, assignment_id, url, status, created_at, updated_at FROM submissions WHERE assignment_id = ANY($1) ORDER BY created_at ASC`
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, pq.Array(assignmentIDs)); err != nil {
		return nil, fmt.Errorf("list submissions by assignments: %w", err)
	}
	return submissions, nil
}

// ListByUser returns all submissions of one user.
func (r *SubmissionRepository) ListByUser(ctx context.Context, userID string) ([]models.Submission, error) {
	const query = `SELECT id, user_id, assignment_id, url, status, created_at, updated_at FROM submissions WHERE user_id = $1 ORDER BY created_at ASC`
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, userID); err != nil {
		return nil, fmt.Errorf("list submissions by user: %w", err)
	}
	return submissions, nil
}

// Find returns the submission for one (user, assignment) pair.
func (r *SubmissionRepository) Find(ctx context.Context, userID, assignmentID string) (*models.Submission, error) {
	const query = `SELECT id, user_id, assignment_id, url, status, created_at, updated_at FROM submissions WHERE user_id = $1 AND assignment_id = $2 LIMIT 1`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, userID, assignmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return &submission, nil
}

// Upsert inserts a submission or, when the (user_id, assignment_id) row
// already exists, replaces its URL. The unique constraint makes concurrent
// first submissions safe; resubmission keeps the original created_at and
// review status. Returns true when a new row was inserted.
func (r *SubmissionRepository) Upsert(ctx context.Context, submission *models.Submission) (bool, error) {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = now
	}
	submission.UpdatedAt = now
	if submission.Status == "" {
		submission.Status = models.StatusInReview
	}

	const query = `INSERT INTO submissions (id, user_id, assignment_id, url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, assignment_id)
		DO UPDATE SET url = EXCLUDED.url, updated_at = EXCLUDED.updated_at
		RETURNING id, status, created_at, updated_at, (xmax = 0) AS inserted`
	var row struct {
		ID        string              `db:"id"`
		Status    models.ReviewStatus `db:"status"`
		CreatedAt time.Time           `db:"created_at"`
		UpdatedAt time.Time           `db:"updated_at"`
		Inserted  bool                `db:"inserted"`
	}
	if err := r.db.GetContext(ctx, &row, query,
		submission.ID, submission.UserID, submission.AssignmentID,
		submission.URL, submission.Status, submission.CreatedAt, submission.UpdatedAt,
	); err != nil {
		return false, fmt.Errorf("upsert submission: %w", err)
	}
	// On the conflict path the stored row keeps its id, creation time and
	// review status; copy them back so callers see what is persisted.
	submission.ID = row.ID
	submission.Status = row.Status
	submission.CreatedAt = row.CreatedAt
	submission.UpdatedAt = row.UpdatedAt
	return row.Inserted, nil
}

// UpdateStatus sets the review status for one (user, assignment) pair and
// returns the stored row, so callers read back what was written.
func (r *SubmissionRepository) UpdateStatus(ctx context.Context, userID, assignmentID string, status models.ReviewStatus) (*models.Submission, error) {
	const query = `UPDATE submissions SET status = $3, updated_at = $4 WHERE user_id = $1 AND assignment_id = $2
		RETURNING id, user_id, assignment_id, url, status, created_at, updated_at`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, userID, assignmentID, status, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("update submission status: %w", err)
	}
	return &submission, nil
}

// CountByAssignment returns the submission count for one assignment.
func (r *SubmissionRepository) CountByAssignment(ctx context.Context, assignmentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM submissions WHERE assignment_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, assignmentID); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return count, nil
}
