package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classhub/classhub-api/internal/models"
)

// AssignmentRepository provides database access for assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new instance of AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// List returns all assignments, newest first. The set is classroom-sized,
// so no pagination.
func (r *AssignmentRepository) List(ctx context.Context) ([]models.Assignment, error) {
	const query = `SELECT id, title, content, start_date, end_date, links, created_by, created_at, updated_at FROM assignments ORDER BY created_at DESC`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// ListWithCounts returns all assignments newest first, each with its
// submission count.
func (r *AssignmentRepository) ListWithCounts(ctx context.Context) ([]models.AssignmentWithCount, error) {
	const query = `SELECT a.id, a.title, a.content, a.start_date, a.end_date, a.links, a.created_by, a.created_at, a.updated_at,
		COUNT(s.id) AS submission_count
		FROM assignments a
		LEFT JOIN submissions s ON s.assignment_id = a.id
		GROUP BY a.id
		ORDER BY a.created_at DESC`
	var assignments []models.AssignmentWithCount
	if err := r.db.SelectContext(ctx, &assignments, query); err != nil {
		return nil, fmt.Errorf("list assignments with counts: %w", err)
	}
	return assignments, nil
}

// FindByID returns an assignment by identifier.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	const query = `SELECT id, title, content, start_date, end_date, links, created_by, created_at, updated_at FROM assignments WHERE id = $1 LIMIT 1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find assignment by id: %w", err)
	}
	return &assignment, nil
}

// Create inserts a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now

	const query = `INSERT INTO assignments (id, title, content, start_date, end_date, links, created_by, created_at, updated_at) VALUES (:id, :title, :content, :start_date, :end_date, :links, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Update updates mutable fields of an assignment. Only the creator row
// matches, mirroring the creator-only edit rule.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) (bool, error) {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments SET title = :title, content = :content, start_date = :start_date, end_date = :end_date, links = :links, updated_at = :updated_at WHERE id = :id AND created_by = :created_by`
	res, err := r.db.NamedExecContext(ctx, query, assignment)
	if err != nil {
		return false, fmt.Errorf("update assignment: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update assignment rows affected: %w", err)
	}
	return rows > 0, nil
}

// Delete removes an assignment and cascades to its submissions.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM assignments WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}
