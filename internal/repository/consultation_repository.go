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

// ConsultationRepository provides database access for consultation logs.
type ConsultationRepository struct {
	db *sqlx.DB
}

// NewConsultationRepository creates a new instance of ConsultationRepository.
func NewConsultationRepository(db *sqlx.DB) *ConsultationRepository {
	return &ConsultationRepository{db: db}
}

// ListByStudent returns a student's consultation logs, newest first.
func (r *ConsultationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.ConsultationLog, error) {
	const query = `SELECT id, student_id, consultation_date, content, notes, created_at, updated_at FROM consultation_logs WHERE student_id = $1 ORDER BY consultation_date DESC`
	var logs []models.ConsultationLog
	if err := r.db.SelectContext(ctx, &logs, query, studentID); err != nil {
		return nil, fmt.Errorf("list consultation logs: %w", err)
	}
	return logs, nil
}

// Overview returns every roster student with their latest consultation date.
func (r *ConsultationRepository) Overview(ctx context.Context) ([]models.ConsultationOverview, error) {
	const query = `SELECT p.id AS student_id, p.name AS student_name, MAX(c.consultation_date) AS last_consultation
		FROM profiles p
		LEFT JOIN consultation_logs c ON c.student_id = p.id
		WHERE p.role <> $1 AND p.active = TRUE
		GROUP BY p.id, p.name, p.created_at
		ORDER BY p.created_at ASC`
	var overview []models.ConsultationOverview
	if err := r.db.SelectContext(ctx, &overview, query, models.RoleAdmin); err != nil {
		return nil, fmt.Errorf("consultation overview: %w", err)
	}
	return overview, nil
}

// FindByID returns one consultation log.
func (r *ConsultationRepository) FindByID(ctx context.Context, id string) (*models.ConsultationLog, error) {
	const query = `SELECT id, student_id, consultation_date, content, notes, created_at, updated_at FROM consultation_logs WHERE id = $1 LIMIT 1`
	var log models.ConsultationLog
	if err := r.db.GetContext(ctx, &log, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find consultation log: %w", err)
	}
	return &log, nil
}

// Create inserts a new consultation log.
func (r *ConsultationRepository) Create(ctx context.Context, log *models.ConsultationLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if log.CreatedAt.IsZero() {
		log.CreatedAt = now
	}
	log.UpdatedAt = now

	const query = `INSERT INTO consultation_logs (id, student_id, consultation_date, content, notes, created_at, updated_at) VALUES (:id, :student_id, :consultation_date, :content, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create consultation log: %w", err)
	}
	return nil
}

// Update updates the date, content and notes of a consultation log.
func (r *ConsultationRepository) Update(ctx context.Context, log *models.ConsultationLog) error {
	log.UpdatedAt = time.Now().UTC()
	const query = `UPDATE consultation_logs SET consultation_date = :consultation_date, content = :content, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("update consultation log: %w", err)
	}
	return nil
}

// Delete removes a consultation log.
func (r *ConsultationRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM consultation_logs WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete consultation log: %w", err)
	}
	return nil
}
