package models

import "time"

// ConsultationLog records one counseling session between an administrator
// and a student.
type ConsultationLog struct {
	ID               string    `db:"id" json:"id"`
	StudentID        string    `db:"student_id" json:"student_id"`
	ConsultationDate time.Time `db:"consultation_date" json:"consultation_date"`
	Content          string    `db:"content" json:"content"`
	Notes            *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// ConsultationOverview is the roster side panel entry: a student and their
// most recent consultation date, if any.
type ConsultationOverview struct {
	StudentID        string     `db:"student_id" json:"student_id"`
	StudentName      string     `db:"student_name" json:"student_name"`
	LastConsultation *time.Time `db:"last_consultation" json:"last_consultation,omitempty"`
}
