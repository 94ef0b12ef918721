package models

import (
	"time"

	"github.com/lib/pq"
)

// Assignment is a task with a visibility window that students submit work
// against.
type Assignment struct {
	ID        string         `db:"id" json:"id"`
	Title     string         `db:"title" json:"title"`
	Content   *string        `db:"content" json:"content,omitempty"`
	StartDate time.Time      `db:"start_date" json:"start_date"`
	EndDate   time.Time      `db:"end_date" json:"end_date"`
	Links     pq.StringArray `db:"links" json:"links,omitempty"`
	CreatedBy string         `db:"created_by" json:"created_by"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// WindowOpen reports whether the assignment accepts submissions at the given
// instant.
func (a Assignment) WindowOpen(now time.Time) bool {
	return !now.Before(a.StartDate) && now.Before(a.EndDate)
}

// AssignmentWithCount pairs an assignment with its submission count for
// list views.
type AssignmentWithCount struct {
	Assignment
	SubmissionCount int `db:"submission_count" json:"submission_count"`
}
