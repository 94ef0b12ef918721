package models

import "time"

// ReviewStatus is the review state an administrator assigns to a submission.
// The values are the Korean labels the course UI displays; they are stored
// verbatim.
type ReviewStatus string

const (
	StatusInReview      ReviewStatus = "검토중"
	StatusApproved      ReviewStatus = "승인"
	StatusNeedsRevision ReviewStatus = "수정필요"
	StatusExemplary     ReviewStatus = "모범답안"

	// StatusNotSubmitted is virtual: never stored, only reported for
	// (user, assignment) pairs with no submission row.
	StatusNotSubmitted ReviewStatus = "미제출"
)

// Valid reports whether the status is one of the storable review states.
func (s ReviewStatus) Valid() bool {
	switch s {
	case StatusInReview, StatusApproved, StatusNeedsRevision, StatusExemplary:
		return true
	}
	return false
}

// Submission is a user's single artifact (URL) for one assignment. At most
// one row exists per (user_id, assignment_id); the unique constraint plus an
// upsert write path enforce that.
type Submission struct {
	ID           string       `db:"id" json:"id"`
	UserID       string       `db:"user_id" json:"user_id"`
	AssignmentID string       `db:"assignment_id" json:"assignment_id"`
	URL          string       `db:"url" json:"url"`
	Status       ReviewStatus `db:"status" json:"status"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}
