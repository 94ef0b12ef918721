package models

// Score maps a review status to its evaluation score. Unsubmitted and
// in-review both score zero; only reviewed work earns points.
func Score(status ReviewStatus) int {
	switch status {
	case StatusNeedsRevision:
		return 1
	case StatusApproved:
		return 2
	case StatusExemplary:
		return 3
	default:
		return 0
	}
}

// EvaluationCell is one scored (user, assignment) pair.
type EvaluationCell struct {
	AssignmentID string       `json:"assignment_id"`
	Status       ReviewStatus `json:"status"`
	Score        int          `json:"score"`
}

// EvaluationRow is one student's scored row with their subtotal.
type EvaluationRow struct {
	UserID   string           `json:"user_id"`
	UserName string           `json:"user_name"`
	Subtotal int              `json:"subtotal"`
	Cells    []EvaluationCell `json:"cells"`
}

// EvaluationSheet is the full scored roster × assignments table.
type EvaluationSheet struct {
	Assignments []AssignmentColumn `json:"assignments"`
	Rows        []EvaluationRow    `json:"rows"`
}
