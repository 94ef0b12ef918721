package models

// CellState classifies a (user, assignment) progress cell. Unknown means the
// submission feed failed to load, distinct from a confirmed missing
// submission.
type CellState string

const (
	CellCompleted    CellState = "completed"
	CellNotCompleted CellState = "not_completed"
	CellUnknown      CellState = "unknown"
)

// Feed names reported in ProgressMatrix.Degraded when a source fetch fails.
const (
	FeedAssignments = "assignments"
	FeedRoster      = "roster"
	FeedSubmissions = "submissions"
)

// ProgressCell is the derived completion/status view for one
// (user, assignment) pair. URL and Status are set only for completed cells.
type ProgressCell struct {
	UserID       string        `json:"user_id"`
	AssignmentID string        `json:"assignment_id"`
	State        CellState     `json:"state"`
	URL          string        `json:"url,omitempty"`
	Status       *ReviewStatus `json:"status,omitempty"`
}

// ProgressRow groups one roster user's cells in assignment order.
type ProgressRow struct {
	UserID   string         `json:"user_id"`
	UserName string         `json:"user_name"`
	Cells    []ProgressCell `json:"cells"`
}

// AssignmentColumn is the column header metadata of the matrix.
type AssignmentColumn struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ProgressMatrix is the full roster × assignments completion view. Degraded
// lists feeds that failed to load; their cells carry CellUnknown.
type ProgressMatrix struct {
	Assignments []AssignmentColumn `json:"assignments"`
	Rows        []ProgressRow      `json:"rows"`
	Degraded    []string           `json:"degraded,omitempty"`
}
