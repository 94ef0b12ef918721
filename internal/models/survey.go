package models

import "time"

// QuestionType enumerates the supported survey question kinds.
type QuestionType string

const (
	QuestionSingleChoice   QuestionType = "single_choice"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionText           QuestionType = "text"
)

// Valid reports whether the question type is supported.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionSingleChoice, QuestionMultipleChoice, QuestionText:
		return true
	}
	return false
}

// Survey is an admin-created questionnaire.
type Survey struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SurveyQuestion is one question of a survey. Options is populated for
// choice questions only.
type SurveyQuestion struct {
	ID        string                 `db:"id" json:"id"`
	SurveyID  string                 `db:"survey_id" json:"survey_id"`
	Text      string                 `db:"text" json:"text"`
	Type      QuestionType           `db:"question_type" json:"question_type"`
	Position  int                    `db:"position" json:"position"`
	Options   []SurveyQuestionOption `db:"-" json:"options,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// SurveyQuestionOption is one selectable answer of a choice question.
type SurveyQuestionOption struct {
	ID         string `db:"id" json:"id"`
	QuestionID string `db:"question_id" json:"question_id"`
	Text       string `db:"text" json:"text"`
	Position   int    `db:"position" json:"position"`
}

// SurveyResponse marks that a user completed a survey. One row per
// (survey_id, user_id).
type SurveyResponse struct {
	ID        string    `db:"id" json:"id"`
	SurveyID  string    `db:"survey_id" json:"survey_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SurveyAnswer is a user's answer to a single question. OptionID is set for
// choice questions, Text for free-text ones.
type SurveyAnswer struct {
	ID         string    `db:"id" json:"id"`
	QuestionID string    `db:"question_id" json:"question_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	OptionID   *string   `db:"option_id" json:"option_id,omitempty"`
	Text       *string   `db:"text" json:"text,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// SurveyWithStats decorates a survey with counts for the list view.
type SurveyWithStats struct {
	Survey
	QuestionCount int  `json:"question_count"`
	ResponseCount int  `json:"response_count"`
	Responded     bool `json:"responded"`
}
