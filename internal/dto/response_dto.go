package dto

import (
	"encoding/json"
	"time"
)

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// QuestionResponseDTO is the admin view of a question, answer key included.
type QuestionResponseDTO struct {
	ID          uint            `json:"id"`
	TestID      uint            `json:"test_id"`
	Text        string          `json:"text"`
	Type        string          `json:"type"`
	Points      float64         `json:"points"`
	OrderInTest int             `json:"order_in_test"`
	AnswerKey   json.RawMessage `json:"answer_key,omitempty"`
}

// TakeQuestionDTO is the trainee view of a question: prompt and options only,
// never the key. Index is the question's rank in the test's question order
// and is the key the answers map must use, regardless of display shuffling.
type TakeQuestionDTO struct {
	Index       int      `json:"index"`
	Text        string   `json:"text"`
	Type        string   `json:"type"`
	Points      float64  `json:"points"`
	OrderInTest int      `json:"order_in_test"`
	Options     []string `json:"options,omitempty"`
	Lefts       []string `json:"lefts,omitempty"` // matching prompts
	Items       []string `json:"items,omitempty"` // ordered_list items, shuffled for display
	Rows        []string `json:"rows,omitempty"`
	Cols        []string `json:"cols,omitempty"`
}

type TestResponseDTO struct {
	ID          uint                  `json:"id"`
	Title       string                `json:"title"`
	Type        string                `json:"type"`
	DurationMin int                   `json:"duration_min,omitempty"`
	Shuffle     bool                  `json:"shuffle"`
	Questions   []QuestionResponseDTO `json:"questions,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

type TestSummaryDTO struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Type          string    `json:"type"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// TakeTestDTO is what a trainee receives when starting an attempt.
type TakeTestDTO struct {
	ID          uint              `json:"id"`
	Title       string            `json:"title"`
	Type        string            `json:"type"`
	DurationMin int               `json:"duration_min,omitempty"`
	Questions   []TakeQuestionDTO `json:"questions"`
}

// SubmissionResponseDTO reports a scored attempt. Synced is false when the
// local write succeeded but the remote mirror push failed; the submission is
// intact either way.
type SubmissionResponseDTO struct {
	ID             uint      `json:"id"`
	TestID         uint      `json:"test_id"`
	TestTitle      string    `json:"test_title"`
	Trainee        string    `json:"trainee"`
	Score          int       `json:"score"`
	Status         string    `json:"status"`
	RequiresReview bool      `json:"requires_review"`
	Archived       bool      `json:"archived"`
	SubmittedAt    time.Time `json:"submitted_at"`
	Synced         bool      `json:"synced"`
}

// SubmissionDetailDTO adds the raw answers for the review screens.
type SubmissionDetailDTO struct {
	SubmissionResponseDTO
	Answers json.RawMessage `json:"answers"`
}

type RecordResponseDTO struct {
	ID         string    `json:"id"`
	GroupID    string    `json:"group_id,omitempty"`
	Trainee    string    `json:"trainee"`
	Assessment string    `json:"assessment"`
	Score      int       `json:"score"`
	Date       time.Time `json:"date"`
	Phase      string    `json:"phase,omitempty"`
	Cycle      string    `json:"cycle,omitempty"`
	Link       string    `json:"link,omitempty"`
}

type RosterGroupDTO struct {
	GroupID string   `json:"group_id"`
	Members []string `json:"members"`
}

type SessionResponseDTO struct {
	ID        string    `json:"id"`
	TestID    uint      `json:"test_id"`
	Kind      string    `json:"kind"`
	Active    bool      `json:"active"`
	StartedAt time.Time `json:"started_at"`
	Completed []string  `json:"completed"` // trainees who finished
}

type TokenResponseDTO struct {
	Token       string `json:"token"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name,omitempty"`
}

// ReviewDraftDTO is an LLM-drafted note to help the manual grader. Purely
// advisory; it never contributes to the score.
type ReviewDraftDTO struct {
	SubmissionID  uint   `json:"submission_id"`
	QuestionIndex int    `json:"question_index"`
	Draft         string `json:"draft"`
}
