package dto

import "encoding/json"

// QuestionCreateDTO is used within TestCreateDTO for admin test creation.
// AnswerKey's shape depends on Type and is validated against it.
type QuestionCreateDTO struct {
	Text        string          `json:"text" binding:"required"`
	Type        string          `json:"type" binding:"required,oneof=single_choice multi_select free_text matching ordered_list matrix"`
	Points      float64         `json:"points"`
	OrderInTest int             `json:"order_in_test" binding:"required,min=1"`
	AnswerKey   json.RawMessage `json:"answer_key" binding:"required"`
}

// TestCreateDTO is for admin to create a new test with all its questions.
type TestCreateDTO struct {
	Title       string              `json:"title" binding:"required"`
	Type        string              `json:"type" binding:"omitempty,oneof=standard vetting"`
	DurationMin int                 `json:"duration_min"` // required for vetting tests
	Shuffle     bool                `json:"shuffle"`
	Questions   []QuestionCreateDTO `json:"questions" binding:"required,min=1,dive"`
}

// TestUpdateDTO replaces a test's metadata and full question list.
type TestUpdateDTO struct {
	Title       string              `json:"title" binding:"required"`
	Type        string              `json:"type" binding:"omitempty,oneof=standard vetting"`
	DurationMin int                 `json:"duration_min"`
	Shuffle     bool                `json:"shuffle"`
	Questions   []QuestionCreateDTO `json:"questions" binding:"required,min=1,dive"`
}

// RecordCaptureDTO is the manual-capture path into the records table. The
// dedup key here includes group and phase on top of (trainee, assessment).
type RecordCaptureDTO struct {
	GroupID    string `json:"group_id" binding:"required"`
	Trainee    string `json:"trainee" binding:"required"`
	Assessment string `json:"assessment" binding:"required"`
	Score      int    `json:"score" binding:"min=0,max=100"`
	Phase      string `json:"phase" binding:"required"`
	Link       string `json:"link"`
}

// ScoreUpdateDTO sets a submission's score during manual review.
type ScoreUpdateDTO struct {
	Score int `json:"score" binding:"min=0,max=100"`
}

// RosterUpsertDTO replaces the member list of one onboarding group.
type RosterUpsertDTO struct {
	GroupID string   `json:"group_id" binding:"required"`
	Members []string `json:"members" binding:"required"`
}

// SessionCreateDTO opens a proctored sitting for a test.
type SessionCreateDTO struct {
	TestID uint   `json:"test_id" binding:"required"`
	Kind   string `json:"kind" binding:"omitempty,oneof=live vetting"`
}
