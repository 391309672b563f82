package dto

import "encoding/json"

// SubmissionCreateDTO is a trainee submitting all answers for a test.
// Answers is keyed by each question's `index` from the take view (its rank
// in the test's question order); the answer shape depends on the question
// type. Trainee is filled from the caller's token for trainee-role callers;
// admins may submit on another trainee's behalf. Forced is set only by the
// vetting-timer expiry path, which completes the one in-flight attempt and
// is therefore allowed past the duplicate-submission check.
type SubmissionCreateDTO struct {
	Trainee string                  `json:"trainee"`
	GroupID string                  `json:"group_id"`
	Phase   string                  `json:"phase"`
	Answers map[int]json.RawMessage `json:"answers" binding:"required"`
	Forced  bool                    `json:"forced"`
}

// LoginDTO authenticates a user.
type LoginDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterDTO creates a user account.
type RegisterDTO struct {
	Username    string `json:"username" binding:"required,min=3"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password" binding:"required,min=8"`
	Role        string `json:"role" binding:"omitempty,oneof=admin trainee"`
}
