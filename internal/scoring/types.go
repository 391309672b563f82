package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// QuestionType tags the answer-key shape a question carries. Every scorable
// question has exactly one key shape matching its type.
type QuestionType string

const (
	SingleChoice QuestionType = "single_choice"
	MultiSelect  QuestionType = "multi_select"
	FreeText     QuestionType = "free_text"
	Matching     QuestionType = "matching"
	OrderedList  QuestionType = "ordered_list"
	Matrix       QuestionType = "matrix"
)

var (
	// ErrNoQuestions is returned when scoring is invoked on an empty test.
	// Callers are expected to have rejected empty tests before submission.
	ErrNoQuestions = errors.New("scoring: test has no questions")

	// ErrUnknownQuestionType marks a test definition the engine does not
	// understand. It is a configuration error, never a silent zero.
	ErrUnknownQuestionType = errors.New("scoring: unknown question type")
)

// SingleChoiceKey holds the options and the index of the correct one.
type SingleChoiceKey struct {
	Options []string `json:"options"`
	Correct int      `json:"correct"`
}

// MultiSelectKey holds the options and the set of correct indices.
type MultiSelectKey struct {
	Options []string `json:"options"`
	Correct []int    `json:"correct"`
}

// FreeTextKey carries an advisory model answer. It is never compared
// automatically; free-text questions always require manual review.
type FreeTextKey struct {
	ModelAnswer string `json:"model_answer"`
}

// MatchPair is one left/right pairing in a matching question.
type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// MatchingKey holds the ordered pairs; a correct answer maps every left to
// its paired right, aligned by pair index.
type MatchingKey struct {
	Pairs []MatchPair `json:"pairs"`
}

// OrderedListKey holds the items in their correct order.
type OrderedListKey struct {
	Items []string `json:"items"`
}

// MatrixKey holds row/column labels and the correct column per row index.
// Row keys arrive as JSON object keys, so they are strings.
type MatrixKey struct {
	Rows    []string       `json:"rows"`
	Cols    []string       `json:"cols"`
	Correct map[string]int `json:"correct"`
}

// ValidateKey checks that a raw answer key parses into the shape declared by
// the question type. Used by the test builder so malformed definitions are
// rejected before any trainee can submit against them.
func ValidateKey(qt QuestionType, raw json.RawMessage) error {
	switch qt {
	case SingleChoice:
		var key SingleChoiceKey
		if err := json.Unmarshal(raw, &key); err != nil {
			return fmt.Errorf("single_choice key: %w", err)
		}
		if len(key.Options) == 0 {
			return errors.New("single_choice key: options must not be empty")
		}
		if key.Correct < 0 || key.Correct >= len(key.Options) {
			return fmt.Errorf("single_choice key: correct index %d out of range", key.Correct)
		}
	case MultiSelect:
		var key MultiSelectKey
		if err := json.Unmarshal(raw, &key); err != nil {
			return fmt.Errorf("multi_select key: %w", err)
		}
		if len(key.Options) == 0 {
			return errors.New("multi_select key: options must not be empty")
		}
		if len(key.Correct) == 0 {
			return errors.New("multi_select key: correct set must not be empty")
		}
		for _, idx := range key.Correct {
			if idx < 0 || idx >= len(key.Options) {
				return fmt.Errorf("multi_select key: correct index %d out of range", idx)
			}
		}
	case FreeText:
		var key FreeTextKey
		if err := json.Unmarshal(raw, &key); err != nil {
			return fmt.Errorf("free_text key: %w", err)
		}
	case Matching:
		var key MatchingKey
		if err := json.Unmarshal(raw, &key); err != nil {
			return fmt.Errorf("matching key: %w", err)
		}
		if len(key.Pairs) == 0 {
			return errors.New("matching key: pairs must not be empty")
		}
	case OrderedList:
		var key OrderedListKey
		if err := json.Unmarshal(raw, &key); err != nil {
			return fmt.Errorf("ordered_list key: %w", err)
		}
		if len(key.Items) == 0 {
			return errors.New("ordered_list key: items must not be empty")
		}
	case Matrix:
		var key MatrixKey
		if err := json.Unmarshal(raw, &key); err != nil {
			return fmt.Errorf("matrix key: %w", err)
		}
		if len(key.Rows) == 0 || len(key.Cols) == 0 {
			return errors.New("matrix key: rows and cols must not be empty")
		}
		for row, col := range key.Correct {
			if col < 0 || col >= len(key.Cols) {
				return fmt.Errorf("matrix key: correct column %d for row %s out of range", col, row)
			}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownQuestionType, qt)
	}
	return nil
}

// parseIndex reads an index that persisted data may hold as either a JSON
// number or a quoted digit string. All coercion lives here, at the boundary,
// so the scorers compare plain ints.
func parseIndex(raw json.RawMessage) (int, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false
	}
	s = strings.Trim(s, `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseIndexSet decodes an array of indices in mixed string/number form.
func parseIndexSet(raw json.RawMessage) ([]int, bool) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, false
	}
	out := make([]int, 0, len(elems))
	for _, e := range elems {
		n, ok := parseIndex(e)
		if !ok {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

// parseIndexMap decodes an object of row-index to column-index, with both
// sides possibly stored as strings.
func parseIndexMap(raw json.RawMessage) (map[int]int, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	out := make(map[int]int, len(obj))
	for k, v := range obj {
		row, err := strconv.Atoi(k)
		if err != nil {
			return nil, false
		}
		col, ok := parseIndex(v)
		if !ok {
			return nil, false
		}
		out[row] = col
	}
	return out, true
}
