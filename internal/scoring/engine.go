package scoring

import (
	"encoding/json"
	"fmt"
	"math"
)

// Item is one scorable question: its type tag, weight, and raw answer key.
type Item struct {
	Type   QuestionType
	Points float64
	Key    json.RawMessage
}

// Result aggregates a full submission's score.
type Result struct {
	EarnedPoints         float64
	MaxPoints            float64
	Percent              int
	RequiresManualReview bool
}

// AnswerSet maps a question's position in the test to the trainee's raw
// answer. Missing entries are valid and score zero.
type AnswerSet map[int]json.RawMessage

type scoreFunc func(key, answer json.RawMessage, points float64) (float64, error)

// scorers is the single dispatch point from type tag to scoring rule. A type
// absent here is an ErrUnknownQuestionType, never a silent zero.
var scorers = map[QuestionType]scoreFunc{
	SingleChoice: scoreSingleChoice,
	MultiSelect:  scoreMultiSelect,
	FreeText:     scoreFreeText,
	Matching:     scoreMatching,
	OrderedList:  scoreOrderedList,
	Matrix:       scoreMatrix,
}

// Score computes the total for a submission. Pure: no I/O, no mutation of
// its inputs. Items must be in test order; answers are keyed by that order.
func Score(items []Item, answers AnswerSet) (*Result, error) {
	if len(items) == 0 {
		return nil, ErrNoQuestions
	}

	res := &Result{}
	for i, item := range items {
		scorer, ok := scorers[item.Type]
		if !ok {
			return nil, fmt.Errorf("%w: %q at question %d", ErrUnknownQuestionType, item.Type, i)
		}

		points := normalizePoints(item.Points)
		res.MaxPoints += points
		if item.Type == FreeText {
			res.RequiresManualReview = true
		}

		answer, answered := answers[i]
		if !answered || len(answer) == 0 {
			continue
		}

		earned, err := scorer(item.Key, answer, points)
		if err != nil {
			return nil, fmt.Errorf("scoring question %d: %w", i, err)
		}
		res.EarnedPoints += earned
	}

	res.Percent = percent(res.EarnedPoints, res.MaxPoints)
	return res, nil
}

// normalizePoints coerces a question weight to a positive number, defaulting
// to 1 when absent or invalid.
func normalizePoints(p float64) float64 {
	if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		return 1
	}
	return p
}

// percent rounds half up to an integer and clamps to [0, 100].
func percent(earned, max float64) int {
	if max <= 0 {
		return 0
	}
	p := int(math.Floor(earned/max*100 + 0.5))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func scoreSingleChoice(key, answer json.RawMessage, points float64) (float64, error) {
	var k SingleChoiceKey
	if err := json.Unmarshal(key, &k); err != nil {
		return 0, fmt.Errorf("single_choice key: %w", err)
	}
	selected, ok := parseIndex(answer)
	if !ok {
		return 0, nil
	}
	if selected == k.Correct {
		return points, nil
	}
	return 0, nil
}

// scoreMultiSelect awards proportional credit with a wrong-selection penalty:
// each incorrect selection cancels one correct one, floored at zero.
func scoreMultiSelect(key, answer json.RawMessage, points float64) (float64, error) {
	var k MultiSelectKey
	if err := json.Unmarshal(key, &k); err != nil {
		return 0, fmt.Errorf("multi_select key: %w", err)
	}
	if len(k.Correct) == 0 {
		return 0, nil
	}
	selected, ok := parseIndexSet(answer)
	if !ok {
		return 0, nil
	}

	correct := make(map[int]bool, len(k.Correct))
	for _, idx := range k.Correct {
		correct[idx] = true
	}

	match, incorrect := 0, 0
	seen := make(map[int]bool, len(selected))
	for _, idx := range selected {
		if seen[idx] {
			continue
		}
		seen[idx] = true
		if correct[idx] {
			match++
		} else {
			incorrect++
		}
	}

	earned := float64(match-incorrect) / float64(len(k.Correct)) * points
	if earned < 0 {
		return 0, nil
	}
	return earned, nil
}

// scoreFreeText never awards points automatically; the model answer is
// advisory for the manual reviewer only.
func scoreFreeText(_, _ json.RawMessage, _ float64) (float64, error) {
	return 0, nil
}

// scoreMatching is all-or-nothing: every pair's left must map to exactly its
// right, aligned by pair index.
func scoreMatching(key, answer json.RawMessage, points float64) (float64, error) {
	var k MatchingKey
	if err := json.Unmarshal(key, &k); err != nil {
		return 0, fmt.Errorf("matching key: %w", err)
	}
	var submitted []string
	if err := json.Unmarshal(answer, &submitted); err != nil {
		return 0, nil
	}
	if len(submitted) != len(k.Pairs) || len(k.Pairs) == 0 {
		return 0, nil
	}
	for i, pair := range k.Pairs {
		if submitted[i] != pair.Right {
			return 0, nil
		}
	}
	return points, nil
}

// scoreOrderedList is all-or-nothing: the submitted sequence must be
// element-wise identical to the key.
func scoreOrderedList(key, answer json.RawMessage, points float64) (float64, error) {
	var k OrderedListKey
	if err := json.Unmarshal(key, &k); err != nil {
		return 0, fmt.Errorf("ordered_list key: %w", err)
	}
	var submitted []string
	if err := json.Unmarshal(answer, &submitted); err != nil {
		return 0, nil
	}
	if len(submitted) != len(k.Items) || len(k.Items) == 0 {
		return 0, nil
	}
	for i, item := range k.Items {
		if submitted[i] != item {
			return 0, nil
		}
	}
	return points, nil
}

// scoreMatrix awards partial credit per correct row, rounded to one decimal.
func scoreMatrix(key, answer json.RawMessage, points float64) (float64, error) {
	var k MatrixKey
	if err := json.Unmarshal(key, &k); err != nil {
		return 0, fmt.Errorf("matrix key: %w", err)
	}
	if len(k.Rows) == 0 {
		return 0, nil
	}
	submitted, ok := parseIndexMap(answer)
	if !ok {
		return 0, nil
	}

	correctRows := 0
	for row := range k.Rows {
		want, keyed := k.Correct[fmt.Sprintf("%d", row)]
		if !keyed {
			continue
		}
		if got, answered := submitted[row]; answered && got == want {
			correctRows++
		}
	}

	earned := float64(correctRows) / float64(len(k.Rows)) * points
	return math.Round(earned*10) / 10, nil
}
