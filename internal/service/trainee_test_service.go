package service

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/karvel/traindesk/internal/dto"
	"github.com/karvel/traindesk/internal/model"
	"github.com/karvel/traindesk/internal/repository"
	"github.com/karvel/traindesk/internal/scoring"
	"github.com/rs/zerolog/log"
)

// TraineeTestService serves the taking flow: listing tests and handing out a
// test with its answer keys stripped.
type TraineeTestService interface {
	ListTests() ([]dto.TestSummaryDTO, error)
	GetTestForTaking(testID uint) (*dto.TakeTestDTO, error)
}

type traineeTestService struct {
	testRepo repository.TestRepository
}

func NewTraineeTestService(testRepo repository.TestRepository) TraineeTestService {
	return &traineeTestService{testRepo: testRepo}
}

func (s *traineeTestService) ListTests() ([]dto.TestSummaryDTO, error) {
	testsWithCount, err := s.testRepo.FindAllWithQuestionCount()
	if err != nil {
		return nil, fmt.Errorf("error fetching tests: %w", err)
	}
	dtos := make([]dto.TestSummaryDTO, 0, len(testsWithCount))
	for _, twc := range testsWithCount {
		dtos = append(dtos, dto.TestSummaryDTO{
			ID:            twc.Test.ID,
			Title:         twc.Test.Title,
			Type:          twc.Test.Type,
			QuestionCount: twc.QuestionCount,
			CreatedAt:     twc.Test.CreatedAt,
		})
	}
	return dtos, nil
}

// GetTestForTaking returns the trainee view of a test. Answer keys never
// leave the server; option labels, matching prompts, and matrix axes are
// lifted out of the key instead. Ordered-list items are always shuffled for
// display since showing them in key order would give the answer away.
func (s *traineeTestService) GetTestForTaking(testID uint) (*dto.TakeTestDTO, error) {
	test, err := s.testRepo.FindByIDWithQuestions(testID)
	if err != nil {
		log.Warn().Err(err).Uint("testID", testID).Msg("GetTestForTaking: test not found")
		return nil, fmt.Errorf("test not found with ID %d: %w", testID, err)
	}
	if len(test.Questions) == 0 {
		return nil, fmt.Errorf("%w: test %d", ErrEmptyTest, testID)
	}

	out := &dto.TakeTestDTO{
		ID:          test.ID,
		Title:       test.Title,
		Type:        test.Type,
		DurationMin: test.DurationMin,
	}

	// Index is assigned from the question order before any shuffling so the
	// answers map keys line up with scoring no matter how the questions are
	// displayed.
	out.Questions = make([]dto.TakeQuestionDTO, 0, len(test.Questions))
	for i, q := range test.Questions {
		tq, err := stripKey(q)
		if err != nil {
			log.Error().Err(err).Uint("questionID", q.ID).Msg("GetTestForTaking: malformed answer key")
			return nil, fmt.Errorf("question %d has a malformed answer key: %w", q.OrderInTest, err)
		}
		tq.Index = i
		out.Questions = append(out.Questions, tq)
	}
	if test.Shuffle {
		rand.Shuffle(len(out.Questions), func(i, j int) {
			out.Questions[i], out.Questions[j] = out.Questions[j], out.Questions[i]
		})
	}
	return out, nil
}

func stripKey(q model.Question) (dto.TakeQuestionDTO, error) {
	tq := dto.TakeQuestionDTO{
		Text:        q.Text,
		Type:        q.Type,
		Points:      q.Points,
		OrderInTest: q.OrderInTest,
	}
	raw := json.RawMessage(q.AnswerKey)

	switch scoring.QuestionType(q.Type) {
	case scoring.SingleChoice:
		var key scoring.SingleChoiceKey
		if err := json.Unmarshal(raw, &key); err != nil {
			return tq, err
		}
		tq.Options = key.Options
	case scoring.MultiSelect:
		var key scoring.MultiSelectKey
		if err := json.Unmarshal(raw, &key); err != nil {
			return tq, err
		}
		tq.Options = key.Options
	case scoring.FreeText:
		// Nothing to expose.
	case scoring.Matching:
		var key scoring.MatchingKey
		if err := json.Unmarshal(raw, &key); err != nil {
			return tq, err
		}
		rights := make([]string, 0, len(key.Pairs))
		for _, p := range key.Pairs {
			tq.Lefts = append(tq.Lefts, p.Left)
			rights = append(rights, p.Right)
		}
		rand.Shuffle(len(rights), func(i, j int) { rights[i], rights[j] = rights[j], rights[i] })
		tq.Options = rights
	case scoring.OrderedList:
		var key scoring.OrderedListKey
		if err := json.Unmarshal(raw, &key); err != nil {
			return tq, err
		}
		items := make([]string, len(key.Items))
		copy(items, key.Items)
		rand.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
		tq.Items = items
	case scoring.Matrix:
		var key scoring.MatrixKey
		if err := json.Unmarshal(raw, &key); err != nil {
			return tq, err
		}
		tq.Rows = key.Rows
		tq.Cols = key.Cols
	default:
		return tq, fmt.Errorf("%w: %q", scoring.ErrUnknownQuestionType, q.Type)
	}
	return tq, nil
}
