package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/karvel/traindesk/internal/dto"
	"github.com/karvel/traindesk/internal/model"
	"github.com/karvel/traindesk/internal/repository"
	"github.com/karvel/traindesk/internal/scoring"
	"github.com/rs/zerolog/log"
)

// AdminTestService is the test builder: create, update, list, delete.
type AdminTestService interface {
	CreateTest(req dto.TestCreateDTO) (*dto.TestResponseDTO, error)
	UpdateTest(testID uint, req dto.TestUpdateDTO) (*dto.TestResponseDTO, error)
	DeleteTest(testID uint) error
	GetTest(testID uint) (*dto.TestResponseDTO, error)
	ListTests() ([]dto.TestSummaryDTO, error)
}

type adminTestService struct {
	testRepo repository.TestRepository
	syncSvc  SyncService
}

func NewAdminTestService(testRepo repository.TestRepository, syncSvc SyncService) AdminTestService {
	return &adminTestService{testRepo: testRepo, syncSvc: syncSvc}
}

// buildQuestions validates every question against its declared type and
// returns the models to persist. A key that does not match its type is
// rejected here so the scoring engine never sees a malformed definition.
func buildQuestions(questions []dto.QuestionCreateDTO) ([]model.Question, error) {
	orderSeen := make(map[int]bool, len(questions))
	out := make([]model.Question, 0, len(questions))

	for _, qDto := range questions {
		if orderSeen[qDto.OrderInTest] {
			return nil, fmt.Errorf("duplicate order_in_test %d", qDto.OrderInTest)
		}
		orderSeen[qDto.OrderInTest] = true

		if err := scoring.ValidateKey(scoring.QuestionType(qDto.Type), qDto.AnswerKey); err != nil {
			return nil, fmt.Errorf("question %d: %w", qDto.OrderInTest, err)
		}

		points := qDto.Points
		if points <= 0 {
			points = 1
		}
		out = append(out, model.Question{
			Text:        qDto.Text,
			Type:        qDto.Type,
			Points:      points,
			OrderInTest: qDto.OrderInTest,
			AnswerKey:   string(qDto.AnswerKey),
		})
	}
	return out, nil
}

func (s *adminTestService) CreateTest(req dto.TestCreateDTO) (*dto.TestResponseDTO, error) {
	testType := req.Type
	if testType == "" {
		testType = model.TestTypeStandard
	}
	if testType == model.TestTypeVetting && req.DurationMin <= 0 {
		return nil, fmt.Errorf("vetting tests require a positive duration, got %d", req.DurationMin)
	}

	questions, err := buildQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	testModel := model.Test{
		Title:       req.Title,
		Type:        testType,
		DurationMin: req.DurationMin,
		Shuffle:     req.Shuffle,
		Questions:   questions,
	}

	if err := s.testRepo.Create(&testModel); err != nil {
		log.Error().Err(err).Str("title", req.Title).Msg("Failed to create test in database")
		return nil, fmt.Errorf("database error creating test: %w", err)
	}

	s.pushTests("CreateTest")
	return s.GetTest(testModel.ID)
}

func (s *adminTestService) UpdateTest(testID uint, req dto.TestUpdateDTO) (*dto.TestResponseDTO, error) {
	test, err := s.testRepo.FindByID(testID)
	if err != nil {
		return nil, fmt.Errorf("test not found with ID %d: %w", testID, err)
	}

	testType := req.Type
	if testType == "" {
		testType = model.TestTypeStandard
	}
	if testType == model.TestTypeVetting && req.DurationMin <= 0 {
		return nil, fmt.Errorf("vetting tests require a positive duration, got %d", req.DurationMin)
	}

	questions, err := buildQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	test.Title = req.Title
	test.Type = testType
	test.DurationMin = req.DurationMin
	test.Shuffle = req.Shuffle
	test.Questions = nil
	if err := s.testRepo.Update(test); err != nil {
		return nil, fmt.Errorf("updating test: %w", err)
	}
	if err := s.testRepo.ReplaceQuestions(testID, questions); err != nil {
		return nil, fmt.Errorf("replacing questions: %w", err)
	}

	s.pushTests("UpdateTest")
	return s.GetTest(testID)
}

// DeleteTest removes the definition only. Historical submissions referencing
// it stay in place for the records screens.
func (s *adminTestService) DeleteTest(testID uint) error {
	if err := s.testRepo.Delete(testID); err != nil {
		return fmt.Errorf("deleting test %d: %w", testID, err)
	}
	s.pushTests("DeleteTest")
	return nil
}

func (s *adminTestService) GetTest(testID uint) (*dto.TestResponseDTO, error) {
	test, err := s.testRepo.FindByIDWithQuestions(testID)
	if err != nil {
		return nil, fmt.Errorf("test not found with ID %d: %w", testID, err)
	}

	var resp dto.TestResponseDTO
	if err := copier.Copy(&resp, test); err != nil {
		log.Error().Err(err).Msg("Failed to copy Test model to TestResponseDTO")
		return nil, fmt.Errorf("error preparing response data: %w", err)
	}
	for i, q := range test.Questions {
		resp.Questions[i].AnswerKey = json.RawMessage(q.AnswerKey)
	}
	return &resp, nil
}

func (s *adminTestService) ListTests() ([]dto.TestSummaryDTO, error) {
	testsWithCount, err := s.testRepo.FindAllWithQuestionCount()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list tests with question count")
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

func (s *adminTestService) pushTests(op string) {
	go func() {
		if err := s.syncSvc.Push(context.Background(), []string{SyncKeyTests}, true); err != nil {
			log.Warn().Err(err).Str("op", op).Msg("Remote sync push failed, local state is intact")
		}
	}()
}
