package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/jinzhu/copier"
	"github.com/karvel/traindesk/config"
	"github.com/karvel/traindesk/internal/dto"
	"github.com/karvel/traindesk/internal/repository"
	"github.com/karvel/traindesk/internal/scoring"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// ReviewService backs the manual grading queue for free-text answers.
// DraftFeedback asks the LLM for a suggested note the grader can edit or
// discard; the draft never touches the stored score. Free-text questions
// are only ever scored by a human through SubmissionService.UpdateScore.
type ReviewService interface {
	ListPending() ([]dto.SubmissionResponseDTO, error)
	DraftFeedback(ctx context.Context, submissionID uint, questionIndex int) (*dto.ReviewDraftDTO, error)
}

type reviewService struct {
	submissionRepo repository.SubmissionRepository
	testRepo       repository.TestRepository
	client         *genai.GenerativeModel
}

func NewReviewService(cfg *config.Config, submissionRepo repository.SubmissionRepository, testRepo repository.TestRepository) (ReviewService, error) {
	s := &reviewService{submissionRepo: submissionRepo, testRepo: testRepo}
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Review draft feedback will be unavailable.")
		return s, nil
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	s.client = client.GenerativeModel("gemini-1.5-flash")
	return s, nil
}

func (s *reviewService) ListPending() ([]dto.SubmissionResponseDTO, error) {
	subs, err := s.submissionRepo.FindPendingReview()
	if err != nil {
		return nil, fmt.Errorf("error fetching review queue: %w", err)
	}
	dtos := make([]dto.SubmissionResponseDTO, 0, len(subs))
	for i := range subs {
		var d dto.SubmissionResponseDTO
		copier.Copy(&d, &subs[i])
		d.Synced = true
		dtos = append(dtos, d)
	}
	return dtos, nil
}

func (s *reviewService) DraftFeedback(ctx context.Context, submissionID uint, questionIndex int) (*dto.ReviewDraftDTO, error) {
	if s.client == nil {
		return nil, fmt.Errorf("draft feedback is unavailable: no API key configured")
	}

	sub, err := s.submissionRepo.FindByID(submissionID)
	if err != nil {
		return nil, fmt.Errorf("submission not found with ID %d: %w", submissionID, err)
	}

	test, err := s.testRepo.FindByIDWithQuestions(sub.TestID)
	if err != nil {
		return nil, fmt.Errorf("test not found with ID %d: %w", sub.TestID, err)
	}
	if questionIndex < 0 || questionIndex >= len(test.Questions) {
		return nil, fmt.Errorf("question index %d out of range for test %d", questionIndex, sub.TestID)
	}
	question := test.Questions[questionIndex]
	if scoring.QuestionType(question.Type) != scoring.FreeText {
		return nil, fmt.Errorf("question %d is %s, drafts apply to free_text only", questionIndex, question.Type)
	}

	var answers map[int]json.RawMessage
	if err := json.Unmarshal([]byte(sub.Answers), &answers); err != nil {
		return nil, fmt.Errorf("decoding stored answers: %w", err)
	}
	var answerText string
	if raw, ok := answers[questionIndex]; ok {
		json.Unmarshal(raw, &answerText)
	}
	if answerText == "" {
		return nil, fmt.Errorf("question %d was not answered", questionIndex)
	}

	var key scoring.FreeTextKey
	json.Unmarshal(json.RawMessage(question.AnswerKey), &key)

	prompt := fmt.Sprintf(
		"You are assisting a training instructor grading a written answer.\n"+
			"Question: %s\nModel answer (advisory): %s\nTrainee answer: %s\n"+
			"Write a short feedback note (2-4 sentences) the instructor can edit. Do not assign a score.",
		question.Text, key.ModelAnswer, answerText,
	)

	resp, err := s.client.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Error().Err(err).Uint("submissionID", submissionID).Msg("DraftFeedback: Gemini request failed")
		return nil, fmt.Errorf("generating draft feedback: %w", err)
	}

	draft := ""
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if text, ok := part.(genai.Text); ok {
				draft += string(text)
			}
		}
	}
	if draft == "" {
		return nil, fmt.Errorf("empty draft from model")
	}

	return &dto.ReviewDraftDTO{
		SubmissionID:  submissionID,
		QuestionIndex: questionIndex,
		Draft:         draft,
	}, nil
}
