package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jinzhu/copier"
	"github.com/karvel/traindesk/internal/dto"
	"github.com/karvel/traindesk/internal/model"
	"github.com/karvel/traindesk/internal/repository"
	"github.com/karvel/traindesk/internal/scoring"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SubmissionService scores incoming attempts and reconciles them into the
// submissions and records stores.
type SubmissionService interface {
	Submit(ctx context.Context, testID uint, req dto.SubmissionCreateDTO) (*dto.SubmissionResponseDTO, error)
	AllowRetake(ctx context.Context, submissionID uint) (*dto.SubmissionResponseDTO, error)
	UpdateScore(ctx context.Context, submissionID uint, score int) (*dto.SubmissionResponseDTO, error)
	Delete(ctx context.Context, submissionID uint) error
	GetByID(submissionID uint) (*dto.SubmissionDetailDTO, error)
	ListByTrainee(trainee string) ([]dto.SubmissionResponseDTO, error)
	ListByTest(testID uint) ([]dto.SubmissionResponseDTO, error)
}

type submissionService struct {
	testRepo       repository.TestRepository
	submissionRepo repository.SubmissionRepository
	recordRepo     repository.RecordRepository
	sessionRepo    repository.SessionRepository
	recordSvc      RecordService
	cycleSvc       CycleService
	syncSvc        SyncService
	db             *gorm.DB
}

func NewSubmissionService(
	testRepo repository.TestRepository,
	submissionRepo repository.SubmissionRepository,
	recordRepo repository.RecordRepository,
	sessionRepo repository.SessionRepository,
	recordSvc RecordService,
	cycleSvc CycleService,
	syncSvc SyncService,
	db *gorm.DB,
) SubmissionService {
	return &submissionService{
		testRepo:       testRepo,
		submissionRepo: submissionRepo,
		recordRepo:     recordRepo,
		sessionRepo:    sessionRepo,
		recordSvc:      recordSvc,
		cycleSvc:       cycleSvc,
		syncSvc:        syncSvc,
		db:             db,
	}
}

// Submit scores the answer set and writes the submission plus its derived
// record. The duplicate check, the submission write, and the record upsert
// run inside one transaction; the original system relied on one writer per
// process, so the transaction is the serialization this server needs.
func (s *submissionService) Submit(ctx context.Context, testID uint, req dto.SubmissionCreateDTO) (*dto.SubmissionResponseDTO, error) {
	test, err := s.testRepo.FindByIDWithQuestions(testID)
	if err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("Submit: test not found")
		return nil, fmt.Errorf("test not found with ID %d: %w", testID, err)
	}
	if len(test.Questions) == 0 {
		return nil, fmt.Errorf("%w: test %d", ErrEmptyTest, testID)
	}

	items := make([]scoring.Item, 0, len(test.Questions))
	for _, q := range test.Questions {
		items = append(items, scoring.Item{
			Type:   scoring.QuestionType(q.Type),
			Points: q.Points,
			Key:    json.RawMessage(q.AnswerKey),
		})
	}

	result, err := scoring.Score(items, scoring.AnswerSet(req.Answers))
	if err != nil {
		log.Error().Err(err).Uint("testID", testID).Str("trainee", req.Trainee).Msg("Submit: scoring failed")
		return nil, err
	}

	status := model.SubmissionCompleted
	if result.RequiresManualReview {
		status = model.SubmissionPending
	}

	cycle, err := s.cycleSvc.Classify(req.Trainee, req.GroupID)
	if err != nil {
		return nil, err
	}
	phase := req.Phase
	if phase == "" {
		phase = model.PhaseAssessment
	}

	var sub *model.Submission
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		sub, txErr = s.reconcileAttempt(s.submissionRepo.WithTx(tx), s.recordRepo.WithTx(tx),
			testID, test, req, result, status, cycle, phase)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.markSessionCompleted(testID, req.Trainee)

	// Trainee submissions push in merge mode so concurrent writers are not
	// clobbered. The push is awaited here because the trainee is told whether
	// their score reached the mirror; a failure is non-fatal.
	synced := true
	if err := s.syncSvc.Push(ctx, []string{SyncKeySubmissions, SyncKeyRecords}, false); err != nil {
		log.Warn().Err(err).Uint("submissionID", sub.ID).Msg("Submit: cloud sync failed, local write succeeded")
		synced = false
	}

	resp := s.toResponse(sub)
	resp.Synced = synced
	return resp, nil
}

// reconcileAttempt applies the one-active-submission rule and writes the
// attempt plus its derived record through the given repositories. Submit
// hands it transaction-scoped repositories so the duplicate check and both
// writes are atomic.
func (s *submissionService) reconcileAttempt(
	subRepo repository.SubmissionRepository,
	recRepo repository.RecordRepository,
	testID uint,
	test *model.Test,
	req dto.SubmissionCreateDTO,
	result *scoring.Result,
	status, cycle, phase string,
) (*model.Submission, error) {
	answersJSON, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, fmt.Errorf("encoding answers: %w", err)
	}

	active, err := subRepo.FindActive(req.Trainee, testID)
	if err != nil {
		return nil, fmt.Errorf("checking for active submission: %w", err)
	}

	var sub *model.Submission
	switch {
	case active != nil && !req.Forced:
		return nil, ErrActiveSubmissionExists
	case active != nil:
		// Timer expiry completes the in-flight attempt in place.
		active.Answers = string(answersJSON)
		active.Score = result.Percent
		active.Status = status
		active.RequiresReview = result.RequiresManualReview
		active.SubmittedAt = time.Now()
		if err := subRepo.Update(active); err != nil {
			return nil, fmt.Errorf("completing forced submission: %w", err)
		}
		sub = active
	default:
		sub = &model.Submission{
			TestID:         testID,
			TestTitle:      test.Title,
			Trainee:        req.Trainee,
			Answers:        string(answersJSON),
			Score:          result.Percent,
			Status:         status,
			RequiresReview: result.RequiresManualReview,
			SubmittedAt:    time.Now(),
		}
		if err := subRepo.Create(sub); err != nil {
			return nil, fmt.Errorf("creating submission: %w", err)
		}
	}

	if _, err := s.recordSvc.UpsertWith(recRepo, &model.Record{
		GroupID:    req.GroupID,
		Trainee:    req.Trainee,
		Assessment: test.Title,
		Score:      result.Percent,
		Date:       time.Now(),
		Phase:      phase,
		Cycle:      cycle,
		Link:       fmt.Sprintf("/submissions/%d", sub.ID),
	}); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *submissionService) markSessionCompleted(testID uint, trainee string) {
	session, err := s.sessionRepo.FindActiveByTest(testID)
	if err != nil {
		log.Warn().Err(err).Uint("testID", testID).Msg("Submit: could not look up live session")
		return
	}
	if session == nil {
		return
	}
	if err := s.sessionRepo.MarkCompleted(session.ID, trainee); err != nil {
		log.Warn().Err(err).Str("sessionID", session.ID).Str("trainee", trainee).Msg("Submit: could not mark session completion")
	}
}

// AllowRetake archives the submission and flags it retake_allowed, keeping
// the audit trail. Any live session for the same test has the trainee's
// completion marker cleared so they can re-enter.
func (s *submissionService) AllowRetake(ctx context.Context, submissionID uint) (*dto.SubmissionResponseDTO, error) {
	sub, err := s.submissionRepo.FindByID(submissionID)
	if err != nil {
		return nil, fmt.Errorf("submission not found with ID %d: %w", submissionID, err)
	}

	sub.Archived = true
	sub.Status = model.SubmissionRetakeAllowed
	if err := s.submissionRepo.Update(sub); err != nil {
		return nil, fmt.Errorf("archiving submission: %w", err)
	}

	if err := s.sessionRepo.ClearCompletion(sub.TestID, sub.Trainee); err != nil {
		log.Warn().Err(err).Uint("testID", sub.TestID).Str("trainee", sub.Trainee).Msg("AllowRetake: could not clear session completion")
	}

	// Admin action: overwrite the mirror unconditionally.
	go func() {
		if err := s.syncSvc.Push(context.Background(), []string{SyncKeySubmissions, SyncKeySessions}, true); err != nil {
			log.Warn().Err(err).Msg("AllowRetake: remote sync push failed, local state is intact")
		}
	}()

	return s.toResponse(sub), nil
}

// UpdateScore sets a manually graded score and re-reconciles the derived
// record under the same dedup key.
func (s *submissionService) UpdateScore(ctx context.Context, submissionID uint, score int) (*dto.SubmissionResponseDTO, error) {
	sub, err := s.submissionRepo.FindByID(submissionID)
	if err != nil {
		return nil, fmt.Errorf("submission not found with ID %d: %w", submissionID, err)
	}

	sub.Score = score
	sub.Status = model.SubmissionCompleted
	if err := s.submissionRepo.Update(sub); err != nil {
		return nil, fmt.Errorf("updating submission score: %w", err)
	}

	existing, err := s.recordRepo.FindByKey(sub.Trainee, sub.TestTitle)
	if err != nil {
		return nil, fmt.Errorf("looking up derived record: %w", err)
	}
	rec := &model.Record{
		Trainee:    sub.Trainee,
		Assessment: sub.TestTitle,
		Score:      score,
		Date:       time.Now(),
		Link:       fmt.Sprintf("/submissions/%d", sub.ID),
	}
	if existing != nil {
		rec.Phase = existing.Phase
		rec.Cycle = existing.Cycle
		rec.GroupID = existing.GroupID
	}
	if _, err := s.recordSvc.UpsertWith(s.recordRepo, rec); err != nil {
		return nil, err
	}

	go func() {
		if err := s.syncSvc.Push(context.Background(), []string{SyncKeySubmissions, SyncKeyRecords}, true); err != nil {
			log.Warn().Err(err).Msg("UpdateScore: remote sync push failed, local state is intact")
		}
	}()

	return s.toResponse(sub), nil
}

func (s *submissionService) Delete(ctx context.Context, submissionID uint) error {
	if err := s.submissionRepo.Delete(submissionID); err != nil {
		return fmt.Errorf("deleting submission %d: %w", submissionID, err)
	}
	go func() {
		if err := s.syncSvc.Push(context.Background(), []string{SyncKeySubmissions}, true); err != nil {
			log.Warn().Err(err).Msg("Delete submission: remote sync push failed, local delete is intact")
		}
	}()
	return nil
}

func (s *submissionService) GetByID(submissionID uint) (*dto.SubmissionDetailDTO, error) {
	sub, err := s.submissionRepo.FindByID(submissionID)
	if err != nil {
		return nil, fmt.Errorf("submission not found with ID %d: %w", submissionID, err)
	}
	detail := dto.SubmissionDetailDTO{
		SubmissionResponseDTO: *s.toResponse(sub),
		Answers:               json.RawMessage(sub.Answers),
	}
	return &detail, nil
}

func (s *submissionService) ListByTrainee(trainee string) ([]dto.SubmissionResponseDTO, error) {
	subs, err := s.submissionRepo.FindAllByTrainee(trainee)
	if err != nil {
		return nil, fmt.Errorf("error fetching submissions for %s: %w", trainee, err)
	}
	return s.toResponses(subs), nil
}

func (s *submissionService) ListByTest(testID uint) ([]dto.SubmissionResponseDTO, error) {
	subs, err := s.submissionRepo.FindAllByTest(testID)
	if err != nil {
		return nil, fmt.Errorf("error fetching submissions for test %d: %w", testID, err)
	}
	return s.toResponses(subs), nil
}

func (s *submissionService) toResponse(sub *model.Submission) *dto.SubmissionResponseDTO {
	var resp dto.SubmissionResponseDTO
	copier.Copy(&resp, sub)
	resp.Synced = true
	return &resp
}

func (s *submissionService) toResponses(subs []model.Submission) []dto.SubmissionResponseDTO {
	dtos := make([]dto.SubmissionResponseDTO, 0, len(subs))
	for i := range subs {
		dtos = append(dtos, *s.toResponse(&subs[i]))
	}
	return dtos
}
