package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/karvel/traindesk/internal/dto"
	"github.com/karvel/traindesk/internal/model"
	"github.com/karvel/traindesk/internal/repository"
	"github.com/karvel/traindesk/internal/scoring"
	"gorm.io/gorm"
)

type memSubmissionRepo struct {
	mu   sync.Mutex
	subs map[uint]model.Submission
	next uint
}

func newMemSubmissionRepo() *memSubmissionRepo {
	return &memSubmissionRepo{subs: make(map[uint]model.Submission), next: 1}
}

func (m *memSubmissionRepo) Create(sub *model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub.ID = m.next
	m.next++
	m.subs[sub.ID] = *sub
	return nil
}

func (m *memSubmissionRepo) Update(sub *model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[sub.ID] = *sub
	return nil
}

func (m *memSubmissionRepo) Delete(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, id)
	return nil
}

func (m *memSubmissionRepo) FindByID(id uint) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &sub, nil
}

func (m *memSubmissionRepo) FindActive(trainee string, testID uint) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.subs {
		if sub.Trainee == trainee && sub.TestID == testID && !sub.Archived {
			found := sub
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memSubmissionRepo) FindAllByTrainee(trainee string) ([]model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Submission
	for _, sub := range m.subs {
		if sub.Trainee == trainee {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (m *memSubmissionRepo) FindAllByTest(testID uint) ([]model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Submission
	for _, sub := range m.subs {
		if sub.TestID == testID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (m *memSubmissionRepo) FindPendingReview() ([]model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Submission
	for _, sub := range m.subs {
		if sub.RequiresReview && sub.Status == model.SubmissionPending && !sub.Archived {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (m *memSubmissionRepo) WithTx(tx *gorm.DB) repository.SubmissionRepository { return m }

type memSessionRepo struct {
	mu      sync.Mutex
	cleared []string // trainees passed to ClearCompletion
}

func (m *memSessionRepo) Create(*model.LiveSession) error            { return nil }
func (m *memSessionRepo) Update(*model.LiveSession) error            { return nil }
func (m *memSessionRepo) FindByID(string) (*model.LiveSession, error) { return nil, gorm.ErrRecordNotFound }
func (m *memSessionRepo) FindActiveByTest(uint) (*model.LiveSession, error) { return nil, nil }
func (m *memSessionRepo) MarkCompleted(string, string) error         { return nil }

func (m *memSessionRepo) ClearCompletion(testID uint, trainee string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = append(m.cleared, trainee)
	return nil
}

type noopSync struct{}

func (noopSync) Push(ctx context.Context, keys []string, force bool) error { return nil }

func TestReconcileRejectsSecondActiveSubmission(t *testing.T) {
	subRepo := newMemSubmissionRepo()
	recRepo := newMemRecordRepo()
	svc := &submissionService{
		submissionRepo: subRepo,
		recordRepo:     recRepo,
		recordSvc:      &recordService{recordRepo: recRepo},
	}
	test := &model.Test{ID: 7, Title: "Safety Basics"}
	result := &scoring.Result{EarnedPoints: 8, MaxPoints: 10, Percent: 80}

	first, err := svc.reconcileAttempt(subRepo, recRepo, 7, test,
		dto.SubmissionCreateDTO{Trainee: "alice", Answers: map[int]json.RawMessage{0: json.RawMessage(`1`)}},
		result, model.SubmissionCompleted, CycleNewOnboard, model.PhaseAssessment)
	if err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("first attempt was not persisted")
	}

	_, err = svc.reconcileAttempt(subRepo, recRepo, 7, test,
		dto.SubmissionCreateDTO{Trainee: "alice", Answers: map[int]json.RawMessage{0: json.RawMessage(`0`)}},
		result, model.SubmissionCompleted, CycleNewOnboard, model.PhaseAssessment)
	if !errors.Is(err, ErrActiveSubmissionExists) {
		t.Fatalf("second attempt err = %v, want ErrActiveSubmissionExists", err)
	}
	if len(subRepo.subs) != 1 {
		t.Fatalf("rejected attempt left %d submissions, want 1", len(subRepo.subs))
	}

	// Archiving the active attempt reopens the pair.
	archived := subRepo.subs[first.ID]
	archived.Archived = true
	subRepo.subs[first.ID] = archived

	again, err := svc.reconcileAttempt(subRepo, recRepo, 7, test,
		dto.SubmissionCreateDTO{Trainee: "alice", Answers: map[int]json.RawMessage{0: json.RawMessage(`1`)}},
		result, model.SubmissionCompleted, CycleNewOnboard, model.PhaseAssessment)
	if err != nil {
		t.Fatalf("attempt after archive: %v", err)
	}
	if again.ID == first.ID {
		t.Fatal("attempt after archive reused the archived row")
	}

	// Other trainees are unaffected by alice's active attempt.
	if _, err := svc.reconcileAttempt(subRepo, recRepo, 7, test,
		dto.SubmissionCreateDTO{Trainee: "bob", Answers: map[int]json.RawMessage{0: json.RawMessage(`1`)}},
		result, model.SubmissionCompleted, CycleNewOnboard, model.PhaseAssessment); err != nil {
		t.Fatalf("bob's attempt: %v", err)
	}
}

func TestReconcileForcedCompletesInPlace(t *testing.T) {
	subRepo := newMemSubmissionRepo()
	recRepo := newMemRecordRepo()
	svc := &submissionService{
		submissionRepo: subRepo,
		recordRepo:     recRepo,
		recordSvc:      &recordService{recordRepo: recRepo},
	}
	test := &model.Test{ID: 4, Title: "Final Exam"}

	first, err := svc.reconcileAttempt(subRepo, recRepo, 4, test,
		dto.SubmissionCreateDTO{Trainee: "carol", Answers: map[int]json.RawMessage{0: json.RawMessage(`2`)}},
		&scoring.Result{Percent: 40}, model.SubmissionCompleted, CycleNewOnboard, model.PhaseFinalVetting)
	if err != nil {
		t.Fatalf("first attempt: %v", err)
	}

	// Timer expiry resubmits with force: the in-flight attempt is completed
	// in place, no new row appears.
	forced, err := svc.reconcileAttempt(subRepo, recRepo, 4, test,
		dto.SubmissionCreateDTO{Trainee: "carol", Answers: map[int]json.RawMessage{0: json.RawMessage(`1`)}, Forced: true},
		&scoring.Result{Percent: 95}, model.SubmissionCompleted, CycleNewOnboard, model.PhaseFinalVetting)
	if err != nil {
		t.Fatalf("forced attempt: %v", err)
	}
	if forced.ID != first.ID {
		t.Fatalf("forced submit created a new row: %d vs %d", forced.ID, first.ID)
	}
	if len(subRepo.subs) != 1 {
		t.Fatalf("forced submit left %d submissions, want 1", len(subRepo.subs))
	}
	if got := subRepo.subs[first.ID]; got.Score != 95 || got.Answers != `{"0":1}` {
		t.Fatalf("forced submit did not overwrite the attempt: %+v", got)
	}

	// The derived record reflects the completed attempt under one dedup key.
	rec, err := recRepo.FindByKey("carol", "Final Exam")
	if err != nil {
		t.Fatalf("FindByKey: %v", err)
	}
	if rec == nil || rec.Score != 95 {
		t.Fatalf("derived record = %+v, want score 95", rec)
	}
	if len(recRepo.records) != 1 {
		t.Fatalf("expected one derived record, got %d", len(recRepo.records))
	}
}

func TestAllowRetakeArchivesAndClearsCompletion(t *testing.T) {
	subRepo := newMemSubmissionRepo()
	sessRepo := &memSessionRepo{}
	recRepo := newMemRecordRepo()
	svc := &submissionService{
		submissionRepo: subRepo,
		recordRepo:     recRepo,
		sessionRepo:    sessRepo,
		recordSvc:      &recordService{recordRepo: recRepo},
		syncSvc:        noopSync{},
	}

	seed := &model.Submission{
		TestID:      7,
		TestTitle:   "Safety Basics",
		Trainee:     "alice",
		Answers:     `{"0":1}`,
		Score:       85,
		Status:      model.SubmissionCompleted,
		SubmittedAt: time.Now(),
	}
	if err := subRepo.Create(seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp, err := svc.AllowRetake(context.Background(), seed.ID)
	if err != nil {
		t.Fatalf("AllowRetake: %v", err)
	}
	if resp.Status != model.SubmissionRetakeAllowed {
		t.Fatalf("status = %q, want %q", resp.Status, model.SubmissionRetakeAllowed)
	}

	stored, err := subRepo.FindByID(seed.ID)
	if err != nil {
		t.Fatalf("FindByID after retake: %v", err)
	}
	if !stored.Archived {
		t.Fatal("submission not archived after retake grant")
	}
	if stored.Status != model.SubmissionRetakeAllowed {
		t.Fatalf("stored status = %q, want %q", stored.Status, model.SubmissionRetakeAllowed)
	}

	sessRepo.mu.Lock()
	cleared := append([]string(nil), sessRepo.cleared...)
	sessRepo.mu.Unlock()
	if len(cleared) != 1 || cleared[0] != "alice" {
		t.Fatalf("completion markers cleared for %v, want [alice]", cleared)
	}

	// Archived attempt no longer counts as active, so a fresh one is allowed.
	active, err := subRepo.FindActive("alice", 7)
	if err != nil {
		t.Fatalf("FindActive: %v", err)
	}
	if active != nil {
		t.Fatalf("archived submission still reported active: %+v", active)
	}
}

func TestAllowRetakeUnknownSubmission(t *testing.T) {
	svc := &submissionService{
		submissionRepo: newMemSubmissionRepo(),
		sessionRepo:    &memSessionRepo{},
		syncSvc:        noopSync{},
	}
	if _, err := svc.AllowRetake(context.Background(), 404); err == nil {
		t.Fatal("expected error for unknown submission")
	}
}

func TestUpdateScoreReconcilesRecord(t *testing.T) {
	subRepo := newMemSubmissionRepo()
	recRepo := newMemRecordRepo()
	svc := &submissionService{
		submissionRepo: subRepo,
		recordRepo:     recRepo,
		sessionRepo:    &memSessionRepo{},
		recordSvc:      &recordService{recordRepo: recRepo},
		syncSvc:        noopSync{},
	}

	seed := &model.Submission{
		TestID:         3,
		TestTitle:      "Incident Writeup",
		Trainee:        "bob",
		Answers:        `{"0":"my report"}`,
		Score:          0,
		Status:         model.SubmissionPending,
		RequiresReview: true,
		SubmittedAt:    time.Now(),
	}
	if err := subRepo.Create(seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Existing derived record carries group/phase/cycle the manual grade must keep.
	prior := &model.Record{
		GroupID:    "2024-07",
		Trainee:    "bob",
		Assessment: "Incident Writeup",
		Score:      0,
		Phase:      model.PhaseFirstVetting,
		Cycle:      "Retrain 1",
	}
	if _, err := (&recordService{recordRepo: recRepo}).UpsertWith(recRepo, prior); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	resp, err := svc.UpdateScore(context.Background(), seed.ID, 72)
	if err != nil {
		t.Fatalf("UpdateScore: %v", err)
	}
	if resp.Score != 72 {
		t.Fatalf("response score = %d, want 72", resp.Score)
	}
	if resp.Status != model.SubmissionCompleted {
		t.Fatalf("response status = %q, want %q", resp.Status, model.SubmissionCompleted)
	}

	rec, err := recRepo.FindByKey("bob", "Incident Writeup")
	if err != nil {
		t.Fatalf("FindByKey: %v", err)
	}
	if rec == nil {
		t.Fatal("derived record missing after manual grade")
	}
	if rec.ID != prior.ID {
		t.Fatalf("record id changed across manual grade: %q vs %q", rec.ID, prior.ID)
	}
	if rec.Score != 72 {
		t.Fatalf("record score = %d, want 72", rec.Score)
	}
	if rec.Phase != model.PhaseFirstVetting || rec.Cycle != "Retrain 1" || rec.GroupID != "2024-07" {
		t.Fatalf("manual grade lost classification fields: %+v", rec)
	}
	if len(recRepo.records) != 1 {
		t.Fatalf("expected one derived record, got %d", len(recRepo.records))
	}
}

func TestUpdateScoreWithoutPriorRecordInserts(t *testing.T) {
	subRepo := newMemSubmissionRepo()
	recRepo := newMemRecordRepo()
	svc := &submissionService{
		submissionRepo: subRepo,
		recordRepo:     recRepo,
		sessionRepo:    &memSessionRepo{},
		recordSvc:      &recordService{recordRepo: recRepo},
		syncSvc:        noopSync{},
	}

	seed := &model.Submission{
		TestID:      9,
		TestTitle:   "Night Ops",
		Trainee:     "carol",
		Answers:     `{}`,
		Status:      model.SubmissionPending,
		SubmittedAt: time.Now(),
	}
	if err := subRepo.Create(seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.UpdateScore(context.Background(), seed.ID, 55); err != nil {
		t.Fatalf("UpdateScore: %v", err)
	}

	rec, err := recRepo.FindByKey("carol", "Night Ops")
	if err != nil {
		t.Fatalf("FindByKey: %v", err)
	}
	if rec == nil || rec.Score != 55 {
		t.Fatalf("expected freshly inserted record with score 55, got %+v", rec)
	}
}
