package service

import (
	"testing"
	"time"

	"github.com/karvel/traindesk/internal/model"
	"github.com/karvel/traindesk/internal/repository"
	"gorm.io/gorm"
)

// memRecordRepo is an in-memory RecordRepository keyed by record id.
type memRecordRepo struct {
	records map[string]model.Record
}

func newMemRecordRepo() *memRecordRepo {
	return &memRecordRepo{records: make(map[string]model.Record)}
}

func (m *memRecordRepo) Save(rec *model.Record) error {
	m.records[rec.ID] = *rec
	return nil
}

func (m *memRecordRepo) Delete(id string) error {
	delete(m.records, id)
	return nil
}

func (m *memRecordRepo) FindByKey(trainee, assessment string) (*model.Record, error) {
	for _, rec := range m.records {
		if rec.Trainee == trainee && rec.Assessment == assessment {
			found := rec
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memRecordRepo) FindByCaptureKey(trainee, assessment, groupID, phase string) (*model.Record, error) {
	for _, rec := range m.records {
		if rec.Trainee == trainee && rec.Assessment == assessment && rec.GroupID == groupID && rec.Phase == phase {
			found := rec
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memRecordRepo) FindAll(filter repository.RecordFilter) ([]model.Record, error) {
	var out []model.Record
	for _, rec := range m.records {
		if filter.Trainee != "" && rec.Trainee != filter.Trainee {
			continue
		}
		if filter.GroupID != "" && rec.GroupID != filter.GroupID {
			continue
		}
		if filter.Phase != "" && rec.Phase != filter.Phase {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *memRecordRepo) WithTx(tx *gorm.DB) repository.RecordRepository { return m }

func TestUpsertInsertsWithFreshID(t *testing.T) {
	repo := newMemRecordRepo()
	svc := &recordService{recordRepo: repo}

	rec, err := svc.UpsertWith(repo, &model.Record{
		GroupID:    "2024-07",
		Trainee:    "alice",
		Assessment: "Safety Basics",
		Score:      80,
		Phase:      model.PhaseAssessment,
		Cycle:      CycleNewOnboard,
	})
	if err != nil {
		t.Fatalf("UpsertWith: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("expected a generated id on insert")
	}
	if rec.Date.IsZero() {
		t.Fatal("expected insert to stamp a date")
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(repo.records))
	}
}

func TestUpsertOverwritesPreservingID(t *testing.T) {
	repo := newMemRecordRepo()
	svc := &recordService{recordRepo: repo}

	first, err := svc.UpsertWith(repo, &model.Record{
		GroupID:    "2024-07",
		Trainee:    "alice",
		Assessment: "Safety Basics",
		Score:      60,
		Phase:      model.PhaseAssessment,
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second, err := svc.UpsertWith(repo, &model.Record{
		GroupID:    "2024-07",
		Trainee:    "alice",
		Assessment: "Safety Basics",
		Score:      90,
		Date:       time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC),
		Phase:      model.PhaseFirstVetting,
		Cycle:      "Retrain 1",
		Link:       "/submissions/42",
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("id changed across upserts: %q vs %q", first.ID, second.ID)
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected a single record after re-upsert, got %d", len(repo.records))
	}
	stored := repo.records[first.ID]
	if stored.Score != 90 || stored.Phase != model.PhaseFirstVetting || stored.Cycle != "Retrain 1" {
		t.Fatalf("overwrite did not apply: %+v", stored)
	}
	if stored.Link != "/submissions/42" {
		t.Fatalf("link not updated: %q", stored.Link)
	}
}

func TestUpsertKeepsGroupWhenUpdateOmitsIt(t *testing.T) {
	repo := newMemRecordRepo()
	svc := &recordService{recordRepo: repo}

	first, err := svc.UpsertWith(repo, &model.Record{
		GroupID:    "2024-07",
		Trainee:    "bob",
		Assessment: "Radio Procedures",
		Score:      70,
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	if _, err := svc.UpsertWith(repo, &model.Record{
		Trainee:    "bob",
		Assessment: "Radio Procedures",
		Score:      75,
	}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if got := repo.records[first.ID].GroupID; got != "2024-07" {
		t.Fatalf("empty group overwrote stored group: %q", got)
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	repo := newMemRecordRepo()
	svc := &recordService{recordRepo: repo}

	input := func() *model.Record {
		return &model.Record{
			GroupID:    "2024-07",
			Trainee:    "carol",
			Assessment: "Final Exam",
			Score:      100,
			Date:       time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
			Phase:      model.PhaseFinalVetting,
			Cycle:      CycleNewOnboard,
		}
	}

	a, err := svc.UpsertWith(repo, input())
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	b, err := svc.UpsertWith(repo, input())
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if a.ID != b.ID {
		t.Fatalf("idempotent upsert changed id: %q vs %q", a.ID, b.ID)
	}
	if *a != *b {
		t.Fatalf("repeated upsert diverged:\n first %+v\nsecond %+v", a, b)
	}
}

func TestRecordsForDistinctTraineesStaySeparate(t *testing.T) {
	repo := newMemRecordRepo()
	svc := &recordService{recordRepo: repo}

	for _, trainee := range []string{"alice", "bob"} {
		if _, err := svc.UpsertWith(repo, &model.Record{
			GroupID:    "2024-07",
			Trainee:    trainee,
			Assessment: "Safety Basics",
			Score:      50,
		}); err != nil {
			t.Fatalf("upsert %s: %v", trainee, err)
		}
	}

	if len(repo.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(repo.records))
	}
}
