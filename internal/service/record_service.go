package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/karvel/traindesk/internal/dto"
	"github.com/karvel/traindesk/internal/model"
	"github.com/karvel/traindesk/internal/repository"
	"github.com/rs/zerolog/log"
)

// RecordService maintains the normalized score records used for cross-test
// reporting. Records are derived summaries: upserting the same final state
// twice yields the same stored state, and an update never changes the id the
// first insert minted.
type RecordService interface {
	// UpsertWith reconciles one record through the given repository. Pass a
	// transaction-scoped repository to make the read-check-write atomic.
	UpsertWith(repo repository.RecordRepository, rec *model.Record) (*model.Record, error)
	CaptureManual(req dto.RecordCaptureDTO) (*dto.RecordResponseDTO, error)
	List(filter repository.RecordFilter) ([]dto.RecordResponseDTO, error)
	Delete(id string) error
}

type recordService struct {
	recordRepo repository.RecordRepository
	cycleSvc   CycleService
	syncSvc    SyncService
}

func NewRecordService(recordRepo repository.RecordRepository, cycleSvc CycleService, syncSvc SyncService) RecordService {
	return &recordService{recordRepo: recordRepo, cycleSvc: cycleSvc, syncSvc: syncSvc}
}

func (s *recordService) UpsertWith(repo repository.RecordRepository, rec *model.Record) (*model.Record, error) {
	existing, err := repo.FindByKey(rec.Trainee, rec.Assessment)
	if err != nil {
		return nil, fmt.Errorf("looking up record for %s/%s: %w", rec.Trainee, rec.Assessment, err)
	}

	if existing == nil {
		rec.ID = uuid.NewString()
		if rec.Date.IsZero() {
			rec.Date = time.Now()
		}
		if err := repo.Save(rec); err != nil {
			return nil, fmt.Errorf("inserting record: %w", err)
		}
		return rec, nil
	}

	// Overwrite in place, preserving the original id.
	existing.Score = rec.Score
	existing.Date = rec.Date
	existing.Cycle = rec.Cycle
	existing.Phase = rec.Phase
	existing.Link = rec.Link
	if rec.GroupID != "" {
		existing.GroupID = rec.GroupID
	}
	if err := repo.Save(existing); err != nil {
		return nil, fmt.Errorf("updating record: %w", err)
	}
	return existing, nil
}

func (s *recordService) CaptureManual(req dto.RecordCaptureDTO) (*dto.RecordResponseDTO, error) {
	cycle, err := s.cycleSvc.Classify(req.Trainee, req.GroupID)
	if err != nil {
		return nil, err
	}

	existing, err := s.recordRepo.FindByCaptureKey(req.Trainee, req.Assessment, req.GroupID, req.Phase)
	if err != nil {
		return nil, fmt.Errorf("looking up captured record: %w", err)
	}

	rec := existing
	if rec == nil {
		rec = &model.Record{
			ID:         uuid.NewString(),
			GroupID:    req.GroupID,
			Trainee:    req.Trainee,
			Assessment: req.Assessment,
			Phase:      req.Phase,
		}
	}
	rec.Score = req.Score
	rec.Date = time.Now()
	rec.Cycle = cycle
	rec.Link = req.Link

	if err := s.recordRepo.Save(rec); err != nil {
		log.Error().Err(err).Str("trainee", req.Trainee).Str("assessment", req.Assessment).Msg("CaptureManual: failed to save record")
		return nil, fmt.Errorf("saving record: %w", err)
	}

	go func() {
		if err := s.syncSvc.Push(context.Background(), []string{SyncKeyRecords}, true); err != nil {
			log.Warn().Err(err).Msg("CaptureManual: remote sync push failed, local record is intact")
		}
	}()

	var resp dto.RecordResponseDTO
	copier.Copy(&resp, rec)
	return &resp, nil
}

func (s *recordService) List(filter repository.RecordFilter) ([]dto.RecordResponseDTO, error) {
	recs, err := s.recordRepo.FindAll(filter)
	if err != nil {
		return nil, fmt.Errorf("error fetching records: %w", err)
	}
	dtos := make([]dto.RecordResponseDTO, 0, len(recs))
	for _, rec := range recs {
		var d dto.RecordResponseDTO
		copier.Copy(&d, &rec)
		dtos = append(dtos, d)
	}
	return dtos, nil
}

func (s *recordService) Delete(id string) error {
	if err := s.recordRepo.Delete(id); err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}
	go func() {
		if err := s.syncSvc.Push(context.Background(), []string{SyncKeyRecords}, true); err != nil {
			log.Warn().Err(err).Msg("Delete record: remote sync push failed, local delete is intact")
		}
	}()
	return nil
}
