package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/karvel/traindesk/internal/dto"
	"github.com/karvel/traindesk/internal/model"
	"github.com/karvel/traindesk/internal/repository"
	"github.com/rs/zerolog/log"
)

// SessionService manages proctored sittings. One active session per test;
// opening a new one closes the previous.
type SessionService interface {
	Open(req dto.SessionCreateDTO) (*dto.SessionResponseDTO, error)
	Close(sessionID string) error
	GetForTest(testID uint) (*dto.SessionResponseDTO, error)
}

type sessionService struct {
	sessionRepo repository.SessionRepository
	testRepo    repository.TestRepository
}

func NewSessionService(sessionRepo repository.SessionRepository, testRepo repository.TestRepository) SessionService {
	return &sessionService{sessionRepo: sessionRepo, testRepo: testRepo}
}

func (s *sessionService) Open(req dto.SessionCreateDTO) (*dto.SessionResponseDTO, error) {
	test, err := s.testRepo.FindByID(req.TestID)
	if err != nil {
		return nil, fmt.Errorf("test not found with ID %d: %w", req.TestID, err)
	}

	kind := req.Kind
	if kind == "" {
		if test.Type == model.TestTypeVetting {
			kind = model.SessionKindVetting
		} else {
			kind = model.SessionKindLive
		}
	}

	if existing, err := s.sessionRepo.FindActiveByTest(req.TestID); err == nil && existing != nil {
		existing.Active = false
		if err := s.sessionRepo.Update(existing); err != nil {
			log.Warn().Err(err).Str("sessionID", existing.ID).Msg("Open: could not close previous session")
		}
	}

	session := &model.LiveSession{
		ID:        uuid.NewString(),
		TestID:    req.TestID,
		Kind:      kind,
		Active:    true,
		StartedAt: time.Now(),
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return toSessionDTO(session), nil
}

func (s *sessionService) Close(sessionID string) error {
	session, err := s.sessionRepo.FindByID(sessionID)
	if err != nil {
		return fmt.Errorf("session not found with ID %s: %w", sessionID, err)
	}
	session.Active = false
	if err := s.sessionRepo.Update(session); err != nil {
		return fmt.Errorf("closing session: %w", err)
	}
	return nil
}

func (s *sessionService) GetForTest(testID uint) (*dto.SessionResponseDTO, error) {
	session, err := s.sessionRepo.FindActiveByTest(testID)
	if err != nil {
		return nil, fmt.Errorf("error looking up session for test %d: %w", testID, err)
	}
	if session == nil {
		return nil, fmt.Errorf("no active session for test %d", testID)
	}
	return toSessionDTO(session), nil
}

func toSessionDTO(session *model.LiveSession) *dto.SessionResponseDTO {
	completed := make([]string, 0, len(session.Completions))
	for _, c := range session.Completions {
		completed = append(completed, c.Trainee)
	}
	return &dto.SessionResponseDTO{
		ID:        session.ID,
		TestID:    session.TestID,
		Kind:      session.Kind,
		Active:    session.Active,
		StartedAt: session.StartedAt,
		Completed: completed,
	}
}
