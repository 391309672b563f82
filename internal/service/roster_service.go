package service

import (
	"context"
	"fmt"

	"github.com/karvel/traindesk/internal/dto"
	"github.com/karvel/traindesk/internal/repository"
	"github.com/rs/zerolog/log"
)

// RosterService maintains the onboarding group memberships the cycle
// classifier is derived from.
type RosterService interface {
	ListGroups() ([]dto.RosterGroupDTO, error)
	UpsertGroup(req dto.RosterUpsertDTO) (*dto.RosterGroupDTO, error)
}

type rosterService struct {
	rosterRepo repository.RosterRepository
	syncSvc    SyncService
}

func NewRosterService(rosterRepo repository.RosterRepository, syncSvc SyncService) RosterService {
	return &rosterService{rosterRepo: rosterRepo, syncSvc: syncSvc}
}

func (s *rosterService) ListGroups() ([]dto.RosterGroupDTO, error) {
	groups, err := s.rosterRepo.FindAllWithMembers()
	if err != nil {
		return nil, fmt.Errorf("error fetching rosters: %w", err)
	}
	dtos := make([]dto.RosterGroupDTO, 0, len(groups))
	for _, g := range groups {
		members := make([]string, 0, len(g.Members))
		for _, m := range g.Members {
			members = append(members, m.Trainee)
		}
		dtos = append(dtos, dto.RosterGroupDTO{GroupID: g.ID, Members: members})
	}
	return dtos, nil
}

func (s *rosterService) UpsertGroup(req dto.RosterUpsertDTO) (*dto.RosterGroupDTO, error) {
	if err := s.rosterRepo.ReplaceMembers(req.GroupID, req.Members); err != nil {
		log.Error().Err(err).Str("groupID", req.GroupID).Msg("UpsertGroup: failed to replace members")
		return nil, fmt.Errorf("saving roster group: %w", err)
	}

	go func() {
		if err := s.syncSvc.Push(context.Background(), []string{SyncKeyRosters}, true); err != nil {
			log.Warn().Err(err).Msg("UpsertGroup: remote sync push failed, local state is intact")
		}
	}()

	return &dto.RosterGroupDTO{GroupID: req.GroupID, Members: req.Members}, nil
}
