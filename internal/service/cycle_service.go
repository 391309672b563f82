package service

import (
	"fmt"
	"sort"

	"github.com/karvel/traindesk/internal/repository"
	"github.com/rs/zerolog/log"
)

// CycleNewOnboard is the label for a trainee with no prior group membership.
const CycleNewOnboard = "New Onboard"

// CycleService derives a trainee's retake-cycle label from roster history.
type CycleService interface {
	Classify(trainee, currentGroupID string) (string, error)
}

type cycleService struct {
	rosterRepo repository.RosterRepository
}

func NewCycleService(rosterRepo repository.RosterRepository) CycleService {
	return &cycleService{rosterRepo: rosterRepo}
}

func (s *cycleService) Classify(trainee, currentGroupID string) (string, error) {
	groups, err := s.rosterRepo.FindAllWithMembers()
	if err != nil {
		log.Error().Err(err).Msg("Classify: failed to load rosters")
		return "", fmt.Errorf("error loading rosters: %w", err)
	}

	history := make(map[string][]string, len(groups))
	for _, g := range groups {
		members := make([]string, 0, len(g.Members))
		for _, m := range g.Members {
			members = append(members, m.Trainee)
		}
		history[g.ID] = members
	}
	return ClassifyCycle(trainee, currentGroupID, history), nil
}

// ClassifyCycle counts the groups strictly before currentGroupID that contain
// the trainee. Group IDs are date-prefixed, so lexicographic order is
// chronological order. Missing inputs classify as a new onboard rather than
// erroring.
func ClassifyCycle(trainee, currentGroupID string, rosterHistory map[string][]string) string {
	if trainee == "" || currentGroupID == "" {
		return CycleNewOnboard
	}

	groupIDs := make([]string, 0, len(rosterHistory))
	for id := range rosterHistory {
		groupIDs = append(groupIDs, id)
	}
	sort.Strings(groupIDs)

	priorCycles := 0
	for _, id := range groupIDs {
		if id >= currentGroupID {
			break
		}
		for _, member := range rosterHistory[id] {
			if member == trainee {
				priorCycles++
				break
			}
		}
	}

	if priorCycles == 0 {
		return CycleNewOnboard
	}
	return fmt.Sprintf("Retrain %d", priorCycles)
}
