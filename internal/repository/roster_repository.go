package repository

import (
	"github.com/karvel/traindesk/internal/model"
	"gorm.io/gorm"
)

type RosterRepository interface {
	FindAllWithMembers() ([]model.RosterGroup, error)
	FindByID(groupID string) (*model.RosterGroup, error)
	// ReplaceMembers upserts the group and swaps its full member list.
	ReplaceMembers(groupID string, trainees []string) error
}

type rosterRepository struct {
	db *gorm.DB
}

func NewRosterRepository(db *gorm.DB) RosterRepository {
	return &rosterRepository{db: db}
}

func (r *rosterRepository) FindAllWithMembers() ([]model.RosterGroup, error) {
	var groups []model.RosterGroup
	err := r.db.Preload("Members").Order("id ASC").Find(&groups).Error
	return groups, err
}

func (r *rosterRepository) FindByID(groupID string) (*model.RosterGroup, error) {
	var group model.RosterGroup
	err := r.db.Preload("Members").First(&group, "id = ?", groupID).Error
	return &group, err
}

func (r *rosterRepository) ReplaceMembers(groupID string, trainees []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		group := model.RosterGroup{ID: groupID}
		if err := tx.Where("id = ?", groupID).FirstOrCreate(&group).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", groupID).Delete(&model.RosterMember{}).Error; err != nil {
			return err
		}
		if len(trainees) == 0 {
			return nil
		}
		members := make([]model.RosterMember, 0, len(trainees))
		for _, t := range trainees {
			members = append(members, model.RosterMember{GroupID: groupID, Trainee: t})
		}
		return tx.Create(&members).Error
	})
}
