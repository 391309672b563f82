package repository

import (
	"errors"

	"github.com/karvel/traindesk/internal/model"
	"gorm.io/gorm"
)

// RecordFilter narrows record listings for the reporting screens. Zero
// values mean "no constraint".
type RecordFilter struct {
	Trainee string
	GroupID string
	Phase   string
}

type RecordRepository interface {
	Save(rec *model.Record) error
	Delete(id string) error
	// FindByKey resolves the (trainee, assessment) dedup key; nil when absent.
	FindByKey(trainee, assessment string) (*model.Record, error)
	// FindByCaptureKey is the manual-capture variant that also matches group
	// and phase.
	FindByCaptureKey(trainee, assessment, groupID, phase string) (*model.Record, error)
	FindAll(filter RecordFilter) ([]model.Record, error)
	WithTx(tx *gorm.DB) RecordRepository
}

type recordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) RecordRepository {
	return &recordRepository{db: db}
}

func (r *recordRepository) WithTx(tx *gorm.DB) RecordRepository {
	return &recordRepository{db: tx}
}

func (r *recordRepository) Save(rec *model.Record) error {
	return r.db.Save(rec).Error
}

func (r *recordRepository) Delete(id string) error {
	return r.db.Delete(&model.Record{}, "id = ?", id).Error
}

func (r *recordRepository) FindByKey(trainee, assessment string) (*model.Record, error) {
	var rec model.Record
	err := r.db.Where("trainee = ? AND assessment = ?", trainee, assessment).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *recordRepository) FindByCaptureKey(trainee, assessment, groupID, phase string) (*model.Record, error) {
	var rec model.Record
	err := r.db.Where("trainee = ? AND assessment = ? AND group_id = ? AND phase = ?",
		trainee, assessment, groupID, phase).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *recordRepository) FindAll(filter RecordFilter) ([]model.Record, error) {
	query := r.db.Model(&model.Record{})
	if filter.Trainee != "" {
		query = query.Where("trainee = ?", filter.Trainee)
	}
	if filter.GroupID != "" {
		query = query.Where("group_id = ?", filter.GroupID)
	}
	if filter.Phase != "" {
		query = query.Where("phase = ?", filter.Phase)
	}
	var recs []model.Record
	err := query.Order("date DESC").Find(&recs).Error
	return recs, err
}
