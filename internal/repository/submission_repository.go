package repository

import (
	"errors"

	"github.com/karvel/traindesk/internal/model"
	"gorm.io/gorm"
)

type SubmissionRepository interface {
	Create(sub *model.Submission) error
	Update(sub *model.Submission) error
	Delete(id uint) error
	FindByID(id uint) (*model.Submission, error)
	// FindActive returns the single non-archived submission for the pair, or
	// nil when none exists.
	FindActive(trainee string, testID uint) (*model.Submission, error)
	FindAllByTrainee(trainee string) ([]model.Submission, error)
	FindAllByTest(testID uint) ([]model.Submission, error)
	FindPendingReview() ([]model.Submission, error)
	WithTx(tx *gorm.DB) SubmissionRepository
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

// WithTx scopes the repository to a transaction so the duplicate check and
// the insert happen atomically.
func (r *submissionRepository) WithTx(tx *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: tx}
}

func (r *submissionRepository) Create(sub *model.Submission) error {
	return r.db.Create(sub).Error
}

func (r *submissionRepository) Update(sub *model.Submission) error {
	return r.db.Save(sub).Error
}

func (r *submissionRepository) Delete(id uint) error {
	return r.db.Delete(&model.Submission{}, id).Error
}

func (r *submissionRepository) FindByID(id uint) (*model.Submission, error) {
	var sub model.Submission
	if err := r.db.Preload("Test").First(&sub, id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *submissionRepository) FindActive(trainee string, testID uint) (*model.Submission, error) {
	var sub model.Submission
	err := r.db.Where("trainee = ? AND test_id = ? AND archived = false", trainee, testID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *submissionRepository) FindAllByTrainee(trainee string) ([]model.Submission, error) {
	var subs []model.Submission
	err := r.db.Where("trainee = ?", trainee).Order("submitted_at DESC").Find(&subs).Error
	return subs, err
}

func (r *submissionRepository) FindAllByTest(testID uint) ([]model.Submission, error) {
	var subs []model.Submission
	err := r.db.Where("test_id = ?", testID).Order("submitted_at DESC").Find(&subs).Error
	return subs, err
}

func (r *submissionRepository) FindPendingReview() ([]model.Submission, error) {
	var subs []model.Submission
	err := r.db.Where("requires_review = true AND status = ? AND archived = false", model.SubmissionPending).
		Order("submitted_at ASC").Find(&subs).Error
	return subs, err
}
