package repository

import (
	"errors"

	"github.com/karvel/traindesk/internal/model"
	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(session *model.LiveSession) error
	Update(session *model.LiveSession) error
	FindByID(id string) (*model.LiveSession, error)
	// FindActiveByTest returns the active session for a test, or nil.
	FindActiveByTest(testID uint) (*model.LiveSession, error)
	MarkCompleted(sessionID, trainee string) error
	// ClearCompletion removes a trainee's completion markers for a test's
	// active sessions so they can re-enter after a retake grant.
	ClearCompletion(testID uint, trainee string) error
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(session *model.LiveSession) error {
	return r.db.Create(session).Error
}

func (r *sessionRepository) Update(session *model.LiveSession) error {
	return r.db.Save(session).Error
}

func (r *sessionRepository) FindByID(id string) (*model.LiveSession, error) {
	var session model.LiveSession
	if err := r.db.Preload("Completions").First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) FindActiveByTest(testID uint) (*model.LiveSession, error) {
	var session model.LiveSession
	err := r.db.Preload("Completions").Where("test_id = ? AND active = true", testID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) MarkCompleted(sessionID, trainee string) error {
	completion := model.SessionCompletion{SessionID: sessionID, Trainee: trainee}
	return r.db.Create(&completion).Error
}

func (r *sessionRepository) ClearCompletion(testID uint, trainee string) error {
	return r.db.
		Where("trainee = ? AND session_id IN (?)",
			trainee,
			r.db.Model(&model.LiveSession{}).Select("id").Where("test_id = ? AND active = true", testID),
		).
		Delete(&model.SessionCompletion{}).Error
}
