package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yoockh/careermentor/internal/models"
)

type AudioRepository interface {
	Insert(ctx context.Context, a *models.AnswerAudio) error
	ListBySession(ctx context.Context, sessionID string) ([]models.AnswerAudio, error)
}

type audioRepo struct {
	db *gorm.DB
}

func NewAudioRepo(db *gorm.DB) AudioRepository {
	return &audioRepo{db: db}
}

func (r *audioRepo) Insert(ctx context.Context, a *models.AnswerAudio) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *audioRepo) ListBySession(ctx context.Context, sessionID string) ([]models.AnswerAudio, error) {
	var rows []models.AnswerAudio
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("question_index ASC, upload_at ASC").
		Find(&rows).Error
	return rows, err
}
