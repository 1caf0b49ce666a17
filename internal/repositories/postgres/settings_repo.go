package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yoockh/careermentor/internal/models"
	"github.com/yoockh/careermentor/internal/utils"
)

type SettingsRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.InterviewSettingsRow, error)
	Upsert(ctx context.Context, row *models.InterviewSettingsRow) error
}

type settingsRepo struct {
	db *gorm.DB
}

func NewSettingsRepo(db *gorm.DB) SettingsRepository {
	return &settingsRepo{db: db}
}

func (r *settingsRepo) GetByUserID(ctx context.Context, userID string) (*models.InterviewSettingsRow, error) {
	var row models.InterviewSettingsRow
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *settingsRepo) Upsert(ctx context.Context, row *models.InterviewSettingsRow) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"job_title", "experience_level", "interview_type", "skills", "company", "updated_at"}),
		}).
		Create(row).Error
}
