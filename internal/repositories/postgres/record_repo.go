package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yoockh/careermentor/internal/models"
)

// RecordRepository stores the per-question transcript of completed sessions.
type RecordRepository interface {
	InsertBatch(ctx context.Context, rows []models.InterviewRecord) error
	ListBySession(ctx context.Context, userID, sessionID string) ([]models.InterviewRecord, error)
}

type recordRepo struct {
	db *gorm.DB
}

func NewRecordRepo(db *gorm.DB) RecordRepository {
	return &recordRepo{db: db}
}

func (r *recordRepo) InsertBatch(ctx context.Context, rows []models.InterviewRecord) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, 50).Error
	})
}

func (r *recordRepo) ListBySession(ctx context.Context, userID, sessionID string) ([]models.InterviewRecord, error) {
	var rows []models.InterviewRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("question_index ASC").
		Find(&rows).Error
	return rows, err
}
