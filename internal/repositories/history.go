// Package repositories holds the storage contracts shared by more than one
// backend. Backend-specific repositories live in the mongo, postgres and
// sqlite subpackages.
package repositories

import (
	"context"

	"github.com/yoockh/careermentor/internal/models"
)

// HistoryRepository is the append-only list of completed sessions.
type HistoryRepository interface {
	Append(ctx context.Context, s *models.SessionSummary) error
	// ListByUser returns the user's summaries in insertion order.
	ListByUser(ctx context.Context, userID string) ([]models.SessionSummary, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.SessionSummary, error)
}
