package services

import (
	"context"
	"errors"

	"github.com/yoockh/careermentor/internal/models"
	"github.com/yoockh/careermentor/internal/repositories"
	"github.com/yoockh/careermentor/internal/utils"
)

type HistoryService interface {
	Append(ctx context.Context, s models.SessionSummary) error
	List(ctx context.Context, userID string) ([]models.SessionSummary, error)
	Get(ctx context.Context, userID, sessionID string) (*models.SessionSummary, error)
}

type historyService struct {
	repo repositories.HistoryRepository
}

func NewHistoryService(repo repositories.HistoryRepository) HistoryService {
	return &historyService{repo: repo}
}

func (s *historyService) Append(ctx context.Context, sum models.SessionSummary) error {
	const op = "HistoryService.Append"

	if sum.UserID == "" || sum.SessionID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id and session_id are required", nil)
	}
	if err := s.repo.Append(ctx, &sum); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to append history", err)
	}
	return nil
}

func (s *historyService) List(ctx context.Context, userID string) ([]models.SessionSummary, error) {
	const op = "HistoryService.List"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	out, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list history", err)
	}
	return out, nil
}

func (s *historyService) Get(ctx context.Context, userID, sessionID string) (*models.SessionSummary, error) {
	const op = "HistoryService.Get"

	if userID == "" || sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and session_id are required", nil)
	}
	out, err := s.repo.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get history", err)
	}
	if out.UserID != userID {
		return nil, utils.E(utils.CodeForbidden, op, "forbidden", nil)
	}
	return out, nil
}
