package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/careermentor/internal/cache"
	"github.com/yoockh/careermentor/internal/logger"
	"github.com/yoockh/careermentor/internal/models"
	pgrepo "github.com/yoockh/careermentor/internal/repositories/postgres"
	"github.com/yoockh/careermentor/internal/utils"
)

const DefaultSettingsCacheTTL = 10 * time.Minute

type SettingsService interface {
	// Get returns the user's settings with every missing field defaulted.
	// Storage failures are logged and answered with the defaults.
	Get(ctx context.Context, userID string) (models.SessionSettings, error)
	// Update overlays the non-empty fields of patch onto the stored settings.
	Update(ctx context.Context, userID string, patch models.SessionSettings) (models.SessionSettings, error)
}

type settingsService struct {
	repo  pgrepo.SettingsRepository
	cache cache.Cache
	ttl   time.Duration
	log   *logrus.Logger
	now   func() time.Time
}

func NewSettingsService(repo pgrepo.SettingsRepository, c cache.Cache, ttl time.Duration, log *logrus.Logger) SettingsService {
	if ttl <= 0 {
		ttl = DefaultSettingsCacheTTL
	}
	if log == nil {
		log = logger.Discard()
	}
	return &settingsService{repo: repo, cache: c, ttl: ttl, log: log, now: time.Now}
}

func (s *settingsService) Get(ctx context.Context, userID string) (models.SessionSettings, error) {
	const op = "SettingsService.Get"

	if userID == "" {
		return models.SessionSettings{}, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	key := cache.SettingsKey(userID)
	if s.cache != nil {
		var cached models.SessionSettings
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.log.WithFields(logrus.Fields{"op": op, "user_id": userID}).WithError(err).Warn("settings cache read failed")
		}
		if hit {
			return cached.WithDefaults(), nil
		}
	}

	stored, err := s.load(ctx, userID)
	if err != nil {
		s.log.WithFields(logrus.Fields{"op": op, "user_id": userID}).WithError(err).Error("failed to read settings, using defaults")
		return models.DefaultSettings(), nil
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, stored, s.ttl); err != nil {
			s.log.WithFields(logrus.Fields{"op": op, "user_id": userID}).WithError(err).Warn("settings cache write failed")
		}
	}
	return stored.WithDefaults(), nil
}

func (s *settingsService) Update(ctx context.Context, userID string, patch models.SessionSettings) (models.SessionSettings, error) {
	const op = "SettingsService.Update"

	if userID == "" {
		return models.SessionSettings{}, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	patch = normalizeSettings(patch)

	stored, err := s.load(ctx, userID)
	if err != nil {
		return models.SessionSettings{}, utils.E(utils.CodeInternal, op, "failed to read settings", err)
	}

	merged := stored.Merge(patch).WithDefaults()
	row := models.NewSettingsRow(userID, merged)
	row.UpdatedAt = s.now().UTC()

	if err := s.repo.Upsert(ctx, row); err != nil {
		return models.SessionSettings{}, utils.E(utils.CodeInternal, op, "failed to save settings", err)
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, cache.SettingsKey(userID)); err != nil {
			s.log.WithFields(logrus.Fields{"op": op, "user_id": userID}).WithError(err).Warn("settings cache invalidation failed")
		}
	}
	return merged, nil
}

// load returns the stored settings as saved, zero value when none exist.
func (s *settingsService) load(ctx context.Context, userID string) (models.SessionSettings, error) {
	row, err := s.repo.GetByUserID(ctx, userID)
	if errors.Is(err, utils.ErrNotFound) {
		return models.SessionSettings{}, nil
	}
	if err != nil {
		return models.SessionSettings{}, err
	}
	return row.Settings(), nil
}

func normalizeSettings(in models.SessionSettings) models.SessionSettings {
	in.JobTitle = strings.TrimSpace(in.JobTitle)
	in.ExperienceLevel = strings.TrimSpace(in.ExperienceLevel)
	in.InterviewType = strings.TrimSpace(in.InterviewType)
	in.Company = strings.TrimSpace(in.Company)

	var skills []string
	for _, sk := range in.Skills {
		if sk = strings.TrimSpace(sk); sk != "" {
			skills = append(skills, sk)
		}
	}
	in.Skills = skills
	return in
}
