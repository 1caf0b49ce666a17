package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/careermentor/internal/events"
	"github.com/yoockh/careermentor/internal/logger"
	"github.com/yoockh/careermentor/internal/models"
	"github.com/yoockh/careermentor/internal/session"
	"github.com/yoockh/careermentor/internal/timer"
	"github.com/yoockh/careermentor/internal/utils"
)

const (
	DefaultSessionIdleTTL = 30 * time.Minute
	publishTimeout        = 3 * time.Second
)

type ActiveSession struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	State     session.State `json:"state"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type InterviewService interface {
	Start(ctx context.Context, userID string, overrides models.SessionSettings) (session.Snapshot, error)
	Get(ctx context.Context, userID, sessionID string) (session.Snapshot, error)
	Draft(ctx context.Context, userID, sessionID, text string) (session.Snapshot, error)
	Submit(ctx context.Context, userID, sessionID, text string) (session.Snapshot, error)
	Skip(ctx context.Context, userID, sessionID string) (session.Snapshot, error)
	Next(ctx context.Context, userID, sessionID string) (session.Snapshot, error)
	Abandon(ctx context.Context, userID, sessionID string) error

	Active() []ActiveSession
	// Reap abandons and forgets sessions idle for longer than the idle TTL.
	Reap(now time.Time) int
	RunReaper(ctx context.Context, every time.Duration)
}

// TranscriptRecorder stores the transcript of a completed session, either
// directly or through a queue.
type TranscriptRecorder interface {
	Record(ctx context.Context, snap session.Snapshot) error
}

type InterviewConfig struct {
	QuestionDuration time.Duration
	IdleTTL          time.Duration
	// NewTimer builds the countdown of one session; tests inject fakes.
	NewTimer func() session.Countdown
}

type interviewService struct {
	settings    SettingsService
	questions   QuestionSource
	evaluator   AnswerEvaluator
	history     HistoryService
	transcripts TranscriptRecorder
	publisher   events.Publisher
	cfg         InterviewConfig
	log         *logrus.Logger

	mu       sync.RWMutex
	sessions map[string]*session.Controller
}

func NewInterviewService(
	settings SettingsService,
	questions QuestionSource,
	evaluator AnswerEvaluator,
	history HistoryService,
	transcripts TranscriptRecorder,
	publisher events.Publisher,
	cfg InterviewConfig,
	log *logrus.Logger,
) InterviewService {
	if cfg.QuestionDuration <= 0 {
		cfg.QuestionDuration = session.DefaultQuestionDuration
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultSessionIdleTTL
	}
	if cfg.NewTimer == nil {
		cfg.NewTimer = func() session.Countdown { return timer.New(time.Second) }
	}
	if publisher == nil {
		publisher = events.Discard{}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &interviewService{
		settings:    settings,
		questions:   questions,
		evaluator:   evaluator,
		history:     history,
		transcripts: transcripts,
		publisher:   publisher,
		cfg:         cfg,
		log:         log,
		sessions:    map[string]*session.Controller{},
	}
}

func (s *interviewService) Start(ctx context.Context, userID string, overrides models.SessionSettings) (session.Snapshot, error) {
	const op = "InterviewService.Start"

	if userID == "" {
		return session.Snapshot{}, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	stored, err := s.settings.Get(ctx, userID)
	if err != nil {
		return session.Snapshot{}, err
	}
	settings := stored.Merge(normalizeSettings(overrides)).WithDefaults()

	cfg := session.Config{
		ID:               uuid.NewString(),
		UserID:           userID,
		Settings:         settings,
		QuestionDuration: s.cfg.QuestionDuration,
		Questions:        s.questions,
		Evaluator:        s.evaluator,
		Timer:            s.cfg.NewTimer(),
		Logger:           s.log,
		Listener:         s.publish,
	}
	if s.history != nil {
		cfg.History = s.history
	}
	if s.transcripts != nil {
		cfg.OnComplete = s.recordTranscript
	}
	ctrl := session.NewController(cfg)

	// registered before loading so clients can subscribe while questions generate
	s.mu.Lock()
	s.sessions[ctrl.ID()] = ctrl
	s.mu.Unlock()

	snap, err := ctrl.Start(ctx)
	if err != nil {
		s.forget(ctrl.ID())
		return session.Snapshot{}, sessionErr(op, err)
	}
	return snap, nil
}

func (s *interviewService) Get(_ context.Context, userID, sessionID string) (session.Snapshot, error) {
	ctrl, err := s.lookup("InterviewService.Get", userID, sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}
	return ctrl.Snapshot(), nil
}

func (s *interviewService) Draft(_ context.Context, userID, sessionID, text string) (session.Snapshot, error) {
	const op = "InterviewService.Draft"
	ctrl, err := s.lookup(op, userID, sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}
	snap, err := ctrl.UpdateDraft(text)
	return snap, sessionErr(op, err)
}

func (s *interviewService) Submit(_ context.Context, userID, sessionID, text string) (session.Snapshot, error) {
	const op = "InterviewService.Submit"
	ctrl, err := s.lookup(op, userID, sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}
	snap, err := ctrl.Submit(text)
	return snap, sessionErr(op, err)
}

func (s *interviewService) Skip(_ context.Context, userID, sessionID string) (session.Snapshot, error) {
	const op = "InterviewService.Skip"
	ctrl, err := s.lookup(op, userID, sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}
	snap, err := ctrl.Skip()
	return snap, sessionErr(op, err)
}

func (s *interviewService) Next(_ context.Context, userID, sessionID string) (session.Snapshot, error) {
	const op = "InterviewService.Next"
	ctrl, err := s.lookup(op, userID, sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}
	snap, err := ctrl.Next()
	return snap, sessionErr(op, err)
}

func (s *interviewService) Abandon(_ context.Context, userID, sessionID string) error {
	const op = "InterviewService.Abandon"
	ctrl, err := s.lookup(op, userID, sessionID)
	if err != nil {
		return err
	}
	if err := ctrl.Abandon(); err != nil {
		return sessionErr(op, err)
	}
	s.forget(sessionID)
	return nil
}

func (s *interviewService) Active() []ActiveSession {
	s.mu.RLock()
	ctrls := make([]*session.Controller, 0, len(s.sessions))
	for _, c := range s.sessions {
		ctrls = append(ctrls, c)
	}
	s.mu.RUnlock()

	out := make([]ActiveSession, 0, len(ctrls))
	for _, c := range ctrls {
		snap := c.Snapshot()
		out = append(out, ActiveSession{ID: snap.ID, UserID: snap.UserID, State: snap.State, UpdatedAt: snap.UpdatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out
}

func (s *interviewService) Reap(now time.Time) int {
	s.mu.RLock()
	var idle []*session.Controller
	for _, c := range s.sessions {
		if now.Sub(c.LastActivity()) > s.cfg.IdleTTL {
			idle = append(idle, c)
		}
	}
	s.mu.RUnlock()

	for _, c := range idle {
		if snap := c.Snapshot(); snap.State != session.StateCompleted {
			if err := c.Abandon(); err != nil && !errors.Is(err, session.ErrSessionClosed) {
				s.log.WithField("session_id", c.ID()).WithError(err).Warn("failed to abandon idle session")
			}
		}
		s.forget(c.ID())
	}
	if len(idle) > 0 {
		s.log.WithField("count", len(idle)).Info("reaped idle interviews")
	}
	return len(idle)
}

func (s *interviewService) RunReaper(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.Reap(now)
		}
	}
}

func (s *interviewService) lookup(op, userID, sessionID string) (*session.Controller, error) {
	if userID == "" || sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and session_id are required", nil)
	}
	s.mu.RLock()
	ctrl, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, utils.E(utils.CodeNotFound, op, "interview not found", nil)
	}
	if ctrl.UserID() != userID {
		return nil, utils.E(utils.CodeForbidden, op, "forbidden", nil)
	}
	return ctrl, nil
}

func (s *interviewService) forget(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

func (s *interviewService) publish(e session.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.WithFields(logrus.Fields{
			"session_id": e.SessionID,
			"event":      e.Type,
		}).WithError(err).Warn("failed to publish interview event")
	}
}

func (s *interviewService) recordTranscript(ctx context.Context, snap session.Snapshot) {
	if err := s.transcripts.Record(ctx, snap); err != nil {
		s.log.WithField("session_id", snap.ID).WithError(err).Error("failed to store interview transcript")
	}
}

func sessionErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrSessionClosed):
		return utils.E(utils.CodeConflict, op, "interview is closed", err)
	case errors.Is(err, session.ErrInvalidTransition), errors.Is(err, session.ErrAlreadyStarted):
		return utils.E(utils.CodeConflict, op, err.Error(), err)
	default:
		return utils.E(utils.CodeInternal, op, "interview action failed", err)
	}
}
