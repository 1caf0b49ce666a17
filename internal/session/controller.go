// Package session holds the interview state machine. A Controller drives one
// session from question loading to the final score; every transition runs
// under its mutex and the evaluator call runs with the mutex released.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/careermentor/internal/logger"
	"github.com/yoockh/careermentor/internal/models"
)

var (
	ErrAlreadyStarted    = errors.New("session already started")
	ErrInvalidTransition = errors.New("action not allowed in current state")
	ErrSessionClosed     = errors.New("session closed")
)

const DefaultQuestionDuration = 120 * time.Second

type QuestionSource interface {
	Generate(ctx context.Context, settings models.SessionSettings) []models.Question
}

type Evaluator interface {
	Evaluate(ctx context.Context, q models.Question, answer string) models.Feedback
}

type History interface {
	Append(ctx context.Context, s models.SessionSummary) error
}

type Countdown interface {
	Start(seconds int, onTick func(remaining int), onExpire func())
	Cancel()
}

type Config struct {
	ID       string
	UserID   string
	Settings models.SessionSettings

	QuestionDuration time.Duration

	Questions QuestionSource
	Evaluator Evaluator
	History   History
	Timer     Countdown
	Logger    *logrus.Logger

	// Listener receives every event. It is called without the lock held.
	Listener func(Event)
	// OnComplete runs after the summary has been appended to the history.
	OnComplete func(ctx context.Context, snap Snapshot)

	Now func() time.Time
}

type Controller struct {
	cfg     Config
	seconds int

	mu sync.Mutex

	// ctx outlives the request that started the session
	ctx       context.Context
	state     State
	started   bool
	abandoned bool

	questions     []models.Question
	questionIndex int
	currentIndex  int
	answers       map[int]models.Answer
	feedbacks     map[int]models.Feedback
	cumulative    int
	remaining     int
	draft         string

	summary *models.SessionSummary
	overall *models.OverallFeedback

	startedAt time.Time
	updatedAt time.Time
}

func NewController(cfg Config) *Controller {
	if cfg.QuestionDuration <= 0 {
		cfg.QuestionDuration = DefaultQuestionDuration
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Settings = cfg.Settings.WithDefaults()

	seconds := int(cfg.QuestionDuration / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	now := cfg.Now().UTC()
	return &Controller{
		cfg:       cfg,
		seconds:   seconds,
		ctx:       context.Background(),
		state:     StateLoading,
		answers:   map[int]models.Answer{},
		feedbacks: map[int]models.Feedback{},
		startedAt: now,
		updatedAt: now,
	}
}

func (c *Controller) ID() string     { return c.cfg.ID }
func (c *Controller) UserID() string { return c.cfg.UserID }

// LastActivity is the time of the last transition or draft update.
func (c *Controller) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updatedAt
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Start loads the questions and shows the first one. Question generation is
// not cancelled when ctx is.
func (c *Controller) Start(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if c.abandoned {
		c.mu.Unlock()
		return Snapshot{}, ErrSessionClosed
	}
	if c.started {
		c.mu.Unlock()
		return Snapshot{}, ErrAlreadyStarted
	}
	c.started = true
	c.ctx = context.WithoutCancel(ctx)
	ctx = c.ctx
	snap := c.touchLocked()
	c.mu.Unlock()
	c.emit(snap)

	questions := c.cfg.Questions.Generate(ctx, c.cfg.Settings)

	c.mu.Lock()
	c.questions = append([]models.Question(nil), questions...)
	if c.abandoned {
		snap = c.snapshotLocked()
		c.mu.Unlock()
		return snap, ErrSessionClosed
	}
	if len(c.questions) == 0 {
		// the question source always returns at least one question
		return c.completeLocked()
	}
	c.showLocked(0)
	snap = c.touchLocked()
	c.mu.Unlock()

	c.cfg.Logger.WithFields(logrus.Fields{
		"session_id": c.cfg.ID,
		"questions":  len(questions),
	}).Info("interview started")
	c.emit(snap)
	return snap, nil
}

// UpdateDraft stores the text a timer expiry would submit.
func (c *Controller) UpdateDraft(text string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkLocked("draft", StateAwaitingAnswer); err != nil {
		return Snapshot{}, err
	}
	c.draft = text
	c.updatedAt = c.cfg.Now().UTC()
	return c.snapshotLocked(), nil
}

// Submit records the answer and blocks until its feedback is committed.
func (c *Controller) Submit(text string) (Snapshot, error) {
	c.mu.Lock()
	if err := c.checkLocked("submit", StateAwaitingAnswer); err != nil {
		c.mu.Unlock()
		return Snapshot{}, err
	}
	return c.evaluateLocked(text, false)
}

// expire submits the draft of question idx, unless that question is no
// longer awaiting an answer.
func (c *Controller) expire(idx int) {
	c.mu.Lock()
	if c.abandoned || c.state != StateAwaitingAnswer || c.questionIndex != idx {
		c.mu.Unlock()
		return
	}
	c.remaining = 0
	if _, err := c.evaluateLocked(c.draft, true); err != nil && !errors.Is(err, ErrSessionClosed) {
		c.cfg.Logger.WithFields(logrus.Fields{
			"session_id": c.cfg.ID,
			"question":   idx,
		}).WithError(err).Warn("auto-submit failed")
	}
}

// evaluateLocked is entered with the lock held and returns with it released.
func (c *Controller) evaluateLocked(text string, timedOut bool) (Snapshot, error) {
	c.cfg.Timer.Cancel()

	idx := c.currentIndex
	if idx >= len(c.questions) {
		c.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: no question %d", ErrInvalidTransition, idx)
	}
	q := c.questions[idx]
	pending := models.Answer{
		QuestionIndex: idx,
		Text:          text,
		SubmittedAt:   c.cfg.Now().UTC(),
		TimedOut:      timedOut,
	}
	c.state = StateAwaitingFeedback
	c.draft = ""
	ctx := c.ctx
	snap := c.touchLocked()
	c.mu.Unlock()
	c.emit(snap)

	fb := c.cfg.Evaluator.Evaluate(ctx, q, text)
	fb.Score = min(max(fb.Score, models.MinScore), models.MaxScore)

	c.mu.Lock()
	if c.abandoned {
		snap = c.snapshotLocked()
		c.mu.Unlock()
		return snap, ErrSessionClosed
	}
	c.answers[idx] = pending
	c.feedbacks[idx] = fb
	c.cumulative += fb.Score
	c.currentIndex++
	c.state = StateShowingFeedback
	snap = c.touchLocked()
	c.mu.Unlock()

	c.emit(snap)
	return snap, nil
}

// Next moves past the feedback to the next question or to completion.
func (c *Controller) Next() (Snapshot, error) {
	c.mu.Lock()
	if err := c.checkLocked("next", StateShowingFeedback); err != nil {
		c.mu.Unlock()
		return Snapshot{}, err
	}
	return c.advanceLocked()
}

// Skip records an empty answer worth nothing and moves on without feedback.
func (c *Controller) Skip() (Snapshot, error) {
	c.mu.Lock()
	if err := c.checkLocked("skip", StateAwaitingAnswer); err != nil {
		c.mu.Unlock()
		return Snapshot{}, err
	}
	idx := c.currentIndex
	if idx >= len(c.questions) {
		c.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: no question %d", ErrInvalidTransition, idx)
	}
	c.cfg.Timer.Cancel()

	c.answers[idx] = models.Answer{
		QuestionIndex: idx,
		SubmittedAt:   c.cfg.Now().UTC(),
		Skipped:       true,
	}
	c.currentIndex++
	c.draft = ""
	return c.advanceLocked()
}

// advanceLocked is entered with the lock held and returns with it released.
func (c *Controller) advanceLocked() (Snapshot, error) {
	if c.currentIndex >= len(c.questions) {
		return c.completeLocked()
	}
	c.showLocked(c.currentIndex)
	snap := c.touchLocked()
	c.mu.Unlock()
	c.emit(snap)
	return snap, nil
}

// Abandon stops the timer and closes the session without persisting it.
func (c *Controller) Abandon() error {
	c.mu.Lock()
	if c.abandoned {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	c.abandoned = true
	c.cfg.Timer.Cancel()
	snap := c.touchLocked()
	c.mu.Unlock()

	c.cfg.Logger.WithField("session_id", c.cfg.ID).Info("interview abandoned")
	c.emit(snap)
	return nil
}

// completeLocked is entered with the lock held and returns with it released.
// The state is Completed before the lock is dropped, so no other action can
// slip in between the last question and the summary.
func (c *Controller) completeLocked() (Snapshot, error) {
	c.cfg.Timer.Cancel()
	n := len(c.questions)
	percent := 0
	if n > 0 {
		percent = int(math.Round(float64(c.cumulative) / float64(n*models.MaxScore) * 100))
	}
	summary := models.SessionSummary{
		SessionID:         c.cfg.ID,
		UserID:            c.cfg.UserID,
		Date:              c.cfg.Now().UTC(),
		JobTitle:          c.cfg.Settings.JobTitle,
		InterviewType:     c.cfg.Settings.InterviewType,
		FinalScorePercent: percent,
		QuestionsCount:    n,
	}
	overall := models.OverallFeedbackFor(percent)
	c.summary = &summary
	c.overall = &overall
	c.state = StateCompleted
	c.remaining = 0
	ctx := c.ctx
	snap := c.touchLocked()
	c.mu.Unlock()

	log := c.cfg.Logger.WithFields(logrus.Fields{
		"session_id": c.cfg.ID,
		"score":      percent,
	})
	if c.cfg.History != nil {
		if err := c.cfg.History.Append(ctx, summary); err != nil {
			log.WithError(err).Error("failed to append interview history")
		}
	}
	if c.cfg.OnComplete != nil {
		c.cfg.OnComplete(ctx, snap)
	}
	log.Info("interview completed")

	c.emit(snap)
	return snap, nil
}

func (c *Controller) showLocked(idx int) {
	c.questionIndex = idx
	c.remaining = c.seconds
	c.draft = ""
	c.state = StateAwaitingAnswer
	c.cfg.Timer.Start(c.seconds,
		func(remaining int) { c.tick(idx, remaining) },
		func() { c.expire(idx) },
	)
}

func (c *Controller) tick(idx, remaining int) {
	c.mu.Lock()
	if c.abandoned || c.state != StateAwaitingAnswer || c.questionIndex != idx {
		c.mu.Unlock()
		return
	}
	c.remaining = remaining
	c.mu.Unlock()

	if c.cfg.Listener != nil {
		c.cfg.Listener(Event{
			Type:             EventTick,
			SessionID:        c.cfg.ID,
			QuestionIndex:    idx,
			RemainingSeconds: remaining,
			LowTime:          remaining <= LowTimeSeconds,
		})
	}
}

func (c *Controller) checkLocked(action string, want State) error {
	if c.abandoned {
		return ErrSessionClosed
	}
	if !c.started || c.state != want {
		return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, action, c.state)
	}
	return nil
}

func (c *Controller) touchLocked() Snapshot {
	c.updatedAt = c.cfg.Now().UTC()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	answers := make(map[int]models.Answer, len(c.answers))
	for k, v := range c.answers {
		answers[k] = v
	}
	feedbacks := make(map[int]models.Feedback, len(c.feedbacks))
	for k, v := range c.feedbacks {
		v.Strengths = append([]string(nil), v.Strengths...)
		v.Improvements = append([]string(nil), v.Improvements...)
		feedbacks[k] = v
	}

	snap := Snapshot{
		ID:               c.cfg.ID,
		UserID:           c.cfg.UserID,
		State:            c.state,
		Abandoned:        c.abandoned,
		Settings:         c.cfg.Settings.WithDefaults(),
		Questions:        append([]models.Question(nil), c.questions...),
		QuestionIndex:    c.questionIndex,
		CurrentIndex:     c.currentIndex,
		CumulativeScore:  c.cumulative,
		RemainingSeconds: c.remaining,
		Answers:          answers,
		Feedbacks:        feedbacks,
		Draft:            c.draft,
		StartedAt:        c.startedAt,
		UpdatedAt:        c.updatedAt,
	}
	if c.summary != nil {
		s := *c.summary
		snap.Summary = &s
	}
	if c.overall != nil {
		o := *c.overall
		snap.Overall = &o
	}
	return snap
}

func (c *Controller) emit(snap Snapshot) {
	if c.cfg.Listener == nil {
		return
	}
	c.cfg.Listener(Event{
		Type:             EventState,
		SessionID:        c.cfg.ID,
		Snapshot:         &snap,
		QuestionIndex:    snap.QuestionIndex,
		RemainingSeconds: snap.RemainingSeconds,
	})
}
