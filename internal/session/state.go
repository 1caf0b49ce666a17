package session

import (
	"time"

	"github.com/yoockh/careermentor/internal/models"
)

type State string

const (
	StateLoading          State = "loading"
	StateAwaitingAnswer   State = "awaiting_answer"
	StateAwaitingFeedback State = "awaiting_feedback"
	StateShowingFeedback  State = "showing_feedback"
	StateCompleted        State = "completed"
)

// LowTimeSeconds is the remaining time at or below which ticks are flagged.
const LowTimeSeconds = 30

// Snapshot is an immutable copy of a controller's state.
type Snapshot struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	State     State  `json:"state"`
	Abandoned bool   `json:"abandoned,omitempty"`

	Settings  models.SessionSettings `json:"settings"`
	Questions []models.Question      `json:"questions"`

	// QuestionIndex is the question on display; CurrentIndex counts the
	// questions already resolved.
	QuestionIndex    int `json:"question_index"`
	CurrentIndex     int `json:"current_index"`
	CumulativeScore  int `json:"cumulative_score"`
	RemainingSeconds int `json:"remaining_seconds"`

	Answers   map[int]models.Answer   `json:"answers"`
	Feedbacks map[int]models.Feedback `json:"feedbacks"`
	Draft     string                  `json:"draft"`

	Summary *models.SessionSummary  `json:"summary,omitempty"`
	Overall *models.OverallFeedback `json:"overall,omitempty"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Current returns the question on display, if any.
func (s Snapshot) Current() (models.Question, bool) {
	if s.QuestionIndex < 0 || s.QuestionIndex >= len(s.Questions) {
		return models.Question{}, false
	}
	return s.Questions[s.QuestionIndex], true
}

type EventType string

const (
	EventState EventType = "state"
	EventTick  EventType = "tick"
)

// Event is emitted after every transition (state) and every timer tick.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Snapshot  *Snapshot `json:"snapshot,omitempty"`

	QuestionIndex    int  `json:"question_index"`
	RemainingSeconds int  `json:"remaining_seconds"`
	LowTime          bool `json:"low_time,omitempty"`
}
