package models

import "time"

type Category string

const (
	CategoryTechnical   Category = "technical"
	CategoryBehavioral  Category = "behavioral"
	CategorySituational Category = "situational"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryTechnical, CategoryBehavioral, CategorySituational:
		return true
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Question is immutable once generated. JSON keys match the shape requested
// from the model so generated and fallback questions decode the same way.
type Question struct {
	Text               string     `json:"question" yaml:"question"`
	Category           Category   `json:"category" yaml:"category"`
	Difficulty         Difficulty `json:"difficulty" yaml:"difficulty"`
	ExpectedAnswerHint string     `json:"expectedAnswer" yaml:"expectedAnswer"`
}

type Answer struct {
	QuestionIndex int       `json:"question_index"`
	Text          string    `json:"text"`
	SubmittedAt   time.Time `json:"submitted_at"`
	Skipped       bool      `json:"skipped,omitempty"`
	TimedOut      bool      `json:"timed_out,omitempty"`
}

// Feedback is produced once per evaluated answer and never mutated.
type Feedback struct {
	Score        int      `json:"score"`
	Commentary   string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

const (
	MinScore = 1
	MaxScore = 10
)
