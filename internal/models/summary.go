package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionSummary is appended once to the history when a session completes.
type SessionSummary struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SessionID string             `bson:"session_id" json:"session_id"`
	UserID    string             `bson:"user_id" json:"user_id"`

	Date              time.Time `bson:"date" json:"date"`
	JobTitle          string    `bson:"job_title" json:"job_title"`
	InterviewType     string    `bson:"interview_type" json:"interview_type"`
	FinalScorePercent int       `bson:"score" json:"score"`
	QuestionsCount    int       `bson:"questions_count" json:"questions_count"`
}

// OverallFeedback is the tiered end-of-session advice shown with the summary.
type OverallFeedback struct {
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

func OverallFeedbackFor(percent int) OverallFeedback {
	switch {
	case percent >= 80:
		return OverallFeedback{
			Strengths: []string{
				"Strong technical knowledge and understanding",
				"Clear and concise communication",
				"Good problem-solving approach",
				"Provided specific examples from experience",
			},
			Improvements: []string{
				"Further elaborate on technical implementations",
				"Consider discussing alternative approaches",
			},
		}
	case percent >= 60:
		return OverallFeedback{
			Strengths: []string{
				"Demonstrated good technical knowledge",
				"Provided some relevant examples",
				"Showed problem-solving ability",
			},
			Improvements: []string{
				"Be more specific with examples",
				"Elaborate more on technical implementations",
				"Structure answers more clearly",
			},
		}
	default:
		return OverallFeedback{
			Strengths: []string{
				"Attempted to answer all questions",
				"Showed willingness to engage with difficult topics",
			},
			Improvements: []string{
				"Strengthen technical knowledge in key areas",
				"Provide specific examples from experience",
				"Practice structuring answers more clearly",
				"Focus on addressing the core of each question",
			},
		}
	}
}
