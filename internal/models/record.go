package models

import (
	"time"

	"gorm.io/datatypes"
)

// InterviewRecord is one question of a completed session, with the answer
// and feedback it received. Skipped questions have a nil Score.
type InterviewRecord struct {
	ID            string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID        string `gorm:"column:user_id;type:text;index" json:"user_id"`
	SessionID     string `gorm:"column:session_id;type:uuid;index" json:"session_id"`
	QuestionIndex int    `gorm:"column:question_index;type:integer" json:"question_index"`

	Question   string `gorm:"column:question;type:text" json:"question"`
	Category   string `gorm:"column:category;type:text" json:"category"`
	Difficulty string `gorm:"column:difficulty;type:text" json:"difficulty"`

	Answer   string `gorm:"column:answer;type:text" json:"answer"`
	Skipped  bool   `gorm:"column:skipped" json:"skipped"`
	TimedOut bool   `gorm:"column:timed_out" json:"timed_out"`

	Score        *int           `gorm:"column:score;type:integer" json:"score,omitempty"`
	Commentary   string         `gorm:"column:commentary;type:text" json:"feedback,omitempty"`
	Strengths    datatypes.JSON `gorm:"column:strengths;type:jsonb" json:"strengths,omitempty"`
	Improvements datatypes.JSON `gorm:"column:improvements;type:jsonb" json:"improvements,omitempty"`

	SubmittedAt time.Time `gorm:"column:submitted_at;type:timestamptz" json:"submitted_at"`
}

func (InterviewRecord) TableName() string { return "interview_records" }

// AnswerAudio is the metadata of a spoken answer uploaded for transcription.
type AnswerAudio struct {
	ID            string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID        string `gorm:"column:user_id;type:text;index" json:"user_id"`
	SessionID     string `gorm:"column:session_id;type:uuid;index" json:"session_id"`
	QuestionIndex int    `gorm:"column:question_index;type:integer" json:"question_index"`

	FilePath string `gorm:"column:file_path;type:text" json:"file_path,omitempty"`
	FileSize int    `gorm:"column:file_size;type:integer" json:"file_size"`
	MimeType string `gorm:"column:mime_type;type:text" json:"mime_type"`

	Transcript string  `gorm:"column:transcript;type:text" json:"transcript"`
	Confidence float64 `gorm:"column:confidence" json:"confidence"`

	UploadAt time.Time `gorm:"column:upload_at;type:timestamptz" json:"upload_at"`
}

func (AnswerAudio) TableName() string { return "answer_audio" }
