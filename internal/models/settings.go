package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

const (
	DefaultJobTitle        = "Frontend Developer"
	DefaultExperienceLevel = "Mid Level (2-5 years)"
	DefaultInterviewType   = "Technical Interview"
)

func DefaultSkills() []string {
	return []string{"JavaScript", "React", "CSS"}
}

type SessionSettings struct {
	JobTitle        string   `json:"job_title"`
	ExperienceLevel string   `json:"experience_level"`
	InterviewType   string   `json:"interview_type"`
	Skills          []string `json:"skills"`
	Company         string   `json:"company,omitempty"`
}

func DefaultSettings() SessionSettings {
	return SessionSettings{}.WithDefaults()
}

// WithDefaults fills every missing field independently.
func (s SessionSettings) WithDefaults() SessionSettings {
	if strings.TrimSpace(s.JobTitle) == "" {
		s.JobTitle = DefaultJobTitle
	}
	if strings.TrimSpace(s.ExperienceLevel) == "" {
		s.ExperienceLevel = DefaultExperienceLevel
	}
	if strings.TrimSpace(s.InterviewType) == "" {
		s.InterviewType = DefaultInterviewType
	}
	if len(s.Skills) == 0 {
		s.Skills = DefaultSkills()
	} else {
		s.Skills = append([]string(nil), s.Skills...)
	}
	return s
}

// Merge overlays the non-empty fields of o onto s.
func (s SessionSettings) Merge(o SessionSettings) SessionSettings {
	if o.JobTitle != "" {
		s.JobTitle = o.JobTitle
	}
	if o.ExperienceLevel != "" {
		s.ExperienceLevel = o.ExperienceLevel
	}
	if o.InterviewType != "" {
		s.InterviewType = o.InterviewType
	}
	if len(o.Skills) > 0 {
		s.Skills = append([]string(nil), o.Skills...)
	}
	if o.Company != "" {
		s.Company = o.Company
	}
	return s
}

// InterviewSettingsRow is the persisted form of SessionSettings.
type InterviewSettingsRow struct {
	UserID          string         `gorm:"column:user_id;type:text;primaryKey" json:"user_id"`
	JobTitle        string         `gorm:"column:job_title;type:text" json:"job_title"`
	ExperienceLevel string         `gorm:"column:experience_level;type:text" json:"experience_level"`
	InterviewType   string         `gorm:"column:interview_type;type:text" json:"interview_type"`
	Skills          pq.StringArray `gorm:"column:skills;type:text[]" json:"skills"`
	Company         string         `gorm:"column:company;type:text" json:"company"`

	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (InterviewSettingsRow) TableName() string { return "interview_settings" }

func (r InterviewSettingsRow) Settings() SessionSettings {
	return SessionSettings{
		JobTitle:        r.JobTitle,
		ExperienceLevel: r.ExperienceLevel,
		InterviewType:   r.InterviewType,
		Skills:          []string(r.Skills),
		Company:         r.Company,
	}
}

func NewSettingsRow(userID string, s SessionSettings) *InterviewSettingsRow {
	return &InterviewSettingsRow{
		UserID:          userID,
		JobTitle:        s.JobTitle,
		ExperienceLevel: s.ExperienceLevel,
		InterviewType:   s.InterviewType,
		Skills:          pq.StringArray(s.Skills),
		Company:         s.Company,
	}
}
