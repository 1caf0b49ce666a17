package services

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/yoockh/careermentor/internal/llmjson"
	"github.com/yoockh/careermentor/internal/logger"
	"github.com/yoockh/careermentor/internal/models"
	"github.com/yoockh/careermentor/internal/providers/llm"
)

const DefaultQuestionCount = 10

// QuestionSource produces the ordered questions of one session. It never
// fails: any generation problem is logged and the fallback bank is returned.
type QuestionSource interface {
	Generate(ctx context.Context, settings models.SessionSettings) []models.Question
}

type questionSource struct {
	gen   llm.Generator
	count int
	log   *logrus.Logger
}

func NewQuestionSource(gen llm.Generator, count int, log *logrus.Logger) QuestionSource {
	if count <= 0 {
		count = DefaultQuestionCount
	}
	if log == nil {
		log = logger.Discard()
	}
	return &questionSource{gen: gen, count: count, log: log}
}

func (s *questionSource) Generate(ctx context.Context, settings models.SessionSettings) []models.Question {
	settings = settings.WithDefaults()

	qs, err := s.generate(ctx, settings)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"op":      "QuestionSource.Generate",
			"failure": failureKind(err),
		}).WithError(err).Warn("question generation failed, using fallback questions")
		return FallbackQuestions()
	}
	return qs
}

func (s *questionSource) generate(ctx context.Context, settings models.SessionSettings) ([]models.Question, error) {
	if s.gen == nil {
		return nil, errNoProvider
	}
	text, err := s.gen.Generate(ctx, BuildQuestionPrompt(settings, s.count))
	if err != nil {
		return nil, err
	}
	return ParseQuestions(text)
}

// BuildQuestionPrompt asks for count questions as a JSON array of the
// Question shape.
func BuildQuestionPrompt(settings models.SessionSettings, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d realistic interview questions for a %s %s position",
		count, settings.ExperienceLevel, settings.JobTitle)
	if settings.Company != "" {
		fmt.Fprintf(&b, " at %s", settings.Company)
	}
	b.WriteString(".\n")
	fmt.Fprintf(&b, "This is for a %s.\n", settings.InterviewType)
	fmt.Fprintf(&b, "The candidate has the following skills: %s.\n\n", strings.Join(settings.Skills, ", "))
	b.WriteString(`Format the response as a JSON array of objects with the following structure:
[
  {
    "question": "The interview question text",
    "category": "technical" or "behavioral" or "situational",
    "difficulty": "easy" or "medium" or "hard",
    "expectedAnswer": "A brief description of what a good answer should include"
  },
  ...
]

Include a mix of technical, behavioral, and situational questions appropriate for the position.`)
	return b.String()
}

// ParseQuestions extracts the question array from model output. Elements
// without text or with an unknown category are dropped; an unknown
// difficulty becomes medium. An empty result is a parse error.
func ParseQuestions(text string) ([]models.Question, error) {
	raw, err := llmjson.DecodeArray[models.Question](text)
	if err != nil {
		return nil, err
	}

	out := make([]models.Question, 0, len(raw))
	for _, q := range raw {
		q.Text = strings.TrimSpace(q.Text)
		q.Category = models.Category(strings.ToLower(strings.TrimSpace(string(q.Category))))
		q.Difficulty = models.Difficulty(strings.ToLower(strings.TrimSpace(string(q.Difficulty))))

		if q.Text == "" || !q.Category.Valid() {
			continue
		}
		if !q.Difficulty.Valid() {
			q.Difficulty = models.DifficultyMedium
		}
		out = append(out, q)
	}
	if len(out) == 0 {
		return nil, llmjson.Empty("no usable questions in response")
	}
	return out, nil
}

//go:embed fallback_questions.yaml
var fallbackYAML []byte

var loadFallback = sync.OnceValues(func() ([]models.Question, error) {
	var qs []models.Question
	if err := yaml.Unmarshal(fallbackYAML, &qs); err != nil {
		return nil, err
	}
	return qs, nil
})

// FallbackQuestions returns a fresh copy of the embedded question bank.
func FallbackQuestions() []models.Question {
	qs, err := loadFallback()
	if err != nil {
		panic(fmt.Sprintf("fallback_questions.yaml: %v", err))
	}
	return append([]models.Question(nil), qs...)
}
