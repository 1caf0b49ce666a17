package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/careermentor/internal/llmjson"
	"github.com/yoockh/careermentor/internal/logger"
	"github.com/yoockh/careermentor/internal/models"
	"github.com/yoockh/careermentor/internal/providers/llm"
)

// AnswerEvaluator scores one answer. It never fails: on any generation
// problem a default Feedback is returned.
type AnswerEvaluator interface {
	Evaluate(ctx context.Context, q models.Question, answer string) models.Feedback
}

type answerEvaluator struct {
	gen  llm.Generator
	log  *logrus.Logger
	intN func(n int) int
}

type EvaluatorOption func(*answerEvaluator)

// WithRandom replaces the source of the fallback score.
func WithRandom(intN func(n int) int) EvaluatorOption {
	return func(e *answerEvaluator) { e.intN = intN }
}

func NewAnswerEvaluator(gen llm.Generator, log *logrus.Logger, opts ...EvaluatorOption) AnswerEvaluator {
	if log == nil {
		log = logger.Discard()
	}
	e := &answerEvaluator{gen: gen, log: log, intN: rand.IntN}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *answerEvaluator) Evaluate(ctx context.Context, q models.Question, answer string) models.Feedback {
	fb, err := e.evaluate(ctx, q, answer)
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"op":      "AnswerEvaluator.Evaluate",
			"failure": failureKind(err),
		}).WithError(err).Warn("answer evaluation failed, using default feedback")
		return e.defaultFeedback(err)
	}
	return fb
}

func (e *answerEvaluator) evaluate(ctx context.Context, q models.Question, answer string) (models.Feedback, error) {
	if e.gen == nil {
		return models.Feedback{}, errNoProvider
	}
	text, err := e.gen.Generate(ctx, BuildFeedbackPrompt(q, answer))
	if err != nil {
		return models.Feedback{}, err
	}
	return ParseFeedback(text)
}

// BuildFeedbackPrompt embeds the question, its hint and the answer.
func BuildFeedbackPrompt(q models.Question, answer string) string {
	var b strings.Builder
	b.WriteString("You are an expert interviewer evaluating a candidate's response to the following interview question:\n\n")
	fmt.Fprintf(&b, "Question: %q\n\n", q.Text)
	fmt.Fprintf(&b, "Expected elements in a good answer: %s\n\n", q.ExpectedAnswerHint)
	fmt.Fprintf(&b, "Candidate's answer: %q\n\n", answer)
	b.WriteString(`Please evaluate the answer and provide:
1. A score from 1-10
2. Brief feedback (2-3 sentences)
3. 2-3 strengths of the answer
4. 2-3 areas for improvement

Format your response as a JSON object with the following structure:
{
  "score": number,
  "feedback": "string",
  "strengths": ["string", "string"],
  "improvements": ["string", "string"]
}`)
	return b.String()
}

type feedbackReply struct {
	Score        json.Number `json:"score"`
	Feedback     string      `json:"feedback"`
	Strengths    []string    `json:"strengths"`
	Improvements []string    `json:"improvements"`
}

// ParseFeedback extracts the first object whose first key is "score".
// Scores outside [1,10] are clamped and nil lists become empty.
func ParseFeedback(text string) (models.Feedback, error) {
	reply, err := llmjson.DecodeObject[feedbackReply](text, "score")
	if err != nil {
		return models.Feedback{}, err
	}
	// models answer 7.5 or "8" as often as 8
	score, err := reply.Score.Float64()
	if err != nil {
		return models.Feedback{}, &llmjson.ParseError{Kind: llmjson.KindMalformed, Err: err}
	}
	fb := models.Feedback{
		Score:        clampScore(int(math.Round(score))),
		Commentary:   reply.Feedback,
		Strengths:    reply.Strengths,
		Improvements: reply.Improvements,
	}
	if fb.Strengths == nil {
		fb.Strengths = []string{}
	}
	if fb.Improvements == nil {
		fb.Improvements = []string{}
	}
	return fb, nil
}

func clampScore(s int) int {
	if s < models.MinScore {
		return models.MinScore
	}
	if s > models.MaxScore {
		return models.MaxScore
	}
	return s
}

func (e *answerEvaluator) defaultFeedback(cause error) models.Feedback {
	// 5, 6 or 7
	score := 5 + e.intN(3)

	if errors.Is(cause, llm.ErrMissingAPIKey) || errors.Is(cause, errNoProvider) {
		return models.Feedback{
			Score:        score,
			Commentary:   "Unable to connect to AI for detailed feedback. Your answer has been recorded.",
			Strengths:    []string{"Answer recorded."},
			Improvements: []string{"Enable API key for detailed AI feedback."},
		}
	}
	return models.Feedback{
		Score:        score,
		Commentary:   "There was an issue getting detailed feedback from the AI. Your answer has been recorded.",
		Strengths:    []string{"Answer submitted successfully."},
		Improvements: []string{"AI feedback service temporarily unavailable. Try again later."},
	}
}
