package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/yoockh/careermentor/internal/logger"
	"github.com/yoockh/careermentor/internal/models"
	pgrepo "github.com/yoockh/careermentor/internal/repositories/postgres"
	"github.com/yoockh/careermentor/internal/session"
	"github.com/yoockh/careermentor/internal/storage"
	"github.com/yoockh/careermentor/internal/utils"
)

const audioURLTTL = 15 * time.Minute

type AudioLink struct {
	QuestionIndex int     `json:"question_index"`
	URL           string  `json:"url,omitempty"`
	Transcript    string  `json:"transcript"`
	Confidence    float64 `json:"confidence"`
}

type Transcript struct {
	Summary models.SessionSummary    `json:"summary"`
	Overall models.OverallFeedback   `json:"overall"`
	Records []models.InterviewRecord `json:"records"`
	Audio   []AudioLink              `json:"audio,omitempty"`
}

type TranscriptService interface {
	// Record persists one row per question of a completed session.
	Record(ctx context.Context, snap session.Snapshot) error
	Get(ctx context.Context, userID, sessionID string) (*Transcript, error)
}

type transcriptService struct {
	records pgrepo.RecordRepository
	audio   pgrepo.AudioRepository
	history HistoryService
	signer  storage.Signer
	log     *logrus.Logger
}

func NewTranscriptService(records pgrepo.RecordRepository, audio pgrepo.AudioRepository, history HistoryService, signer storage.Signer, log *logrus.Logger) TranscriptService {
	if log == nil {
		log = logger.Discard()
	}
	return &transcriptService{records: records, audio: audio, history: history, signer: signer, log: log}
}

func (s *transcriptService) Record(ctx context.Context, snap session.Snapshot) error {
	const op = "TranscriptService.Record"

	if snap.State != session.StateCompleted {
		return utils.E(utils.CodeConflict, op, "session is not completed", nil)
	}

	rows := make([]models.InterviewRecord, 0, len(snap.Questions))
	for i, q := range snap.Questions {
		ans, ok := snap.Answers[i]
		if !ok {
			continue
		}
		row := models.InterviewRecord{
			ID:            uuid.NewString(),
			UserID:        snap.UserID,
			SessionID:     snap.ID,
			QuestionIndex: i,
			Question:      q.Text,
			Category:      string(q.Category),
			Difficulty:    string(q.Difficulty),
			Answer:        ans.Text,
			Skipped:       ans.Skipped,
			TimedOut:      ans.TimedOut,
			SubmittedAt:   ans.SubmittedAt,
		}
		if fb, ok := snap.Feedbacks[i]; ok {
			score := fb.Score
			row.Score = &score
			row.Commentary = fb.Commentary
			row.Strengths = jsonList(fb.Strengths)
			row.Improvements = jsonList(fb.Improvements)
		}
		rows = append(rows, row)
	}

	if err := s.records.InsertBatch(ctx, rows); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to store transcript", err)
	}
	return nil
}

func (s *transcriptService) Get(ctx context.Context, userID, sessionID string) (*Transcript, error) {
	const op = "TranscriptService.Get"

	sum, err := s.history.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	rows, err := s.records.ListBySession(ctx, userID, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list transcript", err)
	}

	out := &Transcript{
		Summary: *sum,
		Overall: models.OverallFeedbackFor(sum.FinalScorePercent),
		Records: rows,
	}

	if s.audio != nil {
		clips, err := s.audio.ListBySession(ctx, sessionID)
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to list answer audio", err)
		}
		for _, a := range clips {
			link := AudioLink{QuestionIndex: a.QuestionIndex, Transcript: a.Transcript, Confidence: a.Confidence}
			if s.signer != nil && a.FilePath != "" {
				u, err := s.signer.SignedGetURL(ctx, a.FilePath, audioURLTTL)
				if err != nil {
					s.log.WithFields(logrus.Fields{"op": op, "session_id": sessionID}).WithError(err).Warn("failed to sign audio url")
				} else {
					link.URL = u
				}
			}
			out.Audio = append(out.Audio, link)
		}
	}
	return out, nil
}

func jsonList(items []string) datatypes.JSON {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return datatypes.JSON(b)
}
