package services

import (
	"bytes"
	"context"
	"errors"
	"mime"
	"time"

	"github.com/google/uuid"

	"github.com/yoockh/careermentor/internal/models"
	"github.com/yoockh/careermentor/internal/providers/stt"
	pgrepo "github.com/yoockh/careermentor/internal/repositories/postgres"
	"github.com/yoockh/careermentor/internal/storage"
	"github.com/yoockh/careermentor/internal/utils"
)

// MaxAnswerAudioBytes bounds a synchronous recognition request.
const MaxAnswerAudioBytes = 10 << 20

type VoiceAnswer struct {
	UserID        string
	SessionID     string
	QuestionIndex int
	MimeType      string
	Language      string
	Audio         []byte
}

// VoiceService transcribes a spoken answer and keeps the recording.
type VoiceService interface {
	Transcribe(ctx context.Context, in VoiceAnswer) (*models.AnswerAudio, error)
}

type voiceService struct {
	speech   stt.Provider
	uploader storage.Uploader
	repo     pgrepo.AudioRepository
	now      func() time.Time
}

func NewVoiceService(speech stt.Provider, uploader storage.Uploader, repo pgrepo.AudioRepository) VoiceService {
	return &voiceService{speech: speech, uploader: uploader, repo: repo, now: time.Now}
}

func (s *voiceService) Transcribe(ctx context.Context, in VoiceAnswer) (*models.AnswerAudio, error) {
	const op = "VoiceService.Transcribe"

	if in.UserID == "" || in.SessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and session_id are required", nil)
	}
	if len(in.Audio) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "audio is empty", nil)
	}
	if len(in.Audio) > MaxAnswerAudioBytes {
		return nil, utils.E(utils.CodeInvalidArgument, op, "audio is too large", nil)
	}
	if s.speech == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "speech recognition is not enabled", nil)
	}

	text, conf, err := s.speech.Transcribe(ctx, in.Audio, in.MimeType, in.Language)
	if err != nil {
		if errors.Is(err, stt.ErrUnsupportedFormat) {
			return nil, utils.E(utils.CodeInvalidArgument, op, "unsupported audio format", err)
		}
		return nil, utils.E(utils.CodeUnavailable, op, "speech recognition failed", err)
	}

	row := &models.AnswerAudio{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		SessionID:     in.SessionID,
		QuestionIndex: in.QuestionIndex,
		FileSize:      len(in.Audio),
		MimeType:      in.MimeType,
		Transcript:    text,
		Confidence:    conf,
		UploadAt:      s.now().UTC(),
	}

	if s.uploader != nil {
		object := storage.AnswerAudioObject(in.UserID, in.SessionID, in.QuestionIndex, row.ID, audioExt(in.MimeType))
		if _, err := s.uploader.Upload(ctx, object, in.MimeType, bytes.NewReader(in.Audio)); err != nil {
			return nil, utils.E(utils.CodeUnavailable, op, "failed to upload audio", err)
		}
		// object key, signed on read
		row.FilePath = object
	}

	if s.repo != nil {
		if err := s.repo.Insert(ctx, row); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to persist answer audio", err)
		}
	}
	return row, nil
}

func audioExt(mimeType string) string {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return ""
	}
	switch mt {
	case "audio/webm":
		return ".webm"
	case "audio/ogg":
		return ".ogg"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/flac", "audio/x-flac":
		return ".flac"
	}
	return ""
}
