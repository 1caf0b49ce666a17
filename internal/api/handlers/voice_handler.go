package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/careermentor/internal/services"
	"github.com/yoockh/careermentor/internal/session"
	"github.com/yoockh/careermentor/internal/utils"
)

type VoiceHandler struct {
	interviews services.InterviewService
	voice      services.VoiceService
}

func NewVoiceHandler(interviews services.InterviewService, voice services.VoiceService) *VoiceHandler {
	return &VoiceHandler{interviews: interviews, voice: voice}
}

type VoiceAnswerResponse struct {
	Transcript string           `json:"transcript"`
	Confidence float64          `json:"confidence"`
	Snapshot   session.Snapshot `json:"snapshot"`
}

// Answer transcribes the multipart field "audio" into the draft of the
// current question. With submit=true the transcript is submitted as well.
func (h *VoiceHandler) Answer(c *gin.Context) {
	const op = "VoiceHandler.Answer"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	sessionID := c.Param("id")
	ctx := c.Request.Context()

	snap, err := h.interviews.Get(ctx, userID, sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if snap.State != session.StateAwaitingAnswer {
		writeError(c, utils.E(utils.CodeConflict, op, "interview is not waiting for an answer", nil))
		return
	}

	fh, err := c.FormFile("audio")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing multipart field 'audio'", err))
		return
	}
	if fh.Size <= 0 || fh.Size > services.MaxAnswerAudioBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "audio too large (max 10MB)", nil))
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to open upload", err))
		return
	}
	defer f.Close()

	audio, err := io.ReadAll(io.LimitReader(f, services.MaxAnswerAudioBytes+1))
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to read upload", err))
		return
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(audio)
	}
	// empty language means the recognizer default
	lang := strings.TrimSpace(c.PostForm("language"))

	row, err := h.voice.Transcribe(ctx, services.VoiceAnswer{
		UserID:        userID,
		SessionID:     sessionID,
		QuestionIndex: snap.QuestionIndex,
		MimeType:      mimeType,
		Language:      lang,
		Audio:         audio,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	if c.PostForm("submit") == "true" {
		snap, err = h.interviews.Submit(ctx, userID, sessionID, row.Transcript)
	} else {
		snap, err = h.interviews.Draft(ctx, userID, sessionID, row.Transcript)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, VoiceAnswerResponse{
		Transcript: row.Transcript,
		Confidence: row.Confidence,
		Snapshot:   snap,
	})
}
