package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/careermentor/internal/services"
)

type HistoryHandler struct {
	history     services.HistoryService
	transcripts services.TranscriptService
}

func NewHistoryHandler(history services.HistoryService, transcripts services.TranscriptService) *HistoryHandler {
	return &HistoryHandler{history: history, transcripts: transcripts}
}

func (h *HistoryHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	list, err := h.history.List(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

func (h *HistoryHandler) Transcript(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	tr, err := h.transcripts.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tr)
}
