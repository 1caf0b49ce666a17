package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/careermentor/internal/models"
	"github.com/yoockh/careermentor/internal/services"
)

type SettingsHandler struct {
	svc services.SettingsService
}

func NewSettingsHandler(svc services.SettingsService) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	s, err := h.svc.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// Update applies a partial update; empty fields keep their stored value.
func (h *SettingsHandler) Update(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req models.SessionSettings
	if !bindJSON(c, "SettingsHandler.Update", &req, false) {
		return
	}

	s, err := h.svc.Update(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
