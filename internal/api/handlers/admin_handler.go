package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/careermentor/internal/services"
)

type AdminHandler struct {
	interviews services.InterviewService
}

func NewAdminHandler(interviews services.InterviewService) *AdminHandler {
	return &AdminHandler{interviews: interviews}
}

func (h *AdminHandler) ActiveInterviews(c *gin.Context) {
	active := h.interviews.Active()
	c.JSON(http.StatusOK, gin.H{"count": len(active), "items": active})
}
