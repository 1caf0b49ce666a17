package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/careermentor/internal/models"
	"github.com/yoockh/careermentor/internal/services"
)

type InterviewHandler struct {
	svc services.InterviewService
}

func NewInterviewHandler(svc services.InterviewService) *InterviewHandler {
	return &InterviewHandler{svc: svc}
}

type AnswerRequest struct {
	Text string `json:"text"`
}

// Start accepts an optional body of settings overrides.
func (h *InterviewHandler) Start(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var overrides models.SessionSettings
	if !bindJSON(c, "InterviewHandler.Start", &overrides, true) {
		return
	}

	snap, err := h.svc.Start(c.Request.Context(), userID, overrides)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

func (h *InterviewHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	snap, err := h.svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *InterviewHandler) Draft(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req AnswerRequest
	if !bindJSON(c, "InterviewHandler.Draft", &req, false) {
		return
	}

	snap, err := h.svc.Draft(c.Request.Context(), userID, c.Param("id"), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Submit blocks until the feedback for the answer is ready.
func (h *InterviewHandler) Submit(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req AnswerRequest
	if !bindJSON(c, "InterviewHandler.Submit", &req, false) {
		return
	}

	snap, err := h.svc.Submit(c.Request.Context(), userID, c.Param("id"), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *InterviewHandler) Skip(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	snap, err := h.svc.Skip(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *InterviewHandler) Next(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	snap, err := h.svc.Next(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *InterviewHandler) Abandon(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	if err := h.svc.Abandon(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
