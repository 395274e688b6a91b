package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/services"
)

// AttemptHandler drives the quiz flow for students.
type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewAttemptHandler(attemptService services.AttemptService, logger *slog.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Starting quiz attempt", "module_id", moduleID)

	state, err := h.attemptService.Start(c.Request.Context(), userID, moduleID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, state)
}

func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
	sessionID := c.Param("session_id")
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req services.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.attemptService.Answer(c.Request.Context(), userID, sessionID, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Answer recorded"})
}

func (h *AttemptHandler) NextQuestion(c *gin.Context) {
	sessionID := c.Param("session_id")
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	state, err := h.attemptService.Next(c.Request.Context(), userID, sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	sessionID := c.Param("session_id")
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	state, err := h.attemptService.Submit(c.Request.Context(), userID, sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *AttemptHandler) RetakeAttempt(c *gin.Context) {
	sessionID := c.Param("session_id")
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	state, err := h.attemptService.Retake(c.Request.Context(), userID, sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *AttemptHandler) TeardownAttempt(c *gin.Context) {
	sessionID := c.Param("session_id")
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	if err := h.attemptService.Teardown(c.Request.Context(), userID, sessionID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Attempt closed"})
}

func (h *AttemptHandler) ReportCheatEvent(c *gin.Context) {
	sessionID := c.Param("session_id")
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var report services.CheatReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if report.UserAgent == "" {
		report.UserAgent = c.Request.UserAgent()
	}

	state, err := h.attemptService.ReportCheat(c.Request.Context(), userID, sessionID, &report)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *AttemptHandler) RequestQuizAccess(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	if err := h.attemptService.RequestQuizAccess(c.Request.Context(), userID, moduleID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Quiz access requested"})
}
