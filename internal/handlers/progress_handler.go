package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/services"
)

// ProgressHandler covers the student-facing study flow: the slide player,
// notes and certificates.
type ProgressHandler struct {
	BaseHandler
	slideService       services.SlideService
	noteService        services.NoteService
	certificateService services.CertificateService
}

func NewProgressHandler(
	slideService services.SlideService,
	noteService services.NoteService,
	certificateService services.CertificateService,
	logger *slog.Logger,
) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:        NewBaseHandler(logger),
		slideService:       slideService,
		noteService:        noteService,
		certificateService: certificateService,
	}
}

// ===== SLIDE PLAYER =====

func (h *ProgressHandler) CurrentSlide(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	step, err := h.slideService.Current(c.Request.Context(), userID, moduleID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, step)
}

func (h *ProgressHandler) AdvanceSlide(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	step, err := h.slideService.Advance(c.Request.Context(), userID, moduleID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, step)
}

func (h *ProgressHandler) RetreatSlide(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	step, err := h.slideService.Retreat(c.Request.Context(), userID, moduleID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, step)
}

func (h *ProgressHandler) ChooseVariant(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req struct {
		Variant models.StudyVariant `json:"variant"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.slideService.ChooseVariant(c.Request.Context(), userID, moduleID, req.Variant); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Study variant updated"})
}

// ===== NOTES =====

func (h *ProgressHandler) SaveNote(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.noteService.Save(c.Request.Context(), userID, moduleID, req.Body)
	c.JSON(http.StatusAccepted, SuccessResponse{Message: "Note scheduled"})
}

func (h *ProgressHandler) GetNote(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	note, err := h.noteService.Get(c.Request.Context(), userID, moduleID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

// ===== CERTIFICATES =====

func (h *ProgressHandler) MyCertificates(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	certificates, err := h.certificateService.ForStudent(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"certificates": certificates})
}
