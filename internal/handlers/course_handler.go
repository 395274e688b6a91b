package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/services"
)

// CourseHandler covers the authoring surface: courses, modules, slides and
// student management.
type CourseHandler struct {
	BaseHandler
	moduleService services.ModuleService
	exportService services.ExportService
}

func NewCourseHandler(moduleService services.ModuleService, exportService services.ExportService, logger *slog.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   NewBaseHandler(logger),
		moduleService: moduleService,
		exportService: exportService,
	}
}

// ===== COURSES =====

func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req services.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	course, err := h.moduleService.CreateCourse(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

func (h *CourseHandler) GetCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	course, err := h.moduleService.GetCourse(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) ListCourses(c *gin.Context) {
	limit := h.parseIntQuery(c, "limit", 20)
	offset := h.parseIntQuery(c, "offset", 0)

	courses, total, err := h.moduleService.ListCourses(c.Request.Context(), limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"courses": courses,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// ===== MODULES =====

func (h *CourseHandler) CreateModule(c *gin.Context) {
	var req services.CreateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	module, err := h.moduleService.CreateModule(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, module)
}

func (h *CourseHandler) UpdateModule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	module, err := h.moduleService.UpdateModule(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, module)
}

func (h *CourseHandler) PublishModule(c *gin.Context) {
	h.setStatus(c, models.ModulePublished)
}

func (h *CourseHandler) UnpublishModule(c *gin.Context) {
	h.setStatus(c, models.ModuleDraft)
}

func (h *CourseHandler) setStatus(c *gin.Context, status models.ModuleStatus) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.moduleService.SetStatus(c.Request.Context(), id, status); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Module status updated"})
}

func (h *CourseHandler) SearchModules(c *gin.Context) {
	filters := repositories.ModuleFilters{
		Limit:     h.parseIntQuery(c, "limit", 20),
		Offset:    h.parseIntQuery(c, "offset", 0),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if courseID := uint(h.parseIntQuery(c, "course_id", 0)); courseID != 0 {
		filters.CourseID = &courseID
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.ModuleStatus(statusStr)
		filters.Status = &status
	}

	modules, total, err := h.moduleService.Search(c.Request.Context(), c.Query("q"), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"modules": modules,
		"total":   total,
	})
}

// ===== SLIDES =====

func (h *CourseHandler) AddSlide(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}

	var req services.SlideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	slide, err := h.moduleService.AddSlide(c.Request.Context(), moduleID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, slide)
}

func (h *CourseHandler) UpdateSlide(c *gin.Context) {
	slideID := h.parseIDParam(c, "slide_id")
	if slideID == 0 {
		return
	}

	var req services.SlideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	slide, err := h.moduleService.UpdateSlide(c.Request.Context(), slideID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, slide)
}

func (h *CourseHandler) DeleteSlide(c *gin.Context) {
	slideID := h.parseIDParam(c, "slide_id")
	if slideID == 0 {
		return
	}

	if err := h.moduleService.DeleteSlide(c.Request.Context(), slideID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Slide deleted"})
}

func (h *CourseHandler) ReorderSlides(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}

	var req struct {
		SlideIDs []uint `json:"slide_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.moduleService.ReorderSlides(c.Request.Context(), moduleID, req.SlideIDs); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Slides reordered"})
}

// ===== STUDENT MANAGEMENT =====

func (h *CourseHandler) AssignStudent(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}
	studentID := c.Param("student_id")
	if studentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid student_id"})
		return
	}

	if err := h.moduleService.AssignStudent(c.Request.Context(), moduleID, studentID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Student assigned"})
}

func (h *CourseHandler) GrantQuizAccess(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}
	studentID := c.Param("student_id")
	if studentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid student_id"})
		return
	}

	if err := h.moduleService.GrantQuizAccess(c.Request.Context(), moduleID, studentID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Quiz access granted"})
}

func (h *CourseHandler) ResetProgress(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}
	studentID := c.Param("student_id")
	if studentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid student_id"})
		return
	}

	h.LogRequest(c, "Resetting student progress", "course_id", courseID, "student_id", studentID)

	if err := h.moduleService.ResetProgress(c.Request.Context(), studentID, courseID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Progress reset"})
}

// ===== EXPORTS =====

func (h *CourseHandler) ExportProgress(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	data, err := h.exportService.ExportCourseProgress(c.Request.Context(), courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="course_progress.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *CourseHandler) ExportCertificates(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	data, err := h.exportService.ExportCertificateRoster(c.Request.Context(), courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="course_certificates.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
