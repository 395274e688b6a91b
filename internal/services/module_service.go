package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/cache"
	apperrors "github.com/JosefMarie/usafi-barista-app-sub003/internal/errors"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories"
)

type moduleService struct {
	repo      repositories.Repository
	cache     cache.Cache
	validator *validator.Validate
	logger    *slog.Logger
}

func NewModuleService(repo repositories.Repository, c cache.Cache, v *validator.Validate, logger *slog.Logger) ModuleService {
	return &moduleService{repo: repo, cache: c, validator: v, logger: logger}
}

// ===== COURSES =====

func (s *moduleService) CreateCourse(ctx context.Context, req *CreateCourseRequest, creatorID string) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.ToValidationErrors(err)
	}

	course := &models.Course{
		Title:       req.Title,
		Description: req.Description,
		Kind:        req.Kind,
		Language:    req.Language,
		CreatedBy:   creatorID,
	}
	if course.Kind == "" {
		course.Kind = models.CourseStandard
	}
	if course.Language == "" {
		course.Language = "en"
	}

	if err := s.repo.Course().Create(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info("course created",
		"course_id", course.ID,
		"title", course.Title,
		"kind", course.Kind,
		"created_by", creatorID)
	return course, nil
}

func (s *moduleService) GetCourse(ctx context.Context, id uint) (*models.Course, error) {
	course, err := s.repo.Course().GetByIDWithModules(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to load course %d: %w", id, err)
	}
	return course, nil
}

func (s *moduleService) ListCourses(ctx context.Context, limit, offset int) ([]*models.Course, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.Course().List(ctx, limit, offset)
}

// ===== MODULES =====

func (s *moduleService) CreateModule(ctx context.Context, req *CreateModuleRequest, creatorID string) (*models.Module, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.ToValidationErrors(err)
	}
	if err := validateQuiz(&req.Quiz); err != nil {
		return nil, err
	}

	if _, err := s.repo.Course().GetByID(ctx, req.CourseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to load course %d: %w", req.CourseID, err)
	}

	quizDoc, err := marshalQuiz(req.Quiz)
	if err != nil {
		return nil, err
	}
	module := &models.Module{
		CourseID:        req.CourseID,
		Title:           req.Title,
		Status:          models.ModuleDraft,
		Position:        req.Position,
		DurationMinutes: req.DurationMinutes,
		QuizGated:       req.QuizGated,
		Quiz:            quizDoc,
	}
	if err := s.repo.Module().Create(ctx, module); err != nil {
		return nil, fmt.Errorf("failed to create module: %w", err)
	}

	s.logger.Info("module created",
		"module_id", module.ID,
		"course_id", module.CourseID,
		"title", module.Title,
		"created_by", creatorID)
	return module, nil
}

func (s *moduleService) UpdateModule(ctx context.Context, id uint, req *UpdateModuleRequest) (*models.Module, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.ToValidationErrors(err)
	}

	module, err := s.repo.Module().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to load module %d: %w", id, err)
	}

	if req.Title != nil {
		module.Title = *req.Title
	}
	if req.Position != nil {
		module.Position = *req.Position
	}
	if req.DurationMinutes != nil {
		module.DurationMinutes = *req.DurationMinutes
	}
	if req.QuizGated != nil {
		module.QuizGated = *req.QuizGated
	}
	if req.Quiz != nil {
		if err := validateQuiz(req.Quiz); err != nil {
			return nil, err
		}
		doc, err := marshalQuiz(*req.Quiz)
		if err != nil {
			return nil, err
		}
		module.Quiz = doc
	}

	if err := s.repo.Module().Update(ctx, module); err != nil {
		return nil, fmt.Errorf("failed to update module %d: %w", id, err)
	}
	s.invalidateContent(ctx, id)
	return module, nil
}

// SetStatus publishes or unpublishes a module. Publishing requires a
// non-empty quiz so a student can never reach an ungradeable assessment.
func (s *moduleService) SetStatus(ctx context.Context, id uint, status models.ModuleStatus) error {
	if status != models.ModuleDraft && status != models.ModulePublished {
		return NewValidationError("status", "must be draft or published", string(status))
	}

	module, err := s.repo.Module().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrModuleNotFound
		}
		return fmt.Errorf("failed to load module %d: %w", id, err)
	}

	if status == models.ModulePublished {
		quiz := NormalizeQuiz(module.Quiz)
		if len(quiz.Questions) == 0 {
			return NewBusinessRuleError("publish_requires_questions",
				"a module cannot be published with an empty quiz",
				map[string]interface{}{"module_id": id})
		}
	}

	if err := s.repo.Module().UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("failed to update module status: %w", err)
	}
	s.invalidateContent(ctx, id)

	s.logger.Info("module status changed", "module_id", id, "status", status)
	return nil
}

func (s *moduleService) Search(ctx context.Context, query string, filters repositories.ModuleFilters) ([]*models.Module, int64, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}
	return s.repo.Module().Search(ctx, query, filters)
}

// ===== SLIDES =====

func (s *moduleService) AddSlide(ctx context.Context, moduleID uint, req *SlideRequest) (*models.Slide, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.ToValidationErrors(err)
	}

	module, err := s.repo.Module().GetByIDWithSlides(ctx, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to load module %d: %w", moduleID, err)
	}

	variant := req.Variant
	if variant == "" {
		variant = models.VariantFull
	}
	position := 0
	for _, existing := range module.Slides {
		if existing.Variant == variant && existing.Position >= position {
			position = existing.Position + 1
		}
	}

	slide := &models.Slide{
		ModuleID: moduleID,
		Title:    req.Title,
		Body:     req.Body,
		MediaURL: req.MediaURL,
		Position: position,
		Variant:  variant,
	}
	if err := s.repo.Module().CreateSlide(ctx, slide); err != nil {
		return nil, fmt.Errorf("failed to create slide: %w", err)
	}
	s.invalidateContent(ctx, moduleID)
	return slide, nil
}

func (s *moduleService) UpdateSlide(ctx context.Context, slideID uint, req *SlideRequest) (*models.Slide, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.ToValidationErrors(err)
	}

	slide, err := s.repo.Module().GetSlideByID(ctx, slideID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSlideNotFound
		}
		return nil, fmt.Errorf("failed to load slide %d: %w", slideID, err)
	}

	slide.Title = req.Title
	slide.Body = req.Body
	slide.MediaURL = req.MediaURL
	if req.Variant != "" {
		slide.Variant = req.Variant
	}
	if err := s.repo.Module().UpdateSlide(ctx, slide); err != nil {
		return nil, fmt.Errorf("failed to update slide %d: %w", slideID, err)
	}
	s.invalidateContent(ctx, slide.ModuleID)
	return slide, nil
}

func (s *moduleService) DeleteSlide(ctx context.Context, slideID uint) error {
	slide, err := s.repo.Module().GetSlideByID(ctx, slideID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSlideNotFound
		}
		return fmt.Errorf("failed to load slide %d: %w", slideID, err)
	}
	if err := s.repo.Module().DeleteSlide(ctx, slideID); err != nil {
		return fmt.Errorf("failed to delete slide %d: %w", slideID, err)
	}
	s.invalidateContent(ctx, slide.ModuleID)
	return nil
}

func (s *moduleService) ReorderSlides(ctx context.Context, moduleID uint, orderedIDs []uint) error {
	if len(orderedIDs) == 0 {
		return NewValidationError("slide_ids", "must not be empty", nil)
	}
	if err := s.repo.Module().ReorderSlides(ctx, moduleID, orderedIDs); err != nil {
		return fmt.Errorf("failed to reorder slides: %w", err)
	}
	s.invalidateContent(ctx, moduleID)
	return nil
}

// ===== STUDENT MANAGEMENT =====

func (s *moduleService) AssignStudent(ctx context.Context, moduleID uint, studentID string) error {
	if _, err := s.repo.Module().GetByID(ctx, moduleID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrModuleNotFound
		}
		return fmt.Errorf("failed to load module %d: %w", moduleID, err)
	}
	if err := s.repo.Module().AssignStudent(ctx, moduleID, studentID); err != nil {
		return fmt.Errorf("failed to assign student: %w", err)
	}
	s.logger.Info("student assigned", "module_id", moduleID, "student_id", studentID)
	return nil
}

func (s *moduleService) GrantQuizAccess(ctx context.Context, moduleID uint, studentID string) error {
	assigned, err := s.repo.Module().IsAssigned(ctx, moduleID, studentID)
	if err != nil {
		return fmt.Errorf("failed to check assignment: %w", err)
	}
	if !assigned {
		return ErrModuleNotAssigned
	}
	if err := s.repo.Module().GrantQuizAccess(ctx, moduleID, studentID); err != nil {
		return fmt.Errorf("failed to grant quiz access: %w", err)
	}
	s.logger.Info("quiz access granted", "module_id", moduleID, "student_id", studentID)
	return nil
}

// ResetProgress wipes a student's records across a course and rewinds the
// enrollment pointer, so the student starts the course over.
func (s *moduleService) ResetProgress(ctx context.Context, studentID string, courseID uint) error {
	modules, err := s.repo.Module().ListByCourse(ctx, courseID, repositories.ModuleFilters{})
	if err != nil {
		return fmt.Errorf("failed to list modules: %w", err)
	}
	if len(modules) == 0 {
		return ErrCourseNotFound
	}

	moduleIDs := make([]uint, 0, len(modules))
	for _, m := range modules {
		moduleIDs = append(moduleIDs, m.ID)
	}

	if err := s.repo.Progress().ResetByStudent(ctx, studentID, moduleIDs); err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}
	if err := s.repo.Enrollment().Reset(ctx, studentID, courseID); err != nil {
		return fmt.Errorf("failed to reset enrollment: %w", err)
	}

	s.logger.Info("progress reset",
		"student_id", studentID,
		"course_id", courseID,
		"modules", len(moduleIDs))
	return nil
}

// ===== helpers =====

func (s *moduleService) invalidateContent(ctx context.Context, moduleID uint) {
	if err := s.cache.Delete(ctx, moduleContentCacheKey(moduleID)); err != nil {
		s.logger.Warn("content cache invalidation failed", "module_id", moduleID, "error", err)
	}
}

func marshalQuiz(q models.Quiz) (datatypes.JSON, error) {
	doc, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("failed to encode quiz: %w", err)
	}
	return doc, nil
}

// validateQuiz checks the per-kind fields the struct tags cannot express.
func validateQuiz(q *models.Quiz) error {
	if q.PassMark < 0 || q.PassMark > 100 {
		return NewValidationError("pass_mark", "must be between 0 and 100", q.PassMark)
	}
	for i, question := range q.Questions {
		field := fmt.Sprintf("questions[%d]", i)
		if question.Prompt == "" {
			return NewValidationError(field+".prompt", "is required", nil)
		}
		if question.TimeLimit < 0 || question.TimeLimit > 600 {
			return NewValidationError(field+".time_limit", "must be between 0 and 600 seconds", question.TimeLimit)
		}
		switch question.Kind {
		case models.MultipleChoice:
			if len(question.Options) < 2 {
				return NewValidationError(field+".options", "must have at least 2 options", len(question.Options))
			}
			if question.CorrectOption < 0 || question.CorrectOption >= len(question.Options) {
				return NewValidationError(field+".correct_option", "must index an option", question.CorrectOption)
			}
		case models.TrueFalse:
			// nothing beyond the tag
		case models.FillIn:
			if question.CorrectText == "" {
				return NewValidationError(field+".correct_text", "is required", nil)
			}
		case models.Matching:
			if len(question.Pairs) < 2 {
				return NewValidationError(field+".pairs", "must have at least 2 pairs", len(question.Pairs))
			}
		default:
			return NewValidationError(field+".kind",
				"must be a valid question kind (multiple_choice, true_false, fill_in, matching)",
				string(question.Kind))
		}
	}
	return nil
}
