package services

import (
	"context"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/quiz"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories"
)

// ===== REQUEST / RESPONSE TYPES =====

// ModuleContent is a module with its slides normalized and the embedded
// quiz decoded into the canonical schema.
type ModuleContent struct {
	Module        *models.Module `json:"module"`
	Slides        []models.Slide `json:"slides"`
	SummarySlides []models.Slide `json:"summary_slides"`
	Quiz          models.Quiz    `json:"quiz"`
}

// SlidesFor returns the slide sequence for the chosen study variant,
// falling back to the full set when no summary exists.
func (mc *ModuleContent) SlidesFor(variant models.StudyVariant) []models.Slide {
	if variant == models.VariantSummary && len(mc.SummarySlides) > 0 {
		return mc.SummarySlides
	}
	return mc.Slides
}

// SlideStep is the outcome of one player move.
type SlideStep struct {
	Index     int           `json:"index"`
	Percent   int           `json:"percent"`
	EnterQuiz bool          `json:"enter_quiz"`
	Slide     *models.Slide `json:"slide,omitempty"`
}

// AttemptState is the API view of a quiz session.
type AttemptState struct {
	SessionID     string           `json:"session_id"`
	ModuleID      uint             `json:"module_id"`
	State         quiz.State       `json:"state"`
	QuestionIndex int              `json:"question_index"`
	TimeLeft      int              `json:"time_left"`
	QuestionCount int              `json:"question_count"`
	Question      *models.Question `json:"question,omitempty"`
	Presented     []int            `json:"presented,omitempty"`
	Result        *quiz.Result     `json:"result,omitempty"`
}

type AnswerRequest struct {
	QuestionIndex int           `json:"question_index" validate:"min=0"`
	Answer        models.Answer `json:"answer" validate:"required"`
}

type CheatReport struct {
	Type       models.CheatEventType  `json:"type" validate:"required,oneof=visibility_hidden back_navigation unload_warning"`
	TimeOffset int                    `json:"time_offset" validate:"min=0"`
	UserAgent  string                 `json:"user_agent"`
	Data       map[string]interface{} `json:"data"`
}

type CreateCourseRequest struct {
	Title       string            `json:"title" validate:"required,min=1,max=200"`
	Description *string           `json:"description" validate:"omitempty,max=1000"`
	Kind        models.CourseKind `json:"kind" validate:"omitempty,oneof=standard business"`
	Language    string            `json:"language" validate:"omitempty,bcp47_language_tag"`
}

type CreateModuleRequest struct {
	CourseID        uint        `json:"course_id" validate:"required"`
	Title           string      `json:"title" validate:"required,min=1,max=200"`
	Position        int         `json:"position" validate:"min=0"`
	DurationMinutes int         `json:"duration_minutes" validate:"min=0,max=600"`
	QuizGated       bool        `json:"quiz_gated"`
	Quiz            models.Quiz `json:"quiz"`
}

type UpdateModuleRequest struct {
	Title           *string      `json:"title" validate:"omitempty,min=1,max=200"`
	Position        *int         `json:"position" validate:"omitempty,min=0"`
	DurationMinutes *int         `json:"duration_minutes" validate:"omitempty,min=0,max=600"`
	QuizGated       *bool        `json:"quiz_gated"`
	Quiz            *models.Quiz `json:"quiz"`
}

type SlideRequest struct {
	Title    string              `json:"title" validate:"max=200"`
	Body     string              `json:"body"`
	MediaURL *string             `json:"media_url" validate:"omitempty,url,max=500"`
	Variant  models.StudyVariant `json:"variant" validate:"omitempty,study_variant"`
}

// ===== SERVICE INTERFACES =====

// ContentService loads and normalizes module content.
type ContentService interface {
	LoadModule(ctx context.Context, moduleID uint) (*ModuleContent, error)
}

// SlideService is the slide player: ordered advance/retreat with the resume
// index persisted per (student, module).
type SlideService interface {
	Current(ctx context.Context, studentID string, moduleID uint) (*SlideStep, error)
	Advance(ctx context.Context, studentID string, moduleID uint) (*SlideStep, error)
	Retreat(ctx context.Context, studentID string, moduleID uint) (*SlideStep, error)
	ChooseVariant(ctx context.Context, studentID string, moduleID uint, variant models.StudyVariant) error
}

// AttemptService drives quiz sessions and persists their outcomes.
type AttemptService interface {
	Start(ctx context.Context, studentID string, moduleID uint) (*AttemptState, error)
	Answer(ctx context.Context, studentID, sessionID string, req *AnswerRequest) error
	Next(ctx context.Context, studentID, sessionID string) (*AttemptState, error)
	Submit(ctx context.Context, studentID, sessionID string) (*AttemptState, error)
	Retake(ctx context.Context, studentID, sessionID string) (*AttemptState, error)
	Teardown(ctx context.Context, studentID, sessionID string) error
	ReportCheat(ctx context.Context, studentID, sessionID string, report *CheatReport) (*AttemptState, error)
	RequestQuizAccess(ctx context.Context, studentID string, moduleID uint) error
}

// UnlockService grants access to the next sequential item after a pass.
type UnlockService interface {
	OnPassed(ctx context.Context, studentID string, moduleID uint) error
}

// CertificateService derives certificates from passed progress records.
type CertificateService interface {
	ForStudent(ctx context.Context, studentID string) ([]models.CertificateView, error)
}

// NoteService debounces per-module note autosaves.
type NoteService interface {
	Save(ctx context.Context, studentID string, moduleID uint, body string)
	Get(ctx context.Context, studentID string, moduleID uint) (*models.StudentNote, error)
	Flush()
}

// ModuleService is the authoring surface.
type ModuleService interface {
	CreateCourse(ctx context.Context, req *CreateCourseRequest, creatorID string) (*models.Course, error)
	GetCourse(ctx context.Context, id uint) (*models.Course, error)
	ListCourses(ctx context.Context, limit, offset int) ([]*models.Course, int64, error)

	CreateModule(ctx context.Context, req *CreateModuleRequest, creatorID string) (*models.Module, error)
	UpdateModule(ctx context.Context, id uint, req *UpdateModuleRequest) (*models.Module, error)
	SetStatus(ctx context.Context, id uint, status models.ModuleStatus) error
	Search(ctx context.Context, query string, filters repositories.ModuleFilters) ([]*models.Module, int64, error)

	AddSlide(ctx context.Context, moduleID uint, req *SlideRequest) (*models.Slide, error)
	UpdateSlide(ctx context.Context, slideID uint, req *SlideRequest) (*models.Slide, error)
	DeleteSlide(ctx context.Context, slideID uint) error
	ReorderSlides(ctx context.Context, moduleID uint, orderedIDs []uint) error

	AssignStudent(ctx context.Context, moduleID uint, studentID string) error
	GrantQuizAccess(ctx context.Context, moduleID uint, studentID string) error
	ResetProgress(ctx context.Context, studentID string, courseID uint) error
}

// ExportService produces spreadsheet reports.
type ExportService interface {
	ExportCourseProgress(ctx context.Context, courseID uint) ([]byte, error)
	ExportCertificateRoster(ctx context.Context, courseID uint) ([]byte, error)
}

// ServiceManager bundles all services behind one handle.
type ServiceManager interface {
	Content() ContentService
	Slide() SlideService
	Attempt() AttemptService
	Unlock() UnlockService
	Certificate() CertificateService
	Note() NoteService
	Module() ModuleService
	Export() ExportService
}
