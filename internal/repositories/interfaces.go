package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type ModuleFilters struct {
	CourseID  *uint                `json:"course_id"`
	Status    *models.ModuleStatus `json:"status"`
	Search    string               `json:"search"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
	SortBy    string               `json:"sort_by"`    // "created_at", "title", "position"
	SortOrder string               `json:"sort_order"` // "asc", "desc"
}

type ProgressFilters struct {
	Status   *models.ProgressStatus `json:"status"`
	Passed   *bool                  `json:"passed"`
	DateFrom *time.Time             `json:"date_from"`
	DateTo   *time.Time             `json:"date_to"`
	Limit    int                    `json:"limit"`
	Offset   int                    `json:"offset"`
}

// ===== REPOSITORY INTERFACES =====

type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uint) (*models.Course, error)
	GetByIDWithModules(ctx context.Context, id uint) (*models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	List(ctx context.Context, limit, offset int) ([]*models.Course, int64, error)
}

type ModuleRepository interface {
	Create(ctx context.Context, module *models.Module) error
	GetByID(ctx context.Context, id uint) (*models.Module, error)
	GetByIDWithSlides(ctx context.Context, id uint) (*models.Module, error)
	Update(ctx context.Context, module *models.Module) error
	UpdateStatus(ctx context.Context, id uint, status models.ModuleStatus) error
	ListByCourse(ctx context.Context, courseID uint, filters ModuleFilters) ([]*models.Module, error)
	Search(ctx context.Context, query string, filters ModuleFilters) ([]*models.Module, int64, error)

	// AssignStudent adds the student to the module's assigned set with
	// set-union semantics: assigning twice leaves one row.
	AssignStudent(ctx context.Context, moduleID uint, studentID string) error
	IsAssigned(ctx context.Context, moduleID uint, studentID string) (bool, error)
	GrantQuizAccess(ctx context.Context, moduleID uint, studentID string) error
	HasQuizAccess(ctx context.Context, moduleID uint, studentID string) (bool, error)
	AssignedStudents(ctx context.Context, moduleID uint) ([]string, error)

	CreateSlide(ctx context.Context, slide *models.Slide) error
	GetSlideByID(ctx context.Context, id uint) (*models.Slide, error)
	UpdateSlide(ctx context.Context, slide *models.Slide) error
	DeleteSlide(ctx context.Context, id uint) error
	ReorderSlides(ctx context.Context, moduleID uint, orderedIDs []uint) error
}

type ProgressRepository interface {
	Create(ctx context.Context, record *models.ProgressRecord) error
	GetByStudentAndModule(ctx context.Context, studentID string, moduleID uint) (*models.ProgressRecord, error)
	// UpdateFields performs a field-level partial update so the slide flow
	// and the quiz flow never clobber each other's columns.
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	ListByStudent(ctx context.Context, studentID string, filters ProgressFilters) ([]*models.ProgressRecord, error)
	ListByModules(ctx context.Context, studentID string, moduleIDs []uint) ([]*models.ProgressRecord, error)
	ResetByStudent(ctx context.Context, studentID string, moduleIDs []uint) error
}

type EnrollmentRepository interface {
	GetOrCreate(ctx context.Context, studentID string, courseID uint) (*models.Enrollment, error)
	GetByStudentAndCourse(ctx context.Context, studentID string, courseID uint) (*models.Enrollment, error)
	// AdvancePointer moves the furthest-unlocked pointer forward only; a
	// target at or behind the current pointer leaves the row untouched.
	AdvancePointer(ctx context.Context, studentID string, courseID uint, moduleID uint, position int) error
	MarkCompleted(ctx context.Context, studentID string, courseID uint) error
	// Reset rewinds the pointer and clears completion, for trainer-initiated
	// progress resets.
	Reset(ctx context.Context, studentID string, courseID uint) error
}

type NoteRepository interface {
	Upsert(ctx context.Context, note *models.StudentNote) error
	GetByStudentAndModule(ctx context.Context, studentID string, moduleID uint) (*models.StudentNote, error)
}

type CheatEventRepository interface {
	CreateBatch(ctx context.Context, events []*models.CheatEvent) error
	ListByAttempt(ctx context.Context, attemptID string) ([]*models.CheatEvent, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
}

// Repository aggregates all repositories behind one handle.
type Repository interface {
	Course() CourseRepository
	Module() ModuleRepository
	Progress() ProgressRepository
	Enrollment() EnrollmentRepository
	Note() NoteRepository
	CheatEvent() CheatEventRepository
	User() UserRepository
}

// ===== ERROR HELPERS =====

// IsNotFoundError reports whether the error is the store's record-missing
// condition.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
