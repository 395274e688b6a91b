package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CourseKind string

const (
	// CourseStandard unlocks modules by assignment-set membership, ordered
	// by numeric-aware title comparison.
	CourseStandard CourseKind = "standard"
	// CourseBusiness unlocks chapters through a forward-only pointer on the
	// enrollment, ordered by the explicit Position field.
	CourseBusiness CourseKind = "business"
)

type ModuleStatus string

const (
	ModuleDraft     ModuleStatus = "draft"
	ModulePublished ModuleStatus = "published"
)

type StudyVariant string

const (
	VariantFull    StudyVariant = "full"
	VariantSummary StudyVariant = "summary"
)

type Course struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string    `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Kind        CourseKind `json:"kind" gorm:"default:standard;index" validate:"omitempty,oneof=standard business"`
	// Language is a BCP 47 tag used for localized module ordering.
	Language  string `json:"language" gorm:"default:en;size:35"`
	CreatedBy string `json:"created_by" gorm:"not null;size:64;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Modules []Module `json:"modules" gorm:"foreignKey:CourseID"`
}

// Module is one instructional unit: ordered slides plus an embedded quiz.
// Business courses call these chapters; the shape is identical, only the
// ordering and unlock rule differ (see CourseKind).
type Module struct {
	ID       uint         `json:"id" gorm:"primaryKey"`
	CourseID uint         `json:"course_id" gorm:"not null;index"`
	Title    string       `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Status   ModuleStatus `json:"status" gorm:"default:draft;index" validate:"omitempty,oneof=draft published"`
	// Position orders chapters of business courses. Standard courses ignore
	// it and order by title.
	Position        int `json:"position" gorm:"default:0;index"`
	DurationMinutes int `json:"duration_minutes" gorm:"default:0" validate:"min=0,max=600"`

	// Quiz is a value object embedded as JSON; it is never addressable on
	// its own. Legacy documents are normalized on load (see ContentService).
	Quiz datatypes.JSON `json:"quiz" gorm:"type:jsonb"`
	// QuizGated requires a trainer to unlock the assessment per student
	// before an attempt can start.
	QuizGated bool `json:"quiz_gated" gorm:"default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Slides      []Slide            `json:"slides" gorm:"foreignKey:ModuleID"`
	Assignments []ModuleAssignment `json:"-" gorm:"foreignKey:ModuleID"`

	// Computed fields (not stored)
	SlideCount    int `json:"slide_count" gorm:"-"`
	QuestionCount int `json:"question_count" gorm:"-"`
}

// Slide is one page of content within a module.
type Slide struct {
	ID       uint         `json:"id" gorm:"primaryKey"`
	ModuleID uint         `json:"module_id" gorm:"not null;index"`
	Title    string       `json:"title" gorm:"size:200" validate:"max=200"`
	Body     string       `json:"body" gorm:"type:text"`
	MediaURL *string      `json:"media_url" gorm:"size:500"`
	Position int          `json:"position" gorm:"not null;index"`
	Variant  StudyVariant `json:"variant" gorm:"default:full" validate:"omitempty,oneof=full summary"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ModuleAssignment grants a student access to a module. The unique index
// gives unlock writes set-union semantics: re-assigning is a no-op.
type ModuleAssignment struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ModuleID  uint   `json:"module_id" gorm:"not null;uniqueIndex:idx_module_student"`
	StudentID string `json:"student_id" gorm:"not null;size:64;uniqueIndex:idx_module_student"`
	// QuizUnlocked is set by a trainer after the student requests access to
	// a gated assessment.
	QuizUnlocked bool `json:"quiz_unlocked" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
}

func (Course) TableName() string {
	return "courses"
}

func (Module) TableName() string {
	return "modules"
}

func (Slide) TableName() string {
	return "slides"
}

func (ModuleAssignment) TableName() string {
	return "module_assignments"
}
