package models

import (
	"time"
)

type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not_started"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
	ProgressFailed     ProgressStatus = "failed"
)

// ProgressRecord is the per (student, module) aggregate: furthest slide
// reached, chosen study variant and the latest quiz outcome. Slide and quiz
// flows write disjoint field sets, so all writes go through field-level
// partial updates rather than whole-row saves.
type ProgressRecord struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	StudentID string `json:"student_id" gorm:"not null;size:64;uniqueIndex:idx_progress_student_module"`
	ModuleID  uint   `json:"module_id" gorm:"not null;uniqueIndex:idx_progress_student_module"`

	SlideIndex int          `json:"slide_index" gorm:"default:0"`
	Variant    StudyVariant `json:"variant" gorm:"default:full"`

	LastScore           float64        `json:"last_score" gorm:"default:0"`
	Passed              bool           `json:"passed" gorm:"default:false"`
	Status              ProgressStatus `json:"status" gorm:"default:not_started;index"`
	QuizAccessRequested bool           `json:"quiz_access_requested" gorm:"default:false"`

	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Enrollment links a student to a course. For business courses it carries
// the furthest-unlocked chapter pointer, advanced only forward.
type Enrollment struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	StudentID string `json:"student_id" gorm:"not null;size:64;uniqueIndex:idx_enrollment_student_course"`
	CourseID  uint   `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollment_student_course"`

	LastModuleID *uint      `json:"last_module_id"`
	CompletedAt  *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StudentNote holds free-form notes a student keeps per module. Writes are
// debounced; only the latest body in the window is persisted.
type StudentNote struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	StudentID string `json:"student_id" gorm:"not null;size:64;uniqueIndex:idx_note_student_module"`
	ModuleID  uint   `json:"module_id" gorm:"not null;uniqueIndex:idx_note_student_module"`
	Body      string `json:"body" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProgressRecord) TableName() string {
	return "progress_records"
}

func (Enrollment) TableName() string {
	return "enrollments"
}

func (StudentNote) TableName() string {
	return "student_notes"
}
