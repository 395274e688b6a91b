package models

import "time"

type CertificateKind string

const (
	CertificateModule CertificateKind = "module"
	CertificateCourse CertificateKind = "course"
)

// CertificateView is derived at view time from passed progress records and
// never stored. A course certificate exists only while every module of the
// course is passed, so it can never be stale.
type CertificateView struct {
	Kind        CertificateKind `json:"kind"`
	StudentID   string          `json:"student_id"`
	CourseID    uint            `json:"course_id"`
	CourseTitle string          `json:"course_title"`
	ModuleID    *uint           `json:"module_id,omitempty"`
	ModuleTitle string          `json:"module_title,omitempty"`
	Score       float64         `json:"score"`
	CompletedAt time.Time       `json:"completed_at"`
}
