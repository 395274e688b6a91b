package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories"
)

type EnrollmentPostgreSQL struct {
	db *gorm.DB
}

func NewEnrollmentPostgreSQL(db *gorm.DB) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{db: db}
}

func (e EnrollmentPostgreSQL) GetOrCreate(ctx context.Context, studentID string, courseID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := e.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error
	if err == nil {
		return &enrollment, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	enrollment = models.Enrollment{StudentID: studentID, CourseID: courseID}
	if err := e.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&enrollment).Error; err != nil {
		return nil, err
	}
	// Re-read to cover the conflict path where another writer won.
	if enrollment.ID == 0 {
		if err := e.db.WithContext(ctx).
			Where("student_id = ? AND course_id = ?", studentID, courseID).
			First(&enrollment).Error; err != nil {
			return nil, err
		}
	}
	return &enrollment, nil
}

func (e EnrollmentPostgreSQL) GetByStudentAndCourse(ctx context.Context, studentID string, courseID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := e.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// AdvancePointer only moves the furthest-unlocked pointer forward: the
// update is conditioned on the target chapter sitting past the current
// pointer's position. Re-passing an earlier chapter is a no-op.
func (e EnrollmentPostgreSQL) AdvancePointer(ctx context.Context, studentID string, courseID uint, moduleID uint, position int) error {
	return e.db.WithContext(ctx).Exec(`
		UPDATE enrollments
		SET last_module_id = ?, updated_at = ?
		WHERE student_id = ? AND course_id = ?
		  AND (last_module_id IS NULL OR
		       (SELECT position FROM modules WHERE id = enrollments.last_module_id) < ?)`,
		moduleID, time.Now(), studentID, courseID, position,
	).Error
}

func (e EnrollmentPostgreSQL) MarkCompleted(ctx context.Context, studentID string, courseID uint) error {
	return e.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("student_id = ? AND course_id = ? AND completed_at IS NULL", studentID, courseID).
		Update("completed_at", time.Now()).Error
}

func (e EnrollmentPostgreSQL) Reset(ctx context.Context, studentID string, courseID uint) error {
	return e.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Updates(map[string]interface{}{
			"last_module_id": nil,
			"completed_at":   nil,
		}).Error
}
