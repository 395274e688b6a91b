package services

import (
	"context"
	"fmt"
	"time"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories"
)

// accessGuard centralizes the student-access rule shared by the slide player
// and the quiz flow. Standard courses check assignment-set membership;
// business courses check the enrollment's furthest-unlocked pointer.
type accessGuard struct {
	repo repositories.Repository
}

func (g *accessGuard) checkModuleAccess(ctx context.Context, studentID string, module *models.Module) error {
	if module.Status != models.ModulePublished {
		return ErrModuleNotPublished
	}

	course, err := g.repo.Course().GetByID(ctx, module.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to load course %d: %w", module.CourseID, err)
	}

	if course.Kind == models.CourseBusiness {
		return g.checkChapterPointer(ctx, studentID, course, module)
	}

	assigned, err := g.repo.Module().IsAssigned(ctx, module.ID, studentID)
	if err != nil {
		return fmt.Errorf("failed to check assignment: %w", err)
	}
	if !assigned {
		return ErrModuleNotAssigned
	}
	return nil
}

// checkChapterPointer allows a chapter when it sits at or before the
// enrollment's pointer, or when it is the first published chapter and no
// pointer exists yet.
func (g *accessGuard) checkChapterPointer(ctx context.Context, studentID string, course *models.Course, module *models.Module) error {
	enrollment, err := g.repo.Enrollment().GetOrCreate(ctx, studentID, course.ID)
	if err != nil {
		return fmt.Errorf("failed to load enrollment: %w", err)
	}

	if enrollment.LastModuleID == nil {
		first, err := firstPublishedChapter(ctx, g.repo, course.ID)
		if err != nil {
			return err
		}
		if first == nil || first.ID != module.ID {
			return ErrModuleNotAssigned
		}
		return nil
	}

	pointer, err := g.repo.Module().GetByID(ctx, *enrollment.LastModuleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrModuleNotFound
		}
		return fmt.Errorf("failed to load pointer chapter: %w", err)
	}
	if module.Position > pointer.Position {
		return ErrModuleNotAssigned
	}
	return nil
}

func firstPublishedChapter(ctx context.Context, repo repositories.Repository, courseID uint) (*models.Module, error) {
	status := models.ModulePublished
	chapters, err := repo.Module().ListByCourse(ctx, courseID, repositories.ModuleFilters{
		Status:    &status,
		SortBy:    "position",
		SortOrder: "asc",
		Limit:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	if len(chapters) == 0 {
		return nil, nil
	}
	return chapters[0], nil
}

// getOrCreateProgress returns the (student, module) progress row, creating
// it in the in-progress state on first contact with the content.
func getOrCreateProgress(ctx context.Context, repo repositories.Repository, studentID string, moduleID uint) (*models.ProgressRecord, error) {
	record, err := repo.Progress().GetByStudentAndModule(ctx, studentID, moduleID)
	if err == nil {
		return record, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	now := time.Now()
	record = &models.ProgressRecord{
		StudentID: studentID,
		ModuleID:  moduleID,
		Variant:   models.VariantFull,
		Status:    models.ProgressInProgress,
		StartedAt: &now,
	}
	if err := repo.Progress().Create(ctx, record); err != nil {
		// Lost a race with a concurrent first view; re-read the winner.
		existing, rerr := repo.Progress().GetByStudentAndModule(ctx, studentID, moduleID)
		if rerr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create progress: %w", err)
	}
	return record, nil
}
