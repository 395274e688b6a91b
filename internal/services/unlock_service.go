package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/events"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories"
)

type unlockService struct {
	repo      repositories.Repository
	publisher events.Publisher
	logger    *slog.Logger
}

func NewUnlockService(repo repositories.Repository, publisher events.Publisher, logger *slog.Logger) UnlockService {
	return &unlockService{repo: repo, publisher: publisher, logger: logger}
}

// OnPassed unlocks the item after the passed module. The write is idempotent
// on both course kinds, so replaying a pass (retakes, redelivered events)
// never regresses a student.
func (s *unlockService) OnPassed(ctx context.Context, studentID string, moduleID uint) error {
	module, err := s.repo.Module().GetByID(ctx, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrModuleNotFound
		}
		return fmt.Errorf("failed to load module %d: %w", moduleID, err)
	}

	course, err := s.repo.Course().GetByID(ctx, module.CourseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to load course %d: %w", module.CourseID, err)
	}

	ordered, err := s.orderedModules(ctx, course)
	if err != nil {
		return err
	}

	next := nextAfter(ordered, moduleID)
	if next == nil {
		return s.completeCourse(ctx, studentID, course)
	}

	if course.Kind == models.CourseBusiness {
		err = s.repo.Enrollment().AdvancePointer(ctx, studentID, course.ID, next.ID, next.Position)
	} else {
		err = s.repo.Module().AssignStudent(ctx, next.ID, studentID)
	}
	if err != nil {
		return fmt.Errorf("failed to unlock module %d: %w", next.ID, err)
	}

	s.logger.Info("next module unlocked",
		"student_id", studentID,
		"course_id", course.ID,
		"passed_module_id", moduleID,
		"unlocked_module_id", next.ID)
	s.publish(ctx, &events.LearningEvent{
		Type:      events.ModuleUnlocked,
		StudentID: studentID,
		CourseID:  course.ID,
		ModuleID:  next.ID,
	})
	return nil
}

// orderedModules returns the course's published modules in unlock order:
// explicit positions for business courses, localized numeric-aware title
// order for standard ones, so "Module 2" sorts before "Module 10".
func (s *unlockService) orderedModules(ctx context.Context, course *models.Course) ([]*models.Module, error) {
	status := models.ModulePublished
	modules, err := s.repo.Module().ListByCourse(ctx, course.ID, repositories.ModuleFilters{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}

	if course.Kind == models.CourseBusiness {
		sort.SliceStable(modules, func(i, j int) bool {
			return modules[i].Position < modules[j].Position
		})
		return modules, nil
	}

	collator := collate.New(language.Make(course.Language), collate.Numeric)
	sort.SliceStable(modules, func(i, j int) bool {
		return collator.CompareString(modules[i].Title, modules[j].Title) < 0
	})
	return modules, nil
}

func nextAfter(ordered []*models.Module, moduleID uint) *models.Module {
	for i, m := range ordered {
		if m.ID == moduleID {
			if i+1 < len(ordered) {
				return ordered[i+1]
			}
			return nil
		}
	}
	return nil
}

func (s *unlockService) completeCourse(ctx context.Context, studentID string, course *models.Course) error {
	if _, err := s.repo.Enrollment().GetOrCreate(ctx, studentID, course.ID); err != nil {
		return fmt.Errorf("failed to load enrollment: %w", err)
	}
	if err := s.repo.Enrollment().MarkCompleted(ctx, studentID, course.ID); err != nil {
		return fmt.Errorf("failed to mark course completed: %w", err)
	}

	s.logger.Info("course completed",
		"student_id", studentID,
		"course_id", course.ID)
	s.publish(ctx, &events.LearningEvent{
		Type:      events.CourseCompleted,
		StudentID: studentID,
		CourseID:  course.ID,
	})
	return nil
}

func (s *unlockService) publish(ctx context.Context, event *events.LearningEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish learning event",
			"type", event.Type,
			"student_id", event.StudentID,
			"error", err)
	}
}
