package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/quiz"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories"
)

type certificateService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewCertificateService(repo repositories.Repository, logger *slog.Logger) CertificateService {
	return &certificateService{repo: repo, logger: logger}
}

// ForStudent derives the student's certificates from their passed progress
// records. Nothing is stored: a module certificate exists per passed module,
// and a course certificate materializes only while every published module of
// the course is passed.
func (s *certificateService) ForStudent(ctx context.Context, studentID string) ([]models.CertificateView, error) {
	passed := true
	records, err := s.repo.Progress().ListByStudent(ctx, studentID, repositories.ProgressFilters{Passed: &passed})
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	if len(records) == 0 {
		return []models.CertificateView{}, nil
	}

	byModule := make(map[uint]*models.ProgressRecord, len(records))
	for _, r := range records {
		byModule[r.ModuleID] = r
	}

	// Group the passed modules by course, loading each course once.
	courses := make(map[uint]*models.Course)
	for moduleID := range byModule {
		module, err := s.repo.Module().GetByID(ctx, moduleID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				continue // module deleted since the pass
			}
			return nil, fmt.Errorf("failed to load module %d: %w", moduleID, err)
		}
		if _, ok := courses[module.CourseID]; !ok {
			course, err := s.repo.Course().GetByIDWithModules(ctx, module.CourseID)
			if err != nil {
				if repositories.IsNotFoundError(err) {
					continue
				}
				return nil, fmt.Errorf("failed to load course %d: %w", module.CourseID, err)
			}
			courses[module.CourseID] = course
		}
	}

	var views []models.CertificateView
	for _, course := range courses {
		views = append(views, BuildCertificates(course, byModule)...)
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].CompletedAt.Before(views[j].CompletedAt)
	})
	return views, nil
}

// BuildCertificates derives certificate views for one course from the
// student's passed records, keyed by module id. Pure; exercised directly by
// tests.
func BuildCertificates(course *models.Course, passedByModule map[uint]*models.ProgressRecord) []models.CertificateView {
	var views []models.CertificateView

	published := 0
	passedCount := 0
	var scoreSum float64
	var latest time.Time
	var studentID string

	for i := range course.Modules {
		module := &course.Modules[i]
		if module.Status != models.ModulePublished {
			continue
		}
		published++

		record, ok := passedByModule[module.ID]
		if !ok || !record.Passed {
			continue
		}
		passedCount++
		scoreSum += record.LastScore
		studentID = record.StudentID

		completedAt := record.UpdatedAt
		if record.CompletedAt != nil {
			completedAt = *record.CompletedAt
		}
		if completedAt.After(latest) {
			latest = completedAt
		}

		moduleID := module.ID
		views = append(views, models.CertificateView{
			Kind:        models.CertificateModule,
			StudentID:   record.StudentID,
			CourseID:    course.ID,
			CourseTitle: course.Title,
			ModuleID:    &moduleID,
			ModuleTitle: module.Title,
			Score:       record.LastScore,
			CompletedAt: completedAt,
		})
	}

	if published > 0 && passedCount == published {
		views = append(views, models.CertificateView{
			Kind:        models.CertificateCourse,
			StudentID:   studentID,
			CourseID:    course.ID,
			CourseTitle: course.Title,
			Score:       quiz.RoundScore(scoreSum / float64(passedCount)),
			CompletedAt: latest,
		})
	}
	return views
}
