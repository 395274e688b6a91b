package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories"
)

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ExportCourseProgress renders one row per (student, module) with the
// student's slide position and latest quiz outcome.
func (s *exportService) ExportCourseProgress(ctx context.Context, courseID uint) ([]byte, error) {
	course, students, err := s.roster(ctx, courseID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Progress"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Student", "Module", "Status", "Slide", "Score", "Passed", "Started", "Completed"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		end, _ := excelize.CoordinatesToCellName(len(headers), 1)
		f.SetCellStyle(sheet, "A1", end, style)
	}

	moduleIDs := make([]uint, 0, len(course.Modules))
	titles := make(map[uint]string, len(course.Modules))
	for _, m := range course.Modules {
		moduleIDs = append(moduleIDs, m.ID)
		titles[m.ID] = m.Title
	}

	row := 2
	for _, studentID := range students {
		records, err := s.repo.Progress().ListByModules(ctx, studentID, moduleIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to list progress for %s: %w", studentID, err)
		}
		for _, r := range records {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), studentID)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), titles[r.ModuleID])
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), string(r.Status))
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), r.SlideIndex+1)
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), r.LastScore)
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), r.Passed)
			if r.StartedAt != nil {
				f.SetCellValue(sheet, fmt.Sprintf("G%d", row), r.StartedAt.Format("2006-01-02 15:04"))
			}
			if r.CompletedAt != nil {
				f.SetCellValue(sheet, fmt.Sprintf("H%d", row), r.CompletedAt.Format("2006-01-02 15:04"))
			}
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	s.logger.Info("progress export generated",
		"course_id", courseID,
		"students", len(students),
		"rows", row-2)
	return buf.Bytes(), nil
}

// ExportCertificateRoster renders every certificate currently held across
// the course's students, module and course certificates alike.
func (s *exportService) ExportCertificateRoster(ctx context.Context, courseID uint) ([]byte, error) {
	course, students, err := s.roster(ctx, courseID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Certificates"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Student", "Kind", "Module", "Score", "Completed"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		end, _ := excelize.CoordinatesToCellName(len(headers), 1)
		f.SetCellStyle(sheet, "A1", end, style)
	}

	moduleIDs := make([]uint, 0, len(course.Modules))
	for _, m := range course.Modules {
		moduleIDs = append(moduleIDs, m.ID)
	}

	row := 2
	for _, studentID := range students {
		records, err := s.repo.Progress().ListByModules(ctx, studentID, moduleIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to list progress for %s: %w", studentID, err)
		}
		passedByModule := make(map[uint]*models.ProgressRecord)
		for _, r := range records {
			if r.Passed {
				passedByModule[r.ModuleID] = r
			}
		}

		for _, cert := range BuildCertificates(course, passedByModule) {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), studentID)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), string(cert.Kind))
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), cert.ModuleTitle)
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), cert.Score)
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), cert.CompletedAt.Format("2006-01-02"))
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// roster loads the course and the union of students assigned to any of its
// modules.
func (s *exportService) roster(ctx context.Context, courseID uint) (*models.Course, []string, error) {
	course, err := s.repo.Course().GetByIDWithModules(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrCourseNotFound
		}
		return nil, nil, fmt.Errorf("failed to load course %d: %w", courseID, err)
	}

	seen := make(map[string]struct{})
	for _, m := range course.Modules {
		ids, err := s.repo.Module().AssignedStudents(ctx, m.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list assigned students: %w", err)
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}

	students := make([]string, 0, len(seen))
	for id := range seen {
		students = append(students, id)
	}
	sort.Strings(students)
	return course, students, nil
}
