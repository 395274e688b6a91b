package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories"
)

type slideService struct {
	repo    repositories.Repository
	content ContentService
	guard   accessGuard
	logger  *slog.Logger
}

func NewSlideService(repo repositories.Repository, content ContentService, logger *slog.Logger) SlideService {
	return &slideService{
		repo:    repo,
		content: content,
		guard:   accessGuard{repo: repo},
		logger:  logger,
	}
}

// Current returns the slide the student last stopped on. Indexes beyond the
// deck are clamped, so shrinking a module during authoring never strands a
// reader.
func (s *slideService) Current(ctx context.Context, studentID string, moduleID uint) (*SlideStep, error) {
	_, record, slides, err := s.load(ctx, studentID, moduleID)
	if err != nil {
		return nil, err
	}

	index := record.SlideIndex
	if index >= len(slides) {
		index = len(slides) - 1
	}
	if index < 0 {
		index = 0
	}
	if index != record.SlideIndex {
		s.persistIndex(ctx, record, index)
	}
	return s.step(slides, index), nil
}

// Advance moves one slide forward. On the last slide it does not move;
// instead it signals the transition into the quiz.
func (s *slideService) Advance(ctx context.Context, studentID string, moduleID uint) (*SlideStep, error) {
	_, record, slides, err := s.load(ctx, studentID, moduleID)
	if err != nil {
		return nil, err
	}

	index := record.SlideIndex
	if index+1 >= len(slides) {
		step := s.step(slides, index)
		step.EnterQuiz = true
		step.Percent = 100
		return step, nil
	}

	index++
	if err := s.persistIndex(ctx, record, index); err != nil {
		return nil, err
	}
	return s.step(slides, index), nil
}

// Retreat moves one slide back, stopping at the first slide.
func (s *slideService) Retreat(ctx context.Context, studentID string, moduleID uint) (*SlideStep, error) {
	_, record, slides, err := s.load(ctx, studentID, moduleID)
	if err != nil {
		return nil, err
	}

	index := record.SlideIndex
	if index > 0 {
		index--
		if err := s.persistIndex(ctx, record, index); err != nil {
			return nil, err
		}
	}
	return s.step(slides, index), nil
}

// ChooseVariant switches between the full deck and the summary deck and
// restarts the reader at the first slide of the chosen sequence.
func (s *slideService) ChooseVariant(ctx context.Context, studentID string, moduleID uint, variant models.StudyVariant) error {
	if variant != models.VariantFull && variant != models.VariantSummary {
		return NewValidationError("variant", "must be full or summary", string(variant))
	}

	_, record, _, err := s.load(ctx, studentID, moduleID)
	if err != nil {
		return err
	}

	err = s.repo.Progress().UpdateFields(ctx, record.ID, map[string]interface{}{
		"variant":     variant,
		"slide_index": 0,
	})
	if err != nil {
		return fmt.Errorf("failed to switch study variant: %w", err)
	}

	s.logger.Info("study variant chosen",
		"student_id", studentID,
		"module_id", moduleID,
		"variant", variant)
	return nil
}

func (s *slideService) load(ctx context.Context, studentID string, moduleID uint) (*ModuleContent, *models.ProgressRecord, []models.Slide, error) {
	content, err := s.content.LoadModule(ctx, moduleID)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := s.guard.checkModuleAccess(ctx, studentID, content.Module); err != nil {
		return nil, nil, nil, err
	}

	record, err := getOrCreateProgress(ctx, s.repo, studentID, moduleID)
	if err != nil {
		return nil, nil, nil, err
	}

	slides := content.SlidesFor(record.Variant)
	if len(slides) == 0 {
		return nil, nil, nil, ErrSlideNotFound
	}
	return content, record, slides, nil
}

func (s *slideService) persistIndex(ctx context.Context, record *models.ProgressRecord, index int) error {
	err := s.repo.Progress().UpdateFields(ctx, record.ID, map[string]interface{}{
		"slide_index": index,
	})
	if err != nil {
		return fmt.Errorf("failed to persist slide index: %w", err)
	}
	record.SlideIndex = index
	return nil
}

func (s *slideService) step(slides []models.Slide, index int) *SlideStep {
	slide := slides[index]
	return &SlideStep{
		Index:   index,
		Percent: progressPercent(index, len(slides)),
		Slide:   &slide,
	}
}

// progressPercent is the rounded share of slides seen, clamped to 100 so a
// shrunken deck never reports an impossible value.
func progressPercent(index, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(float64(index+1) / float64(total) * 100))
	if pct > 100 {
		pct = 100
	}
	return pct
}
