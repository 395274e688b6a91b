package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/cache"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories"
)

const contentCacheTTL = 10 * time.Minute

func moduleContentCacheKey(moduleID uint) string {
	return fmt.Sprintf("module_content:%d", moduleID)
}

type contentService struct {
	repo   repositories.Repository
	cache  cache.Cache
	logger *slog.Logger
}

func NewContentService(repo repositories.Repository, c cache.Cache, logger *slog.Logger) ContentService {
	return &contentService{repo: repo, cache: c, logger: logger}
}

// LoadModule returns the module with its slide sequences split by variant
// and the embedded quiz normalized to the canonical schema. The normalized
// form is cached; authoring writes invalidate it.
func (s *contentService) LoadModule(ctx context.Context, moduleID uint) (*ModuleContent, error) {
	key := moduleContentCacheKey(moduleID)

	var cached ModuleContent
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("content cache read failed", "module_id", moduleID, "error", err)
	}

	module, err := s.repo.Module().GetByIDWithSlides(ctx, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to load module %d: %w", moduleID, err)
	}

	content := &ModuleContent{Module: module}
	for _, slide := range module.Slides {
		if slide.Variant == models.VariantSummary {
			content.SummarySlides = append(content.SummarySlides, slide)
		} else {
			content.Slides = append(content.Slides, slide)
		}
	}
	content.Quiz = NormalizeQuiz(module.Quiz)
	module.SlideCount = len(content.Slides)
	module.QuestionCount = len(content.Quiz.Questions)

	if err := s.cache.Set(ctx, key, content, contentCacheTTL); err != nil {
		s.logger.Warn("content cache write failed", "module_id", moduleID, "error", err)
	}
	return content, nil
}

// ===== QUIZ NORMALIZATION =====

// rawQuestion tolerates the legacy document shape: "type" instead of "kind",
// "seconds" instead of "time_limit", and "answer" for the fill-in text.
type rawQuestion struct {
	models.Question
	LegacyKind    string `json:"type"`
	LegacySeconds int    `json:"seconds"`
	LegacyAnswer  string `json:"answer"`
}

type rawQuiz struct {
	Questions      []rawQuestion `json:"questions"`
	PassMark       *int          `json:"pass_mark"`
	LegacyPassMark *int          `json:"passMark"`
}

var legacyKindAliases = map[string]models.QuestionKind{
	"mcq":       models.MultipleChoice,
	"choice":    models.MultipleChoice,
	"boolean":   models.TrueFalse,
	"truefalse": models.TrueFalse,
	"text":      models.FillIn,
	"gap":       models.FillIn,
	"match":     models.Matching,
}

// NormalizeQuiz decodes an embedded quiz document into the canonical value
// object. Absent or unreadable documents normalize to an empty quiz with the
// default pass mark; questions of no recognizable kind are dropped rather
// than failing the whole module.
func NormalizeQuiz(raw []byte) models.Quiz {
	quiz := models.Quiz{
		Questions: []models.Question{},
		PassMark:  models.DefaultPassMark,
	}
	if len(raw) == 0 || string(raw) == "null" {
		return quiz
	}

	var doc rawQuiz
	if err := json.Unmarshal(raw, &doc); err != nil {
		return quiz
	}

	switch {
	case doc.PassMark != nil:
		quiz.PassMark = clampPercent(*doc.PassMark)
	case doc.LegacyPassMark != nil:
		quiz.PassMark = clampPercent(*doc.LegacyPassMark)
	}

	for _, rq := range doc.Questions {
		q := rq.Question
		if q.Kind == "" && rq.LegacyKind != "" {
			if mapped, ok := legacyKindAliases[rq.LegacyKind]; ok {
				q.Kind = mapped
			} else {
				q.Kind = models.QuestionKind(rq.LegacyKind)
			}
		}
		if !validKind(q.Kind) {
			continue
		}
		if q.TimeLimit <= 0 && rq.LegacySeconds > 0 {
			q.TimeLimit = rq.LegacySeconds
		}
		if q.TimeLimit < 0 {
			q.TimeLimit = 0
		}
		if q.Kind == models.FillIn && q.CorrectText == "" {
			q.CorrectText = rq.LegacyAnswer
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	return quiz
}

func validKind(k models.QuestionKind) bool {
	switch k {
	case models.MultipleChoice, models.TrueFalse, models.FillIn, models.Matching:
		return true
	}
	return false
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
