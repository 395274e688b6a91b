package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/cache"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
)

func TestNormalizeQuizDefaults(t *testing.T) {
	quiz := NormalizeQuiz(nil)
	assert.Empty(t, quiz.Questions)
	assert.Equal(t, models.DefaultPassMark, quiz.PassMark)

	quiz = NormalizeQuiz([]byte("null"))
	assert.Empty(t, quiz.Questions)
	assert.Equal(t, models.DefaultPassMark, quiz.PassMark)

	quiz = NormalizeQuiz([]byte("{not json"))
	assert.Empty(t, quiz.Questions)
	assert.Equal(t, models.DefaultPassMark, quiz.PassMark)
}

func TestNormalizeQuizCanonicalDocument(t *testing.T) {
	doc := []byte(`{
		"pass_mark": 80,
		"questions": [
			{"prompt": "p", "kind": "multiple_choice", "options": ["a","b"], "correct_option": 1, "time_limit": 45}
		]
	}`)

	quiz := NormalizeQuiz(doc)
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, 80, quiz.PassMark)
	assert.Equal(t, models.MultipleChoice, quiz.Questions[0].Kind)
	assert.Equal(t, 45, quiz.Questions[0].TimeLimit)
}

func TestNormalizeQuizLegacyShape(t *testing.T) {
	doc := []byte(`{
		"passMark": 60,
		"questions": [
			{"prompt": "p1", "type": "mcq", "options": ["a","b"], "correct_option": 0},
			{"prompt": "p2", "type": "boolean", "seconds": 20},
			{"prompt": "p3", "type": "text", "answer": "espresso"},
			{"prompt": "p4", "type": "match", "pairs": [{"key":"k","value":"v"},{"key":"k2","value":"v2"}]},
			{"prompt": "dropped", "type": "essay"}
		]
	}`)

	quiz := NormalizeQuiz(doc)
	require.Len(t, quiz.Questions, 4, "unknown kinds are dropped")
	assert.Equal(t, 60, quiz.PassMark)
	assert.Equal(t, models.MultipleChoice, quiz.Questions[0].Kind)
	assert.Equal(t, models.TrueFalse, quiz.Questions[1].Kind)
	assert.Equal(t, 20, quiz.Questions[1].TimeLimit)
	assert.Equal(t, models.FillIn, quiz.Questions[2].Kind)
	assert.Equal(t, "espresso", quiz.Questions[2].CorrectText)
	assert.Equal(t, models.Matching, quiz.Questions[3].Kind)
}

func TestNormalizeQuizClampsPassMark(t *testing.T) {
	assert.Equal(t, 100, NormalizeQuiz([]byte(`{"pass_mark": 150, "questions": []}`)).PassMark)
	assert.Equal(t, 0, NormalizeQuiz([]byte(`{"pass_mark": -5, "questions": []}`)).PassMark)
}

func TestLoadModuleSplitsVariants(t *testing.T) {
	repo := newMockRepository(t)
	module := &models.Module{
		ID:       10,
		CourseID: 1,
		Status:   models.ModulePublished,
		Quiz:     datatypes.JSON(`{"pass_mark":70,"questions":[{"prompt":"p","kind":"true_false"}]}`),
		Slides: []models.Slide{
			{ID: 1, Position: 0, Variant: models.VariantFull},
			{ID: 2, Position: 1, Variant: models.VariantFull},
			{ID: 3, Position: 0, Variant: models.VariantSummary},
		},
	}
	repo.module.On("GetByIDWithSlides", mock.Anything, uint(10)).Return(module, nil)

	svc := NewContentService(repo, cache.NewNoopCache(), testLogger())
	content, err := svc.LoadModule(context.Background(), 10)
	require.NoError(t, err)

	assert.Len(t, content.Slides, 2)
	assert.Len(t, content.SummarySlides, 1)
	assert.Len(t, content.Quiz.Questions, 1)
	assert.Equal(t, 2, content.Module.SlideCount)
	assert.Equal(t, 1, content.Module.QuestionCount)

	// Summary requested but empty falls back to the full deck.
	empty := &ModuleContent{Slides: content.Slides}
	assert.Equal(t, content.Slides, empty.SlidesFor(models.VariantSummary))
	assert.Equal(t, content.SummarySlides, content.SlidesFor(models.VariantSummary))
}
