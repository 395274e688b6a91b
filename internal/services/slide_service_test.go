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

const (
	testStudent  = "student-1"
	testModuleID = uint(10)
	testCourseID = uint(1)
)

func slideFixture(t *testing.T, slideCount int, record *models.ProgressRecord) (*mockRepository, SlideService) {
	t.Helper()
	repo := newMockRepository(t)

	slides := make([]models.Slide, 0, slideCount)
	for i := 0; i < slideCount; i++ {
		slides = append(slides, models.Slide{ID: uint(i + 1), ModuleID: testModuleID, Position: i, Variant: models.VariantFull})
	}
	module := &models.Module{
		ID:       testModuleID,
		CourseID: testCourseID,
		Status:   models.ModulePublished,
		Quiz:     datatypes.JSON(`{"pass_mark":70,"questions":[{"prompt":"p","kind":"true_false"}]}`),
		Slides:   slides,
	}
	course := &models.Course{ID: testCourseID, Kind: models.CourseStandard, Language: "en"}

	repo.module.On("GetByIDWithSlides", mock.Anything, testModuleID).Return(module, nil)
	repo.course.On("GetByID", mock.Anything, testCourseID).Return(course, nil)
	repo.module.On("IsAssigned", mock.Anything, testModuleID, testStudent).Return(true, nil)
	repo.progress.On("GetByStudentAndModule", mock.Anything, testStudent, testModuleID).Return(record, nil)
	repo.progress.On("UpdateFields", mock.Anything, record.ID, mock.Anything).Return(nil)

	content := NewContentService(repo, cache.NewNoopCache(), testLogger())
	return repo, NewSlideService(repo, content, testLogger())
}

func progressAt(index int) *models.ProgressRecord {
	return &models.ProgressRecord{
		ID:         5,
		StudentID:  testStudent,
		ModuleID:   testModuleID,
		SlideIndex: index,
		Variant:    models.VariantFull,
		Status:     models.ProgressInProgress,
	}
}

func TestAdvanceMovesForwardAndReportsPercent(t *testing.T) {
	_, svc := slideFixture(t, 4, progressAt(0))

	step, err := svc.Advance(context.Background(), testStudent, testModuleID)
	require.NoError(t, err)

	assert.Equal(t, 1, step.Index)
	assert.Equal(t, 50, step.Percent)
	assert.False(t, step.EnterQuiz)
	require.NotNil(t, step.Slide)
	assert.Equal(t, uint(2), step.Slide.ID)
}

func TestAdvanceOnLastSlideSignalsQuizEntry(t *testing.T) {
	repo, svc := slideFixture(t, 3, progressAt(2))

	step, err := svc.Advance(context.Background(), testStudent, testModuleID)
	require.NoError(t, err)

	assert.True(t, step.EnterQuiz)
	assert.Equal(t, 2, step.Index, "index does not move past the deck")
	assert.Equal(t, 100, step.Percent)
	repo.progress.AssertNotCalled(t, "UpdateFields", mock.Anything, uint(5), mock.Anything)
}

func TestRetreatStopsAtFirstSlide(t *testing.T) {
	repo, svc := slideFixture(t, 3, progressAt(0))

	step, err := svc.Retreat(context.Background(), testStudent, testModuleID)
	require.NoError(t, err)

	assert.Equal(t, 0, step.Index)
	repo.progress.AssertNotCalled(t, "UpdateFields", mock.Anything, uint(5), mock.Anything)
}

func TestRetreatMovesBack(t *testing.T) {
	_, svc := slideFixture(t, 3, progressAt(2))

	step, err := svc.Retreat(context.Background(), testStudent, testModuleID)
	require.NoError(t, err)
	assert.Equal(t, 1, step.Index)
	assert.Equal(t, 67, step.Percent)
}

func TestCurrentClampsStaleIndex(t *testing.T) {
	// The deck shrank to 2 slides while the record points at slide 5.
	_, svc := slideFixture(t, 2, progressAt(5))

	step, err := svc.Current(context.Background(), testStudent, testModuleID)
	require.NoError(t, err)
	assert.Equal(t, 1, step.Index)
	assert.Equal(t, 100, step.Percent)
}

func TestChooseVariantResetsIndex(t *testing.T) {
	repo, svc := slideFixture(t, 3, progressAt(2))

	err := svc.ChooseVariant(context.Background(), testStudent, testModuleID, models.VariantSummary)
	require.NoError(t, err)

	repo.progress.AssertCalled(t, "UpdateFields", mock.Anything, uint(5), map[string]interface{}{
		"variant":     models.StudyVariant("summary"),
		"slide_index": 0,
	})
}

func TestChooseVariantRejectsUnknown(t *testing.T) {
	_, svc := slideFixture(t, 3, progressAt(0))

	err := svc.ChooseVariant(context.Background(), testStudent, testModuleID, "condensed")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestAccessDeniedWhenNotAssigned(t *testing.T) {
	repo := newMockRepository(t)
	module := &models.Module{
		ID:       testModuleID,
		CourseID: testCourseID,
		Status:   models.ModulePublished,
		Quiz:     datatypes.JSON(`{"pass_mark":70,"questions":[{"prompt":"p","kind":"true_false"}]}`),
		Slides:   []models.Slide{{ID: 1, Variant: models.VariantFull}},
	}
	course := &models.Course{ID: testCourseID, Kind: models.CourseStandard}
	repo.module.On("GetByIDWithSlides", mock.Anything, testModuleID).Return(module, nil)
	repo.course.On("GetByID", mock.Anything, testCourseID).Return(course, nil)
	repo.module.On("IsAssigned", mock.Anything, testModuleID, testStudent).Return(false, nil)

	content := NewContentService(repo, cache.NewNoopCache(), testLogger())
	svc := NewSlideService(repo, content, testLogger())

	_, err := svc.Current(context.Background(), testStudent, testModuleID)
	assert.ErrorIs(t, err, ErrModuleNotAssigned)
}

func TestProgressPercentRounding(t *testing.T) {
	assert.Equal(t, 33, progressPercent(0, 3))
	assert.Equal(t, 67, progressPercent(1, 3))
	assert.Equal(t, 100, progressPercent(2, 3))
	assert.Equal(t, 100, progressPercent(9, 3), "clamped")
	assert.Equal(t, 0, progressPercent(0, 0))
}
