package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/events"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
)

func TestOnPassedStandardCourseUsesNumericTitleOrder(t *testing.T) {
	repo := newMockRepository(t)
	publisher := events.NewMockPublisher()

	course := &models.Course{ID: 1, Kind: models.CourseStandard, Language: "en"}
	// Stored out of order on purpose; "Module 2" must sort before
	// "Module 10".
	modules := []*models.Module{
		{ID: 3, CourseID: 1, Title: "Module 10", Status: models.ModulePublished},
		{ID: 1, CourseID: 1, Title: "Module 1", Status: models.ModulePublished},
		{ID: 2, CourseID: 1, Title: "Module 2", Status: models.ModulePublished},
	}

	repo.module.On("GetByID", mock.Anything, uint(2)).Return(modules[2], nil)
	repo.course.On("GetByID", mock.Anything, uint(1)).Return(course, nil)
	repo.module.On("ListByCourse", mock.Anything, uint(1), mock.Anything).Return(modules, nil)
	repo.module.On("AssignStudent", mock.Anything, uint(3), testStudent).Return(nil)

	svc := NewUnlockService(repo, publisher, testLogger())
	require.NoError(t, svc.OnPassed(context.Background(), testStudent, 2))

	repo.module.AssertCalled(t, "AssignStudent", mock.Anything, uint(3), testStudent)

	unlocked := publisher.EventsOfType(events.ModuleUnlocked)
	require.Len(t, unlocked, 1)
	assert.Equal(t, uint(3), unlocked[0].ModuleID)
}

func TestOnPassedIsIdempotentOnReplay(t *testing.T) {
	repo := newMockRepository(t)
	publisher := events.NewMockPublisher()

	course := &models.Course{ID: 1, Kind: models.CourseStandard, Language: "en"}
	modules := []*models.Module{
		{ID: 1, CourseID: 1, Title: "A", Status: models.ModulePublished},
		{ID: 2, CourseID: 1, Title: "B", Status: models.ModulePublished},
	}
	repo.module.On("GetByID", mock.Anything, uint(1)).Return(modules[0], nil)
	repo.course.On("GetByID", mock.Anything, uint(1)).Return(course, nil)
	repo.module.On("ListByCourse", mock.Anything, uint(1), mock.Anything).Return(modules, nil)
	repo.module.On("AssignStudent", mock.Anything, uint(2), testStudent).Return(nil)

	svc := NewUnlockService(repo, publisher, testLogger())
	require.NoError(t, svc.OnPassed(context.Background(), testStudent, 1))
	require.NoError(t, svc.OnPassed(context.Background(), testStudent, 1))

	// The write itself is a set-union upsert; replaying just repeats it.
	repo.module.AssertNumberOfCalls(t, "AssignStudent", 2)
}

func TestOnPassedBusinessCourseAdvancesPointer(t *testing.T) {
	repo := newMockRepository(t)
	publisher := events.NewMockPublisher()

	course := &models.Course{ID: 1, Kind: models.CourseBusiness}
	modules := []*models.Module{
		{ID: 11, CourseID: 1, Title: "Opening the bar", Position: 1, Status: models.ModulePublished},
		{ID: 12, CourseID: 1, Title: "Dialing in", Position: 2, Status: models.ModulePublished},
		{ID: 13, CourseID: 1, Title: "Closing", Position: 3, Status: models.ModulePublished},
	}
	repo.module.On("GetByID", mock.Anything, uint(12)).Return(modules[1], nil)
	repo.course.On("GetByID", mock.Anything, uint(1)).Return(course, nil)
	repo.module.On("ListByCourse", mock.Anything, uint(1), mock.Anything).Return(modules, nil)
	repo.enrollment.On("AdvancePointer", mock.Anything, testStudent, uint(1), uint(13), 3).Return(nil)

	svc := NewUnlockService(repo, publisher, testLogger())
	require.NoError(t, svc.OnPassed(context.Background(), testStudent, 12))

	repo.enrollment.AssertCalled(t, "AdvancePointer", mock.Anything, testStudent, uint(1), uint(13), 3)
}

func TestOnPassedLastModuleCompletesCourse(t *testing.T) {
	repo := newMockRepository(t)
	publisher := events.NewMockPublisher()

	course := &models.Course{ID: 1, Kind: models.CourseStandard, Language: "en"}
	modules := []*models.Module{
		{ID: 1, CourseID: 1, Title: "A", Status: models.ModulePublished},
		{ID: 2, CourseID: 1, Title: "B", Status: models.ModulePublished},
	}
	repo.module.On("GetByID", mock.Anything, uint(2)).Return(modules[1], nil)
	repo.course.On("GetByID", mock.Anything, uint(1)).Return(course, nil)
	repo.module.On("ListByCourse", mock.Anything, uint(1), mock.Anything).Return(modules, nil)
	repo.enrollment.On("GetOrCreate", mock.Anything, testStudent, uint(1)).Return(&models.Enrollment{ID: 1}, nil)
	repo.enrollment.On("MarkCompleted", mock.Anything, testStudent, uint(1)).Return(nil)

	svc := NewUnlockService(repo, publisher, testLogger())
	require.NoError(t, svc.OnPassed(context.Background(), testStudent, 2))

	repo.enrollment.AssertCalled(t, "MarkCompleted", mock.Anything, testStudent, uint(1))
	assert.Len(t, publisher.EventsOfType(events.CourseCompleted), 1)
	assert.Empty(t, publisher.EventsOfType(events.ModuleUnlocked))
}

func TestOnPassedUnknownModule(t *testing.T) {
	repo := newMockRepository(t)
	repo.module.On("GetByID", mock.Anything, uint(99)).Return(nil, errRecordNotFound())

	svc := NewUnlockService(repo, events.NewMockPublisher(), testLogger())
	err := svc.OnPassed(context.Background(), testStudent, 99)
	assert.ErrorIs(t, err, ErrModuleNotFound)
}
