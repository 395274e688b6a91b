package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func errRecordNotFound() error {
	return gorm.ErrRecordNotFound
}

// ===== MOCK REPOSITORIES =====

type MockCourseRepository struct {
	mock.Mock
}

func (m *MockCourseRepository) Create(ctx context.Context, course *models.Course) error {
	args := m.Called(ctx, course)
	return args.Error(0)
}

func (m *MockCourseRepository) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}

func (m *MockCourseRepository) GetByIDWithModules(ctx context.Context, id uint) (*models.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}

func (m *MockCourseRepository) Update(ctx context.Context, course *models.Course) error {
	args := m.Called(ctx, course)
	return args.Error(0)
}

func (m *MockCourseRepository) List(ctx context.Context, limit, offset int) ([]*models.Course, int64, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Course), args.Get(1).(int64), args.Error(2)
}

type MockModuleRepository struct {
	mock.Mock
}

func (m *MockModuleRepository) Create(ctx context.Context, module *models.Module) error {
	args := m.Called(ctx, module)
	return args.Error(0)
}

func (m *MockModuleRepository) GetByID(ctx context.Context, id uint) (*models.Module, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Module), args.Error(1)
}

func (m *MockModuleRepository) GetByIDWithSlides(ctx context.Context, id uint) (*models.Module, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Module), args.Error(1)
}

func (m *MockModuleRepository) Update(ctx context.Context, module *models.Module) error {
	args := m.Called(ctx, module)
	return args.Error(0)
}

func (m *MockModuleRepository) UpdateStatus(ctx context.Context, id uint, status models.ModuleStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockModuleRepository) ListByCourse(ctx context.Context, courseID uint, filters repositories.ModuleFilters) ([]*models.Module, error) {
	args := m.Called(ctx, courseID, filters)
	return args.Get(0).([]*models.Module), args.Error(1)
}

func (m *MockModuleRepository) Search(ctx context.Context, query string, filters repositories.ModuleFilters) ([]*models.Module, int64, error) {
	args := m.Called(ctx, query, filters)
	return args.Get(0).([]*models.Module), args.Get(1).(int64), args.Error(2)
}

func (m *MockModuleRepository) AssignStudent(ctx context.Context, moduleID uint, studentID string) error {
	args := m.Called(ctx, moduleID, studentID)
	return args.Error(0)
}

func (m *MockModuleRepository) IsAssigned(ctx context.Context, moduleID uint, studentID string) (bool, error) {
	args := m.Called(ctx, moduleID, studentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockModuleRepository) GrantQuizAccess(ctx context.Context, moduleID uint, studentID string) error {
	args := m.Called(ctx, moduleID, studentID)
	return args.Error(0)
}

func (m *MockModuleRepository) HasQuizAccess(ctx context.Context, moduleID uint, studentID string) (bool, error) {
	args := m.Called(ctx, moduleID, studentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockModuleRepository) AssignedStudents(ctx context.Context, moduleID uint) ([]string, error) {
	args := m.Called(ctx, moduleID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockModuleRepository) CreateSlide(ctx context.Context, slide *models.Slide) error {
	args := m.Called(ctx, slide)
	return args.Error(0)
}

func (m *MockModuleRepository) GetSlideByID(ctx context.Context, id uint) (*models.Slide, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Slide), args.Error(1)
}

func (m *MockModuleRepository) UpdateSlide(ctx context.Context, slide *models.Slide) error {
	args := m.Called(ctx, slide)
	return args.Error(0)
}

func (m *MockModuleRepository) DeleteSlide(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockModuleRepository) ReorderSlides(ctx context.Context, moduleID uint, orderedIDs []uint) error {
	args := m.Called(ctx, moduleID, orderedIDs)
	return args.Error(0)
}

type MockProgressRepository struct {
	mock.Mock
}

func (m *MockProgressRepository) Create(ctx context.Context, record *models.ProgressRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockProgressRepository) GetByStudentAndModule(ctx context.Context, studentID string, moduleID uint) (*models.ProgressRecord, error) {
	args := m.Called(ctx, studentID, moduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProgressRecord), args.Error(1)
}

func (m *MockProgressRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockProgressRepository) ListByStudent(ctx context.Context, studentID string, filters repositories.ProgressFilters) ([]*models.ProgressRecord, error) {
	args := m.Called(ctx, studentID, filters)
	return args.Get(0).([]*models.ProgressRecord), args.Error(1)
}

func (m *MockProgressRepository) ListByModules(ctx context.Context, studentID string, moduleIDs []uint) ([]*models.ProgressRecord, error) {
	args := m.Called(ctx, studentID, moduleIDs)
	return args.Get(0).([]*models.ProgressRecord), args.Error(1)
}

func (m *MockProgressRepository) ResetByStudent(ctx context.Context, studentID string, moduleIDs []uint) error {
	args := m.Called(ctx, studentID, moduleIDs)
	return args.Error(0)
}

type MockEnrollmentRepository struct {
	mock.Mock
}

func (m *MockEnrollmentRepository) GetOrCreate(ctx context.Context, studentID string, courseID uint) (*models.Enrollment, error) {
	args := m.Called(ctx, studentID, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Enrollment), args.Error(1)
}

func (m *MockEnrollmentRepository) GetByStudentAndCourse(ctx context.Context, studentID string, courseID uint) (*models.Enrollment, error) {
	args := m.Called(ctx, studentID, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Enrollment), args.Error(1)
}

func (m *MockEnrollmentRepository) AdvancePointer(ctx context.Context, studentID string, courseID uint, moduleID uint, position int) error {
	args := m.Called(ctx, studentID, courseID, moduleID, position)
	return args.Error(0)
}

func (m *MockEnrollmentRepository) MarkCompleted(ctx context.Context, studentID string, courseID uint) error {
	args := m.Called(ctx, studentID, courseID)
	return args.Error(0)
}

func (m *MockEnrollmentRepository) Reset(ctx context.Context, studentID string, courseID uint) error {
	args := m.Called(ctx, studentID, courseID)
	return args.Error(0)
}

type MockNoteRepository struct {
	mock.Mock
}

func (m *MockNoteRepository) Upsert(ctx context.Context, note *models.StudentNote) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *MockNoteRepository) GetByStudentAndModule(ctx context.Context, studentID string, moduleID uint) (*models.StudentNote, error) {
	args := m.Called(ctx, studentID, moduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StudentNote), args.Error(1)
}

type MockCheatEventRepository struct {
	mock.Mock
}

func (m *MockCheatEventRepository) CreateBatch(ctx context.Context, events []*models.CheatEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func (m *MockCheatEventRepository) ListByAttempt(ctx context.Context, attemptID string) ([]*models.CheatEvent, error) {
	args := m.Called(ctx, attemptID)
	return args.Get(0).([]*models.CheatEvent), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Upsert(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// ===== AGGREGATE =====

type mockRepository struct {
	course     *MockCourseRepository
	module     *MockModuleRepository
	progress   *MockProgressRepository
	enrollment *MockEnrollmentRepository
	note       *MockNoteRepository
	cheat      *MockCheatEventRepository
	user       *MockUserRepository
}

func newMockRepository(t *testing.T) *mockRepository {
	t.Helper()
	return &mockRepository{
		course:     new(MockCourseRepository),
		module:     new(MockModuleRepository),
		progress:   new(MockProgressRepository),
		enrollment: new(MockEnrollmentRepository),
		note:       new(MockNoteRepository),
		cheat:      new(MockCheatEventRepository),
		user:       new(MockUserRepository),
	}
}

func (r *mockRepository) Course() repositories.CourseRepository         { return r.course }
func (r *mockRepository) Module() repositories.ModuleRepository         { return r.module }
func (r *mockRepository) Progress() repositories.ProgressRepository     { return r.progress }
func (r *mockRepository) Enrollment() repositories.EnrollmentRepository { return r.enrollment }
func (r *mockRepository) Note() repositories.NoteRepository             { return r.note }
func (r *mockRepository) CheatEvent() repositories.CheatEventRepository { return r.cheat }
func (r *mockRepository) User() repositories.UserRepository             { return r.user }
