package postgres

import (
	"gorm.io/gorm"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories"
)

type gormRepository struct {
	course     repositories.CourseRepository
	module     repositories.ModuleRepository
	progress   repositories.ProgressRepository
	enrollment repositories.EnrollmentRepository
	note       repositories.NoteRepository
	cheat      repositories.CheatEventRepository
	user       repositories.UserRepository
}

// NewRepository wires all gorm-backed repositories over one connection.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &gormRepository{
		course:     NewCoursePostgreSQL(db),
		module:     NewModulePostgreSQL(db),
		progress:   NewProgressPostgreSQL(db),
		enrollment: NewEnrollmentPostgreSQL(db),
		note:       NewNotePostgreSQL(db),
		cheat:      NewCheatEventPostgreSQL(db),
		user:       NewUserPostgreSQL(db),
	}
}

func (r *gormRepository) Course() repositories.CourseRepository         { return r.course }
func (r *gormRepository) Module() repositories.ModuleRepository         { return r.module }
func (r *gormRepository) Progress() repositories.ProgressRepository     { return r.progress }
func (r *gormRepository) Enrollment() repositories.EnrollmentRepository { return r.enrollment }
func (r *gormRepository) Note() repositories.NoteRepository             { return r.note }
func (r *gormRepository) CheatEvent() repositories.CheatEventRepository { return r.cheat }
func (r *gormRepository) User() repositories.UserRepository             { return r.user }
