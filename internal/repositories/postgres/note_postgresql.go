package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories"
)

type NotePostgreSQL struct {
	db *gorm.DB
}

func NewNotePostgreSQL(db *gorm.DB) repositories.NoteRepository {
	return &NotePostgreSQL{db: db}
}

// Upsert keeps one note row per (student, module); the debounced writer
// always carries the full latest body.
func (n NotePostgreSQL) Upsert(ctx context.Context, note *models.StudentNote) error {
	return n.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "module_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
		}).
		Create(note).Error
}

func (n NotePostgreSQL) GetByStudentAndModule(ctx context.Context, studentID string, moduleID uint) (*models.StudentNote, error) {
	var note models.StudentNote
	if err := n.db.WithContext(ctx).
		Where("student_id = ? AND module_id = ?", studentID, moduleID).
		First(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}
