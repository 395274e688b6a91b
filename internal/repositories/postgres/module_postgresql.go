package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories"
)

type ModulePostgreSQL struct {
	db *gorm.DB
}

func NewModulePostgreSQL(db *gorm.DB) repositories.ModuleRepository {
	return &ModulePostgreSQL{db: db}
}

func (m ModulePostgreSQL) Create(ctx context.Context, module *models.Module) error {
	return m.db.WithContext(ctx).Create(module).Error
}

func (m ModulePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Module, error) {
	var module models.Module
	if err := m.db.WithContext(ctx).First(&module, id).Error; err != nil {
		return nil, err
	}
	return &module, nil
}

func (m ModulePostgreSQL) GetByIDWithSlides(ctx context.Context, id uint) (*models.Module, error) {
	var module models.Module
	if err := m.db.WithContext(ctx).
		Preload("Slides", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&module, id).Error; err != nil {
		return nil, err
	}
	return &module, nil
}

func (m ModulePostgreSQL) Update(ctx context.Context, module *models.Module) error {
	return m.db.WithContext(ctx).Save(module).Error
}

func (m ModulePostgreSQL) UpdateStatus(ctx context.Context, id uint, status models.ModuleStatus) error {
	return m.db.WithContext(ctx).
		Model(&models.Module{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (m ModulePostgreSQL) ListByCourse(ctx context.Context, courseID uint, filters repositories.ModuleFilters) ([]*models.Module, error) {
	var modules []*models.Module

	query := m.db.WithContext(ctx).Model(&models.Module{}).Where("course_id = ?", courseID)
	query = m.applyFilters(query, filters)

	if err := query.Order("position ASC, title ASC").Find(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

func (m ModulePostgreSQL) Search(ctx context.Context, search string, filters repositories.ModuleFilters) ([]*models.Module, int64, error) {
	var modules []*models.Module
	var total int64

	query := m.db.WithContext(ctx).Model(&models.Module{})
	query = m.applyFilters(query, filters)
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where(
			"title ILIKE ? OR id IN (SELECT module_id FROM slides WHERE title ILIKE ? OR body ILIKE ?)",
			pattern, pattern, pattern,
		)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = m.applyPaginationAndSort(query, filters)
	if err := query.Find(&modules).Error; err != nil {
		return nil, 0, err
	}

	return modules, total, nil
}

// AssignStudent relies on the unique (module, student) index for set-union
// semantics: duplicates are silently dropped.
func (m ModulePostgreSQL) AssignStudent(ctx context.Context, moduleID uint, studentID string) error {
	assignment := models.ModuleAssignment{
		ModuleID:  moduleID,
		StudentID: studentID,
	}
	return m.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&assignment).Error
}

func (m ModulePostgreSQL) IsAssigned(ctx context.Context, moduleID uint, studentID string) (bool, error) {
	var count int64
	err := m.db.WithContext(ctx).
		Model(&models.ModuleAssignment{}).
		Where("module_id = ? AND student_id = ?", moduleID, studentID).
		Count(&count).Error
	return count > 0, err
}

func (m ModulePostgreSQL) GrantQuizAccess(ctx context.Context, moduleID uint, studentID string) error {
	return m.db.WithContext(ctx).
		Model(&models.ModuleAssignment{}).
		Where("module_id = ? AND student_id = ?", moduleID, studentID).
		Update("quiz_unlocked", true).Error
}

func (m ModulePostgreSQL) HasQuizAccess(ctx context.Context, moduleID uint, studentID string) (bool, error) {
	var count int64
	err := m.db.WithContext(ctx).
		Model(&models.ModuleAssignment{}).
		Where("module_id = ? AND student_id = ? AND quiz_unlocked = true", moduleID, studentID).
		Count(&count).Error
	return count > 0, err
}

func (m ModulePostgreSQL) AssignedStudents(ctx context.Context, moduleID uint) ([]string, error) {
	var ids []string
	err := m.db.WithContext(ctx).
		Model(&models.ModuleAssignment{}).
		Where("module_id = ?", moduleID).
		Pluck("student_id", &ids).Error
	return ids, err
}

func (m ModulePostgreSQL) CreateSlide(ctx context.Context, slide *models.Slide) error {
	return m.db.WithContext(ctx).Create(slide).Error
}

func (m ModulePostgreSQL) GetSlideByID(ctx context.Context, id uint) (*models.Slide, error) {
	var slide models.Slide
	if err := m.db.WithContext(ctx).First(&slide, id).Error; err != nil {
		return nil, err
	}
	return &slide, nil
}

func (m ModulePostgreSQL) UpdateSlide(ctx context.Context, slide *models.Slide) error {
	return m.db.WithContext(ctx).Save(slide).Error
}

func (m ModulePostgreSQL) DeleteSlide(ctx context.Context, id uint) error {
	return m.db.WithContext(ctx).Delete(&models.Slide{}, id).Error
}

func (m ModulePostgreSQL) ReorderSlides(ctx context.Context, moduleID uint, orderedIDs []uint) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for position, slideID := range orderedIDs {
			if err := tx.Model(&models.Slide{}).
				Where("id = ? AND module_id = ?", slideID, moduleID).
				Update("position", position).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (m ModulePostgreSQL) applyFilters(query *gorm.DB, filters repositories.ModuleFilters) *gorm.DB {
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	return query
}

func (m ModulePostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.ModuleFilters) *gorm.DB {
	sortBy := filters.SortBy
	switch sortBy {
	case "title", "position", "created_at":
	default:
		sortBy = "created_at"
	}
	sortOrder := filters.SortOrder
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder))

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	return query.Limit(limit).Offset(filters.Offset)
}
