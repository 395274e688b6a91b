package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories"
)

type ProgressPostgreSQL struct {
	db *gorm.DB
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ProgressRepository {
	return &ProgressPostgreSQL{db: db}
}

func (p ProgressPostgreSQL) Create(ctx context.Context, record *models.ProgressRecord) error {
	return p.db.WithContext(ctx).Create(record).Error
}

func (p ProgressPostgreSQL) GetByStudentAndModule(ctx context.Context, studentID string, moduleID uint) (*models.ProgressRecord, error) {
	var record models.ProgressRecord
	if err := p.db.WithContext(ctx).
		Where("student_id = ? AND module_id = ?", studentID, moduleID).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateFields writes only the given columns, leaving every other field of
// the record untouched. This is the merge primitive both the slide and the
// quiz flows depend on.
func (p ProgressPostgreSQL) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return p.db.WithContext(ctx).
		Model(&models.ProgressRecord{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (p ProgressPostgreSQL) ListByStudent(ctx context.Context, studentID string, filters repositories.ProgressFilters) ([]*models.ProgressRecord, error) {
	var records []*models.ProgressRecord

	query := p.db.WithContext(ctx).Model(&models.ProgressRecord{}).Where("student_id = ?", studentID)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Passed != nil {
		query = query.Where("passed = ?", *filters.Passed)
	}
	if filters.DateFrom != nil {
		query = query.Where("updated_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("updated_at <= ?", *filters.DateTo)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit).Offset(filters.Offset)
	}

	if err := query.Order("updated_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (p ProgressPostgreSQL) ListByModules(ctx context.Context, studentID string, moduleIDs []uint) ([]*models.ProgressRecord, error) {
	var records []*models.ProgressRecord
	if len(moduleIDs) == 0 {
		return records, nil
	}
	if err := p.db.WithContext(ctx).
		Where("student_id = ? AND module_id IN ?", studentID, moduleIDs).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ResetByStudent is the explicit bulk reset, the only path that deletes
// progress records.
func (p ProgressPostgreSQL) ResetByStudent(ctx context.Context, studentID string, moduleIDs []uint) error {
	if len(moduleIDs) == 0 {
		return nil
	}
	return p.db.WithContext(ctx).
		Where("student_id = ? AND module_id IN ?", studentID, moduleIDs).
		Delete(&models.ProgressRecord{}).Error
}
