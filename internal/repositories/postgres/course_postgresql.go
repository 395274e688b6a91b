package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories"
)

type CoursePostgreSQL struct {
	db *gorm.DB
}

func NewCoursePostgreSQL(db *gorm.DB) repositories.CourseRepository {
	return &CoursePostgreSQL{db: db}
}

func (c CoursePostgreSQL) Create(ctx context.Context, course *models.Course) error {
	return c.db.WithContext(ctx).Create(course).Error
}

func (c CoursePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	if err := c.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (c CoursePostgreSQL) GetByIDWithModules(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	if err := c.db.WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, title ASC")
		}).
		Preload("Modules.Slides", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&course, id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (c CoursePostgreSQL) Update(ctx context.Context, course *models.Course) error {
	return c.db.WithContext(ctx).Save(course).Error
}

func (c CoursePostgreSQL) List(ctx context.Context, limit, offset int) ([]*models.Course, int64, error) {
	var courses []*models.Course
	var total int64

	query := c.db.WithContext(ctx).Model(&models.Course{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}
	if err := query.Limit(limit).Offset(offset).Order("created_at DESC").Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}
