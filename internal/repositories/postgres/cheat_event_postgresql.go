package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories"
)

type CheatEventPostgreSQL struct {
	db *gorm.DB
}

func NewCheatEventPostgreSQL(db *gorm.DB) repositories.CheatEventRepository {
	return &CheatEventPostgreSQL{db: db}
}

func (c CheatEventPostgreSQL) CreateBatch(ctx context.Context, events []*models.CheatEvent) error {
	if len(events) == 0 {
		return nil
	}
	return c.db.WithContext(ctx).CreateInBatches(events, 100).Error
}

func (c CheatEventPostgreSQL) ListByAttempt(ctx context.Context, attemptID string) ([]*models.CheatEvent, error) {
	var events []*models.CheatEvent
	if err := c.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("recorded_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
