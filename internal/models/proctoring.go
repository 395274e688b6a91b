package models

import (
	"time"

	"gorm.io/datatypes"
)

type CheatEventType string

const (
	EventVisibilityHidden CheatEventType = "visibility_hidden"
	EventBackNavigation   CheatEventType = "back_navigation"
	EventUnloadWarning    CheatEventType = "unload_warning"
)

// ForcesSubmit reports whether the event type must end the attempt
// immediately. Unload warnings are recorded but best-effort only: a hard
// close cannot guarantee submission.
func (t CheatEventType) ForcesSubmit() bool {
	return t == EventVisibilityHidden || t == EventBackNavigation
}

// CheatEvent is one observation from the client-side monitor during an
// active attempt. Events are queued to redis and batch-persisted by the
// recorder worker.
type CheatEvent struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	AttemptID string         `json:"attempt_id" gorm:"not null;size:64;index"`
	StudentID string         `json:"student_id" gorm:"not null;size:64;index"`
	ModuleID  uint           `json:"module_id" gorm:"not null;index"`
	Type      CheatEventType `json:"type" gorm:"not null;index"`
	Data      datatypes.JSON `json:"data" gorm:"type:jsonb"`
	// TimeOffset is seconds from attempt start.
	TimeOffset int       `json:"time_offset"`
	UserAgent  string    `json:"user_agent" gorm:"type:text"`
	RecordedAt time.Time `json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func (CheatEvent) TableName() string {
	return "cheat_events"
}
