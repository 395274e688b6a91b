package models

import "time"

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTrainer UserRole = "trainer"
	RoleAdmin   UserRole = "admin"
)

// User mirrors the identity provider's record. The ID is the stable subject
// identifier issued by Casdoor, not a local sequence.
type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:64"`
	Name     string   `json:"name" gorm:"size:100"`
	Email    string   `json:"email" gorm:"size:200;index"`
	Role     UserRole `json:"role" gorm:"default:student;index" validate:"omitempty,user_role"`
	Business *string  `json:"business" gorm:"size:200"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
