package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification stores one in-app message for a user. Written by the
// submission/redemption state machines inside their transactions; only the
// owning user flips ReadAt.
type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	Message   string     `gorm:"type:text;not null"`
	ReadAt    *time.Time `gorm:"column:read_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
