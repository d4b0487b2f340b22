package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecosort/ecosort-backend/pkg/enums"
)

// User represents the canonical identity entity. TotalPoints is a denormalized
// running total kept consistent with the point_transactions ledger; it is only
// mutated through the ledger's guarded update path.
type User struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Email           string         `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash    string         `gorm:"column:password_hash;not null"`
	DisplayName     string         `gorm:"column:display_name;not null"`
	Role            enums.UserRole `gorm:"column:role;not null;default:resident"`
	TotalPoints     int            `gorm:"column:total_points;not null;default:0"`
	ProfileImageURL *string        `gorm:"column:profile_image_url"`
	IsActive        bool           `gorm:"column:is_active;not null"`
	LastLoginAt     *time.Time     `gorm:"column:last_login_at"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
