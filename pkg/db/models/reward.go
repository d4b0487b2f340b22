package models

import (
	"time"

	"github.com/google/uuid"
)

// Reward is an admin-managed catalog item redeemable for points. Stock only
// moves through the redemption lifecycle's guarded updates or admin edits.
type Reward struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name        string     `gorm:"type:text;not null"`
	Description string     `gorm:"type:text;not null"`
	Cost        int        `gorm:"column:cost;not null"`
	Stock       int        `gorm:"column:stock;not null;default:0"`
	Category    string     `gorm:"type:text;not null"`
	ImageURL    *string    `gorm:"column:image_url"`
	Popularity  int        `gorm:"column:popularity;not null;default:0"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   *time.Time `gorm:"column:deleted_at;index"`
}
