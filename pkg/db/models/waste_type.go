package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WasteType is admin-managed reference data mapping a material name to its
// award rate in points per kilogram.
type WasteType struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name          string          `gorm:"type:text;not null;uniqueIndex"`
	PointsPerKilo decimal.Decimal `gorm:"column:points_per_kilo;type:numeric(10,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
