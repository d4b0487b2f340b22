package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ecosort/ecosort-backend/pkg/enums"
)

// WasteSubmission is a resident's weigh-in awaiting admin review. WasteType
// stores the material name as submitted; the award rate is resolved at
// confirmation time so a deleted type degrades to a zero award rather than an
// error. Points is written once, at confirmation.
type WasteSubmission struct {
	ID          uuid.UUID              `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	WasteType   string                 `gorm:"column:waste_type;type:text;not null"`
	WeightKg    decimal.Decimal        `gorm:"column:weight_kg;type:numeric(10,3);not null"`
	PhotoURL    *string                `gorm:"column:photo_url"`
	Points      int                    `gorm:"column:points;not null;default:0"`
	Status      enums.SubmissionStatus `gorm:"column:status;not null;default:pending"`
	SubmittedAt time.Time              `gorm:"column:submitted_at;autoCreateTime"`
	ConfirmedAt *time.Time             `gorm:"column:confirmed_at"`
	RejectedAt  *time.Time             `gorm:"column:rejected_at"`
}
