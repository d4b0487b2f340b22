package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecosort/ecosort-backend/pkg/enums"
)

// Redemption tracks a reward claim from creation to pickup. PointCost is a
// snapshot of the reward's cost at creation time and must not drift if the
// reward is later re-priced. RedemptionCode is the resident-visible secret
// presented physically at pickup.
type Redemption struct {
	ID             uuid.UUID              `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	RewardID       uuid.UUID              `gorm:"column:reward_id;type:uuid;not null;index"`
	RedemptionCode string                 `gorm:"column:redemption_code;type:text;not null;uniqueIndex"`
	PointCost      int                    `gorm:"column:point_cost;not null"`
	Status         enums.RedemptionStatus `gorm:"column:status;not null;default:pending"`
	RedeemedAt     time.Time              `gorm:"column:redeemed_at;autoCreateTime"`
	ClaimedAt      *time.Time             `gorm:"column:claimed_at"`
	CancelledAt    *time.Time             `gorm:"column:cancelled_at"`
}
