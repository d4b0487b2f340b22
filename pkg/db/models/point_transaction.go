package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecosort/ecosort-backend/pkg/enums"
)

// PointTransaction records one immutable signed point delta in the ledger.
// Rows are append-only: no update or delete path exists anywhere in the
// codebase, and the sum of a user's rows must equal users.total_points.
type PointTransaction struct {
	ID          uuid.UUID             `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	Points      int                   `gorm:"column:points;not null"`
	Description string                `gorm:"column:description;type:text;not null"`
	Type        enums.TransactionType `gorm:"column:type;not null"`
	ReferenceID *uuid.UUID            `gorm:"column:reference_id;type:uuid"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}
