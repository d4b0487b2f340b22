package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecosort/ecosort-backend/pkg/enums"
)

// ViolationReport is a community-submitted waste violation, independent of
// the point economy. LikeCount is denormalized from report_likes and only
// moves alongside inserts and deletes on that table.
type ViolationReport struct {
	ID          uuid.UUID            `gorm:"type:uuid;primaryKey"`
	ReporterID  uuid.UUID            `gorm:"column:reporter_id;type:uuid;not null;index"`
	Description string               `gorm:"type:text;not null"`
	Location    *string              `gorm:"column:location"`
	PhotoURL    *string              `gorm:"column:photo_url"`
	Severity    enums.ReportSeverity `gorm:"column:severity;not null;default:low"`
	Status      enums.ReportStatus   `gorm:"column:status;not null;default:pending"`
	LikeCount   int64                `gorm:"column:like_count;not null;default:0"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`

	Likes    []ReportLike    `gorm:"foreignKey:ReportID"`
	Comments []ReportComment `gorm:"foreignKey:ReportID"`
}

// ReportLike marks one user's like on a report; the composite key gives
// likes idempotent set semantics.
type ReportLike struct {
	ReportID  uuid.UUID `gorm:"column:report_id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ReportComment is one ordered comment under a report.
type ReportComment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReportID  uuid.UUID `gorm:"column:report_id;type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	Body      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
