package payloads

import (
	"time"

	"github.com/ecosort/ecosort-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubmissionConfirmedEvent is emitted when an admin confirms a waste
// submission and points are credited.
type SubmissionConfirmedEvent struct {
	SubmissionID uuid.UUID       `json:"submission_id"`
	UserID       uuid.UUID       `json:"user_id"`
	WasteType    string          `json:"waste_type"`
	WeightKg     decimal.Decimal `json:"weight_kg"`
	Points       int             `json:"points"`
	ConfirmedAt  time.Time       `json:"confirmed_at"`
}

// SubmissionRejectedEvent is emitted when an admin rejects a submission.
type SubmissionRejectedEvent struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	UserID       uuid.UUID `json:"user_id"`
	Reason       string    `json:"reason,omitempty"`
	RejectedAt   time.Time `json:"rejected_at"`
}

// RedemptionCreatedEvent signals that points were spent on a reward.
type RedemptionCreatedEvent struct {
	RedemptionID   uuid.UUID `json:"redemption_id"`
	UserID         uuid.UUID `json:"user_id"`
	RewardID       uuid.UUID `json:"reward_id"`
	RedemptionCode string    `json:"redemption_code"`
	PointCost      int       `json:"point_cost"`
}

// RedemptionClaimedEvent is emitted when a reward is picked up.
type RedemptionClaimedEvent struct {
	RedemptionID uuid.UUID `json:"redemption_id"`
	UserID       uuid.UUID `json:"user_id"`
	RewardID     uuid.UUID `json:"reward_id"`
	ClaimedAt    time.Time `json:"claimed_at"`
}

// RedemptionCancelledEvent is emitted when a pending redemption is cancelled
// and the points refunded.
type RedemptionCancelledEvent struct {
	RedemptionID   uuid.UUID `json:"redemption_id"`
	UserID         uuid.UUID `json:"user_id"`
	RewardID       uuid.UUID `json:"reward_id"`
	RefundedPoints int       `json:"refunded_points"`
	CancelledAt    time.Time `json:"cancelled_at"`
}

// PointsGrantedEvent covers manual admin adjustments to a balance.
type PointsGrantedEvent struct {
	UserID      uuid.UUID             `json:"user_id"`
	Points      int                   `json:"points"`
	Type        enums.TransactionType `json:"type"`
	Description string                `json:"description,omitempty"`
}

// ReportStatusChangedEvent is emitted when a violation report moves between
// review states.
type ReportStatusChangedEvent struct {
	ReportID   uuid.UUID          `json:"report_id"`
	ReporterID uuid.UUID          `json:"reporter_id"`
	OldStatus  enums.ReportStatus `json:"old_status"`
	NewStatus  enums.ReportStatus `json:"new_status"`
}
