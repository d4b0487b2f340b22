package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type_enum enum in Postgres.
type OutboxAggregateType string

const (
	AggregateSubmission OutboxAggregateType = "waste_submission"
	AggregateRedemption OutboxAggregateType = "redemption"
	AggregateUser       OutboxAggregateType = "user"
	AggregateReport     OutboxAggregateType = "violation_report"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateSubmission,
	AggregateRedemption,
	AggregateUser,
	AggregateReport,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// OutboxEventType maps to the event_type_enum enum in Postgres.
type OutboxEventType string

const (
	EventSubmissionConfirmed OutboxEventType = "submission_confirmed"
	EventSubmissionRejected  OutboxEventType = "submission_rejected"
	EventRedemptionCreated   OutboxEventType = "redemption_created"
	EventRedemptionClaimed   OutboxEventType = "redemption_claimed"
	EventRedemptionCancelled OutboxEventType = "redemption_cancelled"
	EventPointsGranted       OutboxEventType = "points_granted"
	EventReportStatusChanged OutboxEventType = "report_status_changed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventSubmissionConfirmed,
	EventSubmissionRejected,
	EventRedemptionCreated,
	EventRedemptionClaimed,
	EventRedemptionCancelled,
	EventPointsGranted,
	EventReportStatusChanged,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
