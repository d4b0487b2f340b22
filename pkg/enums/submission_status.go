package enums

import "fmt"

// SubmissionStatus maps to the submission_status_enum enum in Postgres.
type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "pending"
	SubmissionStatusConfirmed SubmissionStatus = "confirmed"
	SubmissionStatusRejected  SubmissionStatus = "rejected"
)

var validSubmissionStatuses = []SubmissionStatus{
	SubmissionStatusPending,
	SubmissionStatusConfirmed,
	SubmissionStatusRejected,
}

// IsValid reports whether the value matches the canonical submission status enum.
func (s SubmissionStatus) IsValid() bool {
	for _, candidate := range validSubmissionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted from s.
func (s SubmissionStatus) IsTerminal() bool {
	return s == SubmissionStatusConfirmed || s == SubmissionStatusRejected
}

// ParseSubmissionStatus converts raw input into SubmissionStatus.
func ParseSubmissionStatus(value string) (SubmissionStatus, error) {
	for _, candidate := range validSubmissionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid submission status %q", value)
}
