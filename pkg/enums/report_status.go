package enums

import "fmt"

// ReportStatus maps to the report_status_enum enum in Postgres.
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusInReview ReportStatus = "in_review"
	ReportStatusResolved ReportStatus = "resolved"
)

var validReportStatuses = []ReportStatus{
	ReportStatusPending,
	ReportStatusInReview,
	ReportStatusResolved,
}

// IsValid reports whether the value matches the canonical report status enum.
func (s ReportStatus) IsValid() bool {
	for _, candidate := range validReportStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseReportStatus converts raw input into ReportStatus.
func ParseReportStatus(value string) (ReportStatus, error) {
	for _, candidate := range validReportStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid report status %q", value)
}
