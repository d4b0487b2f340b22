package enums

import "fmt"

// ReportSeverity maps to the report_severity_enum enum in Postgres.
type ReportSeverity string

const (
	ReportSeverityLow    ReportSeverity = "low"
	ReportSeverityMedium ReportSeverity = "medium"
	ReportSeverityHigh   ReportSeverity = "high"
)

var validReportSeverities = []ReportSeverity{
	ReportSeverityLow,
	ReportSeverityMedium,
	ReportSeverityHigh,
}

// IsValid reports whether the value matches the canonical severity enum.
func (s ReportSeverity) IsValid() bool {
	for _, candidate := range validReportSeverities {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseReportSeverity converts raw input into ReportSeverity.
func ParseReportSeverity(value string) (ReportSeverity, error) {
	for _, candidate := range validReportSeverities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid report severity %q", value)
}
