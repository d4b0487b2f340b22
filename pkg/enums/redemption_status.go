package enums

import "fmt"

// RedemptionStatus maps to the redemption_status_enum enum in Postgres.
type RedemptionStatus string

const (
	RedemptionStatusPending   RedemptionStatus = "pending"
	RedemptionStatusClaimed   RedemptionStatus = "claimed"
	RedemptionStatusCancelled RedemptionStatus = "cancelled"
)

var validRedemptionStatuses = []RedemptionStatus{
	RedemptionStatusPending,
	RedemptionStatusClaimed,
	RedemptionStatusCancelled,
}

// IsValid reports whether the value matches the canonical redemption status enum.
func (s RedemptionStatus) IsValid() bool {
	for _, candidate := range validRedemptionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted from s.
func (s RedemptionStatus) IsTerminal() bool {
	return s == RedemptionStatusClaimed || s == RedemptionStatusCancelled
}

// ParseRedemptionStatus converts raw input into RedemptionStatus.
func ParseRedemptionStatus(value string) (RedemptionStatus, error) {
	for _, candidate := range validRedemptionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid redemption status %q", value)
}
