package enums

import "fmt"

// MediaKind categorizes uploaded objects and decides their storage prefix.
type MediaKind string

const (
	MediaKindSubmission MediaKind = "submission"
	MediaKindReport     MediaKind = "report"
	MediaKindAvatar     MediaKind = "avatar"
)

var validMediaKinds = []MediaKind{
	MediaKindSubmission,
	MediaKindReport,
	MediaKindAvatar,
}

// IsValid reports whether the value matches a known media kind.
func (k MediaKind) IsValid() bool {
	for _, candidate := range validMediaKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseMediaKind converts raw input into MediaKind.
func ParseMediaKind(value string) (MediaKind, error) {
	for _, candidate := range validMediaKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid media kind %q", value)
}
