package enums

import "fmt"

// ToastSeverity styles a transient notification.
type ToastSeverity string

const (
	ToastSeveritySuccess ToastSeverity = "success"
	ToastSeverityError   ToastSeverity = "error"
)

var validToastSeverities = []ToastSeverity{
	ToastSeveritySuccess,
	ToastSeverityError,
}

// String implements fmt.Stringer.
func (s ToastSeverity) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ToastSeverity.
func (s ToastSeverity) IsValid() bool {
	for _, candidate := range validToastSeverities {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseToastSeverity converts raw input into a ToastSeverity.
func ParseToastSeverity(value string) (ToastSeverity, error) {
	for _, candidate := range validToastSeverities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid toast severity %q", value)
}
