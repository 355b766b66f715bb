package enums

import "fmt"

// MediaStatus tracks the encoding lifecycle of an audio/video media item.
type MediaStatus string

const (
	MediaStatusPending    MediaStatus = "pending"
	MediaStatusProcessing MediaStatus = "processing"
	MediaStatusCompleted  MediaStatus = "completed"
	MediaStatusError      MediaStatus = "error"
)

var validMediaStatuses = []MediaStatus{
	MediaStatusPending,
	MediaStatusProcessing,
	MediaStatusCompleted,
	MediaStatusError,
}

// IsValid checks whether the given status matches the canonical enum.
func (s MediaStatus) IsValid() bool {
	for _, candidate := range validMediaStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends the encoding lifecycle.
func (s MediaStatus) IsTerminal() bool {
	return s == MediaStatusCompleted || s == MediaStatusError
}

// ParseMediaStatus converts raw strings into MediaStatus.
func ParseMediaStatus(value string) (MediaStatus, error) {
	for _, candidate := range validMediaStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid media status %q", value)
}
