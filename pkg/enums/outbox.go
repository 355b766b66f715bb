package enums

import "fmt"

// OutboxEventType enumerates the domain events written to the outbox table.
type OutboxEventType string

const (
	OutboxEventVideoCreated       OutboxEventType = "video_created"
	OutboxEventVideoMediaAttached OutboxEventType = "video_media_attached"
	OutboxEventVideoEncoded       OutboxEventType = "video_encoded"
	OutboxEventVideoEncodingFail  OutboxEventType = "video_encoding_failed"
)

var validOutboxEventTypes = []OutboxEventType{
	OutboxEventVideoCreated,
	OutboxEventVideoMediaAttached,
	OutboxEventVideoEncoded,
	OutboxEventVideoEncodingFail,
}

// IsValid checks whether the given type matches the canonical enum.
func (o OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw strings into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxAggregateType names the aggregate an outbox row belongs to.
type OutboxAggregateType string

const (
	OutboxAggregateVideo OutboxAggregateType = "video"
)

// IsValid checks whether the given aggregate type is known.
func (o OutboxAggregateType) IsValid() bool {
	return o == OutboxAggregateVideo
}

// OutboxDLQReason records why a row was parked in the dead letter table.
type OutboxDLQReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQReason = "non_retryable"
)
