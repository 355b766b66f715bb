package payloads

import "github.com/google/uuid"

// VideoCreatedEvent announces a new catalog entry.
type VideoCreatedEvent struct {
	AggregateID uuid.UUID `json:"aggregateId"`
	Title       string    `json:"title"`
}

// VideoMediaAttachedEvent asks the encoder to pick up a freshly uploaded
// audio/video file. ResourceID identifies the media item, not the video.
type VideoMediaAttachedEvent struct {
	AggregateID uuid.UUID `json:"aggregateId"`
	Slot        string    `json:"slot"`
	ResourceID  uuid.UUID `json:"resourceId"`
	RawLocation string    `json:"rawLocation"`
}

// VideoEncodedEvent signals a media item finished encoding.
type VideoEncodedEvent struct {
	AggregateID     uuid.UUID `json:"aggregateId"`
	Slot            string    `json:"slot"`
	ResourceID      uuid.UUID `json:"resourceId"`
	EncodedLocation string    `json:"encodedLocation"`
}

// VideoEncodingFailedEvent signals a media item could not be encoded.
type VideoEncodingFailedEvent struct {
	AggregateID uuid.UUID `json:"aggregateId"`
	Slot        string    `json:"slot"`
	ResourceID  uuid.UUID `json:"resourceId"`
	Reason      string    `json:"reason"`
}
