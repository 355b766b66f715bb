package video

import (
	"github.com/google/uuid"

	"github.com/openflix/catalog-admin/pkg/enums"
	apperrors "github.com/openflix/catalog-admin/pkg/errors"
)

// AudioVideoMedia is one encodable media item. Each upload gets a fresh ID,
// so encoder notifications for a replaced file can be told apart from the
// current one.
type AudioVideoMedia struct {
	ID              uuid.UUID
	Checksum        string
	RawLocation     string
	EncodedLocation string
	Status          enums.MediaStatus
	StatusReason    string
}

// NewAudioVideoMedia builds a pending media item for a fresh upload.
func NewAudioVideoMedia(checksum, rawLocation string) *AudioVideoMedia {
	return &AudioVideoMedia{
		ID:          uuid.New(),
		Checksum:    checksum,
		RawLocation: rawLocation,
		Status:      enums.MediaStatusPending,
	}
}

// markProcessing moves the item into the processing state. Late or repeated
// signals are silently absorbed.
func (m *AudioVideoMedia) markProcessing() error {
	switch m.Status {
	case enums.MediaStatusPending:
		m.Status = enums.MediaStatusProcessing
		return nil
	case enums.MediaStatusProcessing, enums.MediaStatusCompleted, enums.MediaStatusError:
		// processing signal arrived late; terminal state wins
		return nil
	default:
		return apperrors.New(apperrors.CodeStateConflict, "unknown media status")
	}
}

// complete records a successful encode. Completion straight from pending is
// accepted: small files can finish before the processing signal lands.
// Returns true when the transition was applied, false for a duplicate.
func (m *AudioVideoMedia) complete(encodedLocation string) (bool, error) {
	switch m.Status {
	case enums.MediaStatusPending, enums.MediaStatusProcessing:
		m.Status = enums.MediaStatusCompleted
		m.EncodedLocation = encodedLocation
		m.StatusReason = ""
		return true, nil
	case enums.MediaStatusCompleted:
		return false, nil
	case enums.MediaStatusError:
		return false, apperrors.New(apperrors.CodeStateConflict, "media already failed encoding")
	default:
		return false, apperrors.New(apperrors.CodeStateConflict, "unknown media status")
	}
}

// fail records a terminal encoding failure, with the same tolerance for the
// accelerated pending path and for duplicates as complete.
func (m *AudioVideoMedia) fail(reason string) (bool, error) {
	switch m.Status {
	case enums.MediaStatusPending, enums.MediaStatusProcessing:
		m.Status = enums.MediaStatusError
		m.StatusReason = reason
		return true, nil
	case enums.MediaStatusError:
		return false, nil
	case enums.MediaStatusCompleted:
		return false, apperrors.New(apperrors.CodeStateConflict, "media already completed encoding")
	default:
		return false, apperrors.New(apperrors.CodeStateConflict, "unknown media status")
	}
}

// ImageMedia is a static image slot; it never passes through the encoder.
type ImageMedia struct {
	Checksum string
	Name     string
	Location string
}
