package video

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openflix/catalog-admin/pkg/enums"
	apperrors "github.com/openflix/catalog-admin/pkg/errors"
	"github.com/openflix/catalog-admin/pkg/outbox"
	"github.com/openflix/catalog-admin/pkg/outbox/payloads"
)

const (
	maxTitleLen       = 255
	maxDescriptionLen = 4000
	firstLaunchYear   = 1888
)

// Video is the catalog aggregate. Mutations buffer domain events; the
// repository persists the aggregate and the events in one transaction.
type Video struct {
	ID          uuid.UUID
	Title       string
	Description string
	LaunchYear  int
	Duration    float64
	Rating      enums.Rating
	Opened      bool
	Published   bool

	CategoryIDs   []uuid.UUID
	GenreIDs      []uuid.UUID
	CastMemberIDs []uuid.UUID

	VideoFile     *AudioVideoMedia
	Trailer       *AudioVideoMedia
	Banner        *ImageMedia
	Thumbnail     *ImageMedia
	ThumbnailHalf *ImageMedia

	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time

	pending []outbox.DomainEvent
}

// Metadata carries the mutable scalar fields shared by create and update.
type Metadata struct {
	Title         string
	Description   string
	LaunchYear    int
	Duration      float64
	Rating        enums.Rating
	Opened        bool
	Published     bool
	CategoryIDs   []uuid.UUID
	GenreIDs      []uuid.UUID
	CastMemberIDs []uuid.UUID
}

// NewVideo creates a video and buffers its creation event.
func NewVideo(meta Metadata) (*Video, error) {
	if err := validateMetadata(meta); err != nil {
		return nil, err
	}
	v := &Video{
		ID:            uuid.New(),
		Title:         meta.Title,
		Description:   meta.Description,
		LaunchYear:    meta.LaunchYear,
		Duration:      meta.Duration,
		Rating:        meta.Rating,
		Opened:        meta.Opened,
		Published:     meta.Published,
		CategoryIDs:   meta.CategoryIDs,
		GenreIDs:      meta.GenreIDs,
		CastMemberIDs: meta.CastMemberIDs,
	}
	v.record(enums.OutboxEventVideoCreated, payloads.VideoCreatedEvent{
		AggregateID: v.ID,
		Title:       v.Title,
	})
	return v, nil
}

// Update replaces the scalar metadata. Media slots are untouched.
func (v *Video) Update(meta Metadata) error {
	if err := validateMetadata(meta); err != nil {
		return err
	}
	v.Title = meta.Title
	v.Description = meta.Description
	v.LaunchYear = meta.LaunchYear
	v.Duration = meta.Duration
	v.Rating = meta.Rating
	v.Opened = meta.Opened
	v.Published = meta.Published
	v.CategoryIDs = meta.CategoryIDs
	v.GenreIDs = meta.GenreIDs
	v.CastMemberIDs = meta.CastMemberIDs
	return nil
}

// AttachAudioVideoMedia binds an uploaded file to an encodable slot. A repeat
// upload of the same content (same checksum) is a no-op; a different file
// replaces the slot with a fresh media id and resets it to pending, which
// makes any in-flight encoder result for the old file stale.
func (v *Video) AttachAudioVideoMedia(slot enums.MediaType, checksum, rawLocation string) (*AudioVideoMedia, error) {
	if !slot.RequiresEncoding() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("slot %s does not accept audio/video media", slot))
	}
	if strings.TrimSpace(checksum) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "checksum is required")
	}
	if strings.TrimSpace(rawLocation) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "raw location is required")
	}

	current := v.audioVideoSlot(slot)
	if current != nil && current.Checksum == checksum {
		return current, nil
	}

	media := NewAudioVideoMedia(checksum, rawLocation)
	v.setAudioVideoSlot(slot, media)
	v.record(enums.OutboxEventVideoMediaAttached, payloads.VideoMediaAttachedEvent{
		AggregateID: v.ID,
		Slot:        string(slot),
		ResourceID:  media.ID,
		RawLocation: media.RawLocation,
	})
	return media, nil
}

// AttachImageMedia binds an image to one of the static slots.
func (v *Video) AttachImageMedia(slot enums.MediaType, checksum, name, location string) error {
	if slot.RequiresEncoding() || !slot.IsValid() {
		return apperrors.New(apperrors.CodeValidation, fmt.Sprintf("slot %s does not accept image media", slot))
	}
	if strings.TrimSpace(checksum) == "" {
		return apperrors.New(apperrors.CodeValidation, "checksum is required")
	}
	img := &ImageMedia{Checksum: checksum, Name: name, Location: location}
	switch slot {
	case enums.MediaTypeBanner:
		v.Banner = img
	case enums.MediaTypeThumbnail:
		v.Thumbnail = img
	case enums.MediaTypeThumbnailHalf:
		v.ThumbnailHalf = img
	}
	return nil
}

// MarkMediaProcessing applies the encoder's processing signal to the slot.
// Signals for a media id that is no longer current are dropped as stale.
func (v *Video) MarkMediaProcessing(slot enums.MediaType, resourceID uuid.UUID) error {
	media, err := v.currentMedia(slot, resourceID)
	if err != nil {
		return err
	}
	return media.markProcessing()
}

// ReconcileEncodingCompleted applies a terminal success notification and
// buffers the encoded event when the transition takes effect. Duplicates are
// no-ops; results for replaced media ids are reported as stale.
func (v *Video) ReconcileEncodingCompleted(slot enums.MediaType, resourceID uuid.UUID, encodedLocation string) error {
	media, err := v.currentMedia(slot, resourceID)
	if err != nil {
		return err
	}
	applied, err := media.complete(encodedLocation)
	if err != nil || !applied {
		return err
	}
	v.record(enums.OutboxEventVideoEncoded, payloads.VideoEncodedEvent{
		AggregateID:     v.ID,
		Slot:            string(slot),
		ResourceID:      media.ID,
		EncodedLocation: encodedLocation,
	})
	return nil
}

// ReconcileEncodingFailed applies a terminal failure notification, buffering
// the failure event when the transition takes effect.
func (v *Video) ReconcileEncodingFailed(slot enums.MediaType, resourceID uuid.UUID, reason string) error {
	media, err := v.currentMedia(slot, resourceID)
	if err != nil {
		return err
	}
	applied, err := media.fail(reason)
	if err != nil || !applied {
		return err
	}
	v.record(enums.OutboxEventVideoEncodingFail, payloads.VideoEncodingFailedEvent{
		AggregateID: v.ID,
		Slot:        string(slot),
		ResourceID:  media.ID,
		Reason:      reason,
	})
	return nil
}

// PendingEvents returns the buffered domain events in occurrence order.
func (v *Video) PendingEvents() []outbox.DomainEvent {
	return v.pending
}

// ClearPendingEvents drops the buffer after the repository persisted it.
func (v *Video) ClearPendingEvents() {
	v.pending = nil
}

func (v *Video) currentMedia(slot enums.MediaType, resourceID uuid.UUID) (*AudioVideoMedia, error) {
	if !slot.RequiresEncoding() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("slot %s has no encoding lifecycle", slot))
	}
	media := v.audioVideoSlot(slot)
	if media == nil || media.ID != resourceID {
		return nil, apperrors.New(apperrors.CodeStaleNotification,
			fmt.Sprintf("media %s is not current for slot %s", resourceID, slot))
	}
	return media, nil
}

// slotChecksum reports the checksum currently bound to the slot, or the
// empty string for an unbound slot.
func (v *Video) slotChecksum(slot enums.MediaType) string {
	if media := v.audioVideoSlot(slot); media != nil {
		return media.Checksum
	}
	switch slot {
	case enums.MediaTypeBanner:
		if v.Banner != nil {
			return v.Banner.Checksum
		}
	case enums.MediaTypeThumbnail:
		if v.Thumbnail != nil {
			return v.Thumbnail.Checksum
		}
	case enums.MediaTypeThumbnailHalf:
		if v.ThumbnailHalf != nil {
			return v.ThumbnailHalf.Checksum
		}
	}
	return ""
}

func (v *Video) audioVideoSlot(slot enums.MediaType) *AudioVideoMedia {
	switch slot {
	case enums.MediaTypeVideo:
		return v.VideoFile
	case enums.MediaTypeTrailer:
		return v.Trailer
	}
	return nil
}

func (v *Video) setAudioVideoSlot(slot enums.MediaType, media *AudioVideoMedia) {
	switch slot {
	case enums.MediaTypeVideo:
		v.VideoFile = media
	case enums.MediaTypeTrailer:
		v.Trailer = media
	}
}

func (v *Video) record(eventType enums.OutboxEventType, data interface{}) {
	v.pending = append(v.pending, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.OutboxAggregateVideo,
		AggregateID:   v.ID,
		Data:          data,
		Version:       1,
		OccurredAt:    time.Now(),
	})
}

func validateMetadata(meta Metadata) error {
	fields := map[string]string{}
	title := strings.TrimSpace(meta.Title)
	if title == "" {
		fields["title"] = "must not be empty"
	} else if len(meta.Title) > maxTitleLen {
		fields["title"] = fmt.Sprintf("must be at most %d characters", maxTitleLen)
	}
	if len(meta.Description) > maxDescriptionLen {
		fields["description"] = fmt.Sprintf("must be at most %d characters", maxDescriptionLen)
	}
	if meta.LaunchYear < firstLaunchYear {
		fields["launchYear"] = fmt.Sprintf("must be %d or later", firstLaunchYear)
	}
	if meta.Duration <= 0 {
		fields["duration"] = "must be positive"
	}
	if !meta.Rating.IsValid() {
		fields["rating"] = "is not a known rating"
	}
	if len(fields) > 0 {
		return apperrors.New(apperrors.CodeValidation, "invalid video metadata").WithDetails(fields)
	}
	return nil
}
