package video

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/openflix/catalog-admin/pkg/enums"
	apperrors "github.com/openflix/catalog-admin/pkg/errors"
)

func baseMetadata() Metadata {
	return Metadata{
		Title:       "Interstellar Voyage",
		Description: "A crew leaves a dying Earth behind.",
		LaunchYear:  2024,
		Duration:    128.5,
		Rating:      enums.RatingAge12,
		Opened:      true,
		Published:   false,
		CategoryIDs: []uuid.UUID{uuid.New()},
	}
}

func TestNewVideoBuffersCreatedEvent(t *testing.T) {
	v, err := NewVideo(baseMetadata())
	if err != nil {
		t.Fatalf("new video: %v", err)
	}
	if v.ID == uuid.Nil {
		t.Fatal("expected id to be assigned")
	}
	events := v.PendingEvents()
	if len(events) != 1 {
		t.Fatalf("expected one buffered event, got %d", len(events))
	}
	if events[0].EventType != enums.OutboxEventVideoCreated {
		t.Fatalf("unexpected event type %s", events[0].EventType)
	}
	if events[0].AggregateID != v.ID {
		t.Fatal("event aggregate id mismatch")
	}
}

func TestNewVideoValidation(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(*Metadata)
		field string
	}{
		{"empty title", func(m *Metadata) { m.Title = "  " }, "title"},
		{"title too long", func(m *Metadata) { m.Title = strings.Repeat("x", 256) }, "title"},
		{"description too long", func(m *Metadata) { m.Description = strings.Repeat("x", 4001) }, "description"},
		{"launch year before cinema", func(m *Metadata) { m.LaunchYear = 1800 }, "launchYear"},
		{"negative duration", func(m *Metadata) { m.Duration = -1 }, "duration"},
		{"zero duration", func(m *Metadata) { m.Duration = 0 }, "duration"},
		{"unknown rating", func(m *Metadata) { m.Rating = "PG-13" }, "rating"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			meta := baseMetadata()
			tc.mut(&meta)
			_, err := NewVideo(meta)
			if err == nil {
				t.Fatal("expected validation error")
			}
			typed := apperrors.As(err)
			if typed == nil || typed.Code() != apperrors.CodeValidation {
				t.Fatalf("expected validation code, got %v", err)
			}
			details, ok := typed.Details().(map[string]string)
			if !ok {
				t.Fatalf("expected field details, got %T", typed.Details())
			}
			if _, ok := details[tc.field]; !ok {
				t.Fatalf("expected detail for field %q, got %v", tc.field, details)
			}
		})
	}
}

func TestAttachAudioVideoMediaSameChecksumIsNoOp(t *testing.T) {
	v := mustVideo(t)
	v.ClearPendingEvents()

	first, err := v.AttachAudioVideoMedia(enums.MediaTypeVideo, "sum-1", "gs://raw/a.mp4")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if len(v.PendingEvents()) != 1 {
		t.Fatalf("expected one attach event, got %d", len(v.PendingEvents()))
	}

	second, err := v.AttachAudioVideoMedia(enums.MediaTypeVideo, "sum-1", "gs://raw/a-copy.mp4")
	if err != nil {
		t.Fatalf("repeat attach: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("same checksum must keep the existing media")
	}
	if len(v.PendingEvents()) != 1 {
		t.Fatal("repeat attach must not buffer another event")
	}
}

func TestAttachAudioVideoMediaReplacementResetsSlot(t *testing.T) {
	v := mustVideo(t)
	first, err := v.AttachAudioVideoMedia(enums.MediaTypeVideo, "sum-1", "gs://raw/a.mp4")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := v.ReconcileEncodingCompleted(enums.MediaTypeVideo, first.ID, "gs://enc/a"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	replacement, err := v.AttachAudioVideoMedia(enums.MediaTypeVideo, "sum-2", "gs://raw/b.mp4")
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if replacement.ID == first.ID {
		t.Fatal("replacement must get a fresh media id")
	}
	if replacement.Status != enums.MediaStatusPending {
		t.Fatalf("replacement must reset to pending, got %s", replacement.Status)
	}
	if replacement.EncodedLocation != "" {
		t.Fatal("replacement must not inherit the encoded location")
	}
}

func TestMarkMediaProcessingAbsorbsLateSignal(t *testing.T) {
	v := mustVideo(t)
	media, err := v.AttachAudioVideoMedia(enums.MediaTypeTrailer, "sum-1", "gs://raw/t.mp4")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := v.ReconcileEncodingCompleted(enums.MediaTypeTrailer, media.ID, "gs://enc/t"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := v.MarkMediaProcessing(enums.MediaTypeTrailer, media.ID); err != nil {
		t.Fatalf("late processing signal must be absorbed, got %v", err)
	}
	if media.Status != enums.MediaStatusCompleted {
		t.Fatalf("terminal status must win, got %s", media.Status)
	}
}

func TestMarkMediaProcessingStaleResource(t *testing.T) {
	v := mustVideo(t)
	if _, err := v.AttachAudioVideoMedia(enums.MediaTypeVideo, "sum-1", "gs://raw/a.mp4"); err != nil {
		t.Fatalf("attach: %v", err)
	}

	err := v.MarkMediaProcessing(enums.MediaTypeVideo, uuid.New())
	if !apperrors.HasCode(err, apperrors.CodeStaleNotification) {
		t.Fatalf("expected stale notification, got %v", err)
	}
}

func TestReconcileEncodingCompletedFromPending(t *testing.T) {
	v := mustVideo(t)
	media, err := v.AttachAudioVideoMedia(enums.MediaTypeVideo, "sum-1", "gs://raw/a.mp4")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	v.ClearPendingEvents()

	// small files can finish before the processing signal lands
	if err := v.ReconcileEncodingCompleted(enums.MediaTypeVideo, media.ID, "gs://enc/a"); err != nil {
		t.Fatalf("complete from pending: %v", err)
	}
	if media.Status != enums.MediaStatusCompleted {
		t.Fatalf("expected completed, got %s", media.Status)
	}
	if media.EncodedLocation != "gs://enc/a" {
		t.Fatalf("encoded location not recorded: %q", media.EncodedLocation)
	}
	events := v.PendingEvents()
	if len(events) != 1 || events[0].EventType != enums.OutboxEventVideoEncoded {
		t.Fatalf("expected encoded event, got %v", events)
	}
}

func TestReconcileEncodingCompletedDuplicateBuffersNothing(t *testing.T) {
	v := mustVideo(t)
	media, err := v.AttachAudioVideoMedia(enums.MediaTypeVideo, "sum-1", "gs://raw/a.mp4")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := v.ReconcileEncodingCompleted(enums.MediaTypeVideo, media.ID, "gs://enc/a"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	v.ClearPendingEvents()

	if err := v.ReconcileEncodingCompleted(enums.MediaTypeVideo, media.ID, "gs://enc/a"); err != nil {
		t.Fatalf("duplicate terminal must be a no-op, got %v", err)
	}
	if len(v.PendingEvents()) != 0 {
		t.Fatal("duplicate terminal must not buffer an event")
	}
}

func TestReconcileCrossTerminalConflict(t *testing.T) {
	v := mustVideo(t)
	media, err := v.AttachAudioVideoMedia(enums.MediaTypeVideo, "sum-1", "gs://raw/a.mp4")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := v.ReconcileEncodingCompleted(enums.MediaTypeVideo, media.ID, "gs://enc/a"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	err = v.ReconcileEncodingFailed(enums.MediaTypeVideo, media.ID, "codec error")
	if !apperrors.HasCode(err, apperrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if media.Status != enums.MediaStatusCompleted {
		t.Fatalf("completed status must not be overwritten, got %s", media.Status)
	}
}

func TestReconcileEncodingFailedBuffersFailureEvent(t *testing.T) {
	v := mustVideo(t)
	media, err := v.AttachAudioVideoMedia(enums.MediaTypeTrailer, "sum-1", "gs://raw/t.mp4")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := v.MarkMediaProcessing(enums.MediaTypeTrailer, media.ID); err != nil {
		t.Fatalf("processing: %v", err)
	}
	v.ClearPendingEvents()

	if err := v.ReconcileEncodingFailed(enums.MediaTypeTrailer, media.ID, "corrupt input"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if media.Status != enums.MediaStatusError {
		t.Fatalf("expected error status, got %s", media.Status)
	}
	if media.StatusReason != "corrupt input" {
		t.Fatalf("reason not recorded: %q", media.StatusReason)
	}
	events := v.PendingEvents()
	if len(events) != 1 || events[0].EventType != enums.OutboxEventVideoEncodingFail {
		t.Fatalf("expected failure event, got %v", events)
	}
}

func TestAttachImageMediaRejectsEncodableSlot(t *testing.T) {
	v := mustVideo(t)
	err := v.AttachImageMedia(enums.MediaTypeVideo, "sum-1", "a.png", "gs://raw/a.png")
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAttachImageMediaSetsSlot(t *testing.T) {
	v := mustVideo(t)
	if err := v.AttachImageMedia(enums.MediaTypeBanner, "sum-1", "banner.png", "gs://raw/banner.png"); err != nil {
		t.Fatalf("attach image: %v", err)
	}
	if v.Banner == nil || v.Banner.Location != "gs://raw/banner.png" {
		t.Fatalf("banner slot not set: %+v", v.Banner)
	}
}

func mustVideo(t *testing.T) *Video {
	t.Helper()
	v, err := NewVideo(baseMetadata())
	if err != nil {
		t.Fatalf("new video: %v", err)
	}
	return v
}
