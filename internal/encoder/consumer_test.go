package encoder

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/openflix/catalog-admin/internal/video"
	apperrors "github.com/openflix/catalog-admin/pkg/errors"
	"github.com/openflix/catalog-admin/pkg/logger"
)

type fakeVideoService struct {
	applied []video.EncodingResult
	err     error
}

func (f *fakeVideoService) ApplyEncodingResult(_ context.Context, result video.EncodingResult) error {
	f.applied = append(f.applied, result)
	return f.err
}

type fakeGuard struct {
	already  bool
	checkErr error
	marked   []string
	deleted  []string
}

func (f *fakeGuard) CheckAndMarkProcessed(_ context.Context, _, eventID string) (bool, error) {
	if f.checkErr != nil {
		return false, f.checkErr
	}
	f.marked = append(f.marked, eventID)
	return f.already, nil
}

func (f *fakeGuard) Delete(_ context.Context, _, eventID string) error {
	f.deleted = append(f.deleted, eventID)
	return nil
}

func newTestConsumer(videos videoService, guard idempotencyGuard) *Consumer {
	return &Consumer{
		videos:      videos,
		idempotency: guard,
		logg:        logger.New(logger.Options{ServiceName: "encoder-test", Output: io.Discard}),
	}
}

func resultPayload(t *testing.T, status string) ([]byte, ResultMessage) {
	t.Helper()
	msg := ResultMessage{
		ResourceID:      uuid.New(),
		AggregateID:     uuid.New(),
		Slot:            "video",
		Status:          status,
		EncodedLocation: "gs://enc/a",
	}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	return data, msg
}

func TestProcessAppliesCompletedResult(t *testing.T) {
	svc := &fakeVideoService{}
	guard := &fakeGuard{}
	consumer := newTestConsumer(svc, guard)

	data, msg := resultPayload(t, "COMPLETED")
	result := consumer.process(context.Background(), &pubsub.Message{Data: data})
	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(svc.applied) != 1 {
		t.Fatalf("expected one apply call, got %d", len(svc.applied))
	}
	applied := svc.applied[0]
	if applied.VideoID != msg.AggregateID || applied.ResourceID != msg.ResourceID {
		t.Fatal("identifiers not forwarded")
	}
	if applied.EncodedLocation != "gs://enc/a" {
		t.Fatalf("encoded location not forwarded: %q", applied.EncodedLocation)
	}
	if len(guard.marked) != 1 {
		t.Fatalf("expected one idempotency mark, got %d", len(guard.marked))
	}
	if len(guard.deleted) != 0 {
		t.Fatal("successful apply must keep the idempotency marker")
	}
}

func TestProcessAcksMalformedPayload(t *testing.T) {
	svc := &fakeVideoService{}
	consumer := newTestConsumer(svc, &fakeGuard{})

	result := consumer.process(context.Background(), &pubsub.Message{Data: []byte("not-json")})
	if !result.ack {
		t.Fatalf("malformed payload must be acked, got %+v", result)
	}
	if len(svc.applied) != 0 {
		t.Fatal("malformed payload must never reach the service")
	}
}

func TestProcessAcksNonTerminalStatus(t *testing.T) {
	svc := &fakeVideoService{}
	consumer := newTestConsumer(svc, &fakeGuard{})

	data, _ := resultPayload(t, "PROCESSING")
	result := consumer.process(context.Background(), &pubsub.Message{Data: data})
	if !result.ack {
		t.Fatalf("non-terminal status must be acked, got %+v", result)
	}
	if len(svc.applied) != 0 {
		t.Fatal("non-terminal status must never reach the service")
	}
}

func TestProcessAcksDuplicateDelivery(t *testing.T) {
	svc := &fakeVideoService{}
	consumer := newTestConsumer(svc, &fakeGuard{already: true})

	data, _ := resultPayload(t, "COMPLETED")
	result := consumer.process(context.Background(), &pubsub.Message{Data: data})
	if !result.ack {
		t.Fatalf("duplicate delivery must be acked, got %+v", result)
	}
	if len(svc.applied) != 0 {
		t.Fatal("duplicate delivery must not reapply")
	}
}

func TestProcessNacksWhenGuardUnavailable(t *testing.T) {
	svc := &fakeVideoService{}
	consumer := newTestConsumer(svc, &fakeGuard{checkErr: errors.New("redis down")})

	data, _ := resultPayload(t, "COMPLETED")
	result := consumer.process(context.Background(), &pubsub.Message{Data: data})
	if !result.nack {
		t.Fatalf("guard failure must nack for redelivery, got %+v", result)
	}
}

func TestProcessAcksStaleResult(t *testing.T) {
	svc := &fakeVideoService{err: apperrors.New(apperrors.CodeStaleNotification, "replaced")}
	guard := &fakeGuard{}
	consumer := newTestConsumer(svc, guard)

	data, _ := resultPayload(t, "ERROR")
	result := consumer.process(context.Background(), &pubsub.Message{Data: data})
	if !result.ack {
		t.Fatalf("stale result must be acked, got %+v", result)
	}
	if len(guard.deleted) != 0 {
		t.Fatal("stale result keeps its idempotency marker")
	}
}

func TestProcessAcksMissingVideo(t *testing.T) {
	svc := &fakeVideoService{err: apperrors.New(apperrors.CodeNotFound, "gone")}
	consumer := newTestConsumer(svc, &fakeGuard{})

	data, _ := resultPayload(t, "COMPLETED")
	result := consumer.process(context.Background(), &pubsub.Message{Data: data})
	if !result.ack {
		t.Fatalf("missing video must be acked, got %+v", result)
	}
}

func TestProcessAcksCrossTerminalConflict(t *testing.T) {
	svc := &fakeVideoService{err: apperrors.New(apperrors.CodeStateConflict, "media already failed encoding")}
	guard := &fakeGuard{}
	consumer := newTestConsumer(svc, guard)

	data, _ := resultPayload(t, "COMPLETED")
	result := consumer.process(context.Background(), &pubsub.Message{Data: data})
	if !result.ack || result.nack {
		t.Fatalf("cross-terminal result must be acked and dropped, got %+v", result)
	}
	if len(guard.deleted) != 0 {
		t.Fatal("cross-terminal result keeps its idempotency marker")
	}
}

func TestProcessNacksVersionConflictAndReleasesMarker(t *testing.T) {
	svc := &fakeVideoService{err: apperrors.New(apperrors.CodeVersionConflict, "lost the race")}
	guard := &fakeGuard{}
	consumer := newTestConsumer(svc, guard)

	data, msg := resultPayload(t, "COMPLETED")
	result := consumer.process(context.Background(), &pubsub.Message{Data: data})
	if !result.nack {
		t.Fatalf("version conflict must nack for redelivery, got %+v", result)
	}
	if len(guard.deleted) != 1 {
		t.Fatalf("version conflict must release the idempotency marker, got %d deletes", len(guard.deleted))
	}
	wantKey := msg.ResourceID.String() + ":completed"
	if guard.deleted[0] != wantKey {
		t.Fatalf("unexpected marker key %q, want %q", guard.deleted[0], wantKey)
	}
}

func TestProcessNacksUnexpectedFailure(t *testing.T) {
	svc := &fakeVideoService{err: errors.New("database down")}
	guard := &fakeGuard{}
	consumer := newTestConsumer(svc, guard)

	data, _ := resultPayload(t, "ERROR")
	result := consumer.process(context.Background(), &pubsub.Message{Data: data})
	if !result.nack {
		t.Fatalf("unexpected failure must nack, got %+v", result)
	}
	if len(guard.deleted) != 1 {
		t.Fatal("failed apply must release the idempotency marker")
	}
}
