package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/openflix/catalog-admin/pkg/config"
	"github.com/openflix/catalog-admin/pkg/db/models"
	"github.com/openflix/catalog-admin/pkg/enums"
	"github.com/openflix/catalog-admin/pkg/outbox"
	"github.com/openflix/catalog-admin/pkg/outbox/payloads"
)

func newTestRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{VideosTopic: "videos-topic"})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return reg
}

func envelopeWith(t *testing.T, data any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       raw,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return payload
}

func TestNewEventRegistryRequiresVideosTopic(t *testing.T) {
	if _, err := NewEventRegistry(config.PubSubConfig{}); err == nil {
		t.Fatal("expected error for missing videos topic")
	}
}

func TestResolveDecodesTypedPayload(t *testing.T) {
	reg := newTestRegistry(t)
	aggregateID := uuid.New()

	resolved, err := reg.Resolve(models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.OutboxEventVideoCreated,
		AggregateType: enums.OutboxAggregateVideo,
		AggregateID:   aggregateID,
		Payload: envelopeWith(t, payloads.VideoCreatedEvent{
			AggregateID: aggregateID,
			Title:       "Interstellar Voyage",
		}),
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Descriptor.Topic != "videos-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	payload, ok := resolved.Payload.(*payloads.VideoCreatedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if payload.Title != "Interstellar Voyage" {
		t.Fatalf("unexpected title %q", payload.Title)
	}
}

func TestResolveUnsupportedEventTypeIsNonRetryable(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.Resolve(models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.OutboxEventType("order.created"),
		AggregateType: enums.OutboxAggregateVideo,
		AggregateID:   uuid.New(),
		Payload:       envelopeWith(t, payloads.VideoCreatedEvent{}),
	})
	var nonRetryable NonRetryableError
	if !errors.As(err, &nonRetryable) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestResolveAggregateMismatchIsNonRetryable(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.Resolve(models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.OutboxEventVideoCreated,
		AggregateType: enums.OutboxAggregateType("order"),
		AggregateID:   uuid.New(),
		Payload:       envelopeWith(t, payloads.VideoCreatedEvent{}),
	})
	var nonRetryable NonRetryableError
	if !errors.As(err, &nonRetryable) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestResolveEmptyPayloadIsNonRetryable(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.Resolve(models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.OutboxEventVideoCreated,
		AggregateType: enums.OutboxAggregateVideo,
		AggregateID:   uuid.New(),
		Payload:       envelopeWith(t, nil),
	})
	var nonRetryable NonRetryableError
	if !errors.As(err, &nonRetryable) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}
