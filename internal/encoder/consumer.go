package encoder

import (
	"context"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/openflix/catalog-admin/internal/video"
	"github.com/openflix/catalog-admin/pkg/enums"
	apperrors "github.com/openflix/catalog-admin/pkg/errors"
	"github.com/openflix/catalog-admin/pkg/logger"
	"github.com/openflix/catalog-admin/pkg/metrics"
)

const encoderResultsConsumer = "encoder-results"

type videoService interface {
	ApplyEncodingResult(ctx context.Context, result video.EncodingResult) error
}

type idempotencyGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer, eventID string) (bool, error)
	Delete(ctx context.Context, consumer, eventID string) error
}

// Consumer reconciles terminal encoder notifications with the video
// aggregate. Stale and duplicate results are acked and dropped; transient
// failures are nacked for redelivery.
type Consumer struct {
	videos       videoService
	subscription *pubsub.Subscriber
	idempotency  idempotencyGuard
	logg         *logger.Logger
	metrics      *metrics.ConsumerMetrics
}

// NewConsumer builds the encoder results consumer.
func NewConsumer(videos videoService, subscription *pubsub.Subscriber, guard idempotencyGuard, logg *logger.Logger, m *metrics.ConsumerMetrics) (*Consumer, error) {
	if videos == nil {
		return nil, fmt.Errorf("video service required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("encoder subscription required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		videos:       videos,
		subscription: subscription,
		idempotency:  guard,
		logg:         logg,
		metrics:      m,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	fields := map[string]any{
		"message_id": msg.ID,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	result, err := decodeResult(msg.Data)
	if err != nil {
		// malformed payloads never become processable; drop them
		c.logg.Error(logCtx, "failed to decode encoder result", err)
		c.metrics.IncMalformed()
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"video_id":    result.AggregateID.String(),
		"resource_id": result.ResourceID.String(),
		"media_slot":  result.Slot,
		"status":      result.Status,
	})

	dedupeKey := fmt.Sprintf("%s:%s", result.ResourceID, result.mediaStatus())
	already, err := c.idempotency.CheckAndMarkProcessed(ctx, encoderResultsConsumer, dedupeKey)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "encoder result already processed")
		c.metrics.IncDuplicate()
		return processResult{ack: true}
	}

	slot, err := enums.ParseMediaType(result.Slot)
	if err != nil {
		c.logg.Error(logCtx, "invalid media slot", err)
		c.metrics.IncMalformed()
		return processResult{ack: true}
	}

	applyErr := c.videos.ApplyEncodingResult(ctx, video.EncodingResult{
		VideoID:         result.AggregateID,
		Slot:            slot,
		ResourceID:      result.ResourceID,
		Status:          result.mediaStatus(),
		EncodedLocation: result.EncodedLocation,
		Reason:          result.Reason,
	})
	if applyErr != nil {
		switch {
		case apperrors.HasCode(applyErr, apperrors.CodeStaleNotification):
			// the media was replaced since this job started; drop silently
			c.logg.Info(logCtx, "encoder result superseded by re-upload")
			c.metrics.IncStale()
			return processResult{ack: true}
		case apperrors.HasCode(applyErr, apperrors.CodeNotFound):
			c.logg.Warn(c.logg.WithField(logCtx, "error", applyErr.Error()), "video no longer exists")
			return processResult{ack: true}
		case apperrors.HasCode(applyErr, apperrors.CodeStateConflict):
			// the slot already settled in the opposite terminal state;
			// redelivering the same result can never change that
			c.logg.Warn(c.logg.WithField(logCtx, "error", applyErr.Error()), "encoder result contradicts settled slot")
			c.metrics.IncStateConflict()
			return processResult{ack: true}
		case apperrors.HasCode(applyErr, apperrors.CodeVersionConflict):
			c.logg.Warn(logCtx, "version conflict applying encoder result")
			c.metrics.IncConflict()
			_ = c.idempotency.Delete(ctx, encoderResultsConsumer, dedupeKey)
			return processResult{nack: true}
		default:
			c.logg.Error(logCtx, "applying encoder result failed", applyErr)
			_ = c.idempotency.Delete(ctx, encoderResultsConsumer, dedupeKey)
			return processResult{nack: true}
		}
	}

	c.metrics.IncApplied(string(result.mediaStatus()))
	c.logg.Info(logCtx, "encoder result applied")
	return processResult{ack: true}
}
