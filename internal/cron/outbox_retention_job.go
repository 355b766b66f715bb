package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/openflix/catalog-admin/pkg/logger"
)

const (
	outboxRetentionDays    = 30
	outboxDLQRetentionDays = 90
)

type OutboxRetentionJobParams struct {
	Logger        *logger.Logger
	Repository    outboxRetentionRepo
	DLQRepository dlqRetentionRepo
	Retention     int
	DLQRetention  int
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type dlqRetentionRepo interface {
	DeleteFailedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewOutboxRetentionJob prunes published outbox rows and aged DLQ rows past
// their retention windows. The publisher itself never deletes; this job is
// the only cleanup.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = outboxRetentionDays
	}
	dlqRetention := params.DLQRetention
	if dlqRetention <= 0 {
		dlqRetention = outboxDLQRetentionDays
	}
	return &outboxRetentionJob{
		logg:         params.Logger,
		repo:         params.Repository,
		dlqRepo:      params.DLQRepository,
		retention:    retention,
		dlqRetention: dlqRetention,
		now:          time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg         *logger.Logger
	repo         outboxRetentionRepo
	dlqRepo      dlqRetentionRepo
	retention    int
	dlqRetention int
	now          func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	var errs []error

	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	deleted, err := j.repo.DeletePublishedBefore(ctx, cutoff)
	if err != nil {
		errs = append(errs, fmt.Errorf("outbox retention: %w", err))
	} else {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"cutoff":         cutoff,
			"retention_days": j.retention,
			"rows_deleted":   deleted,
		})
		j.logg.Info(logCtx, "outbox retention cleanup complete")
	}

	if j.dlqRepo != nil {
		dlqCutoff := j.now().UTC().Add(-time.Duration(j.dlqRetention) * 24 * time.Hour)
		dlqDeleted, err := j.dlqRepo.DeleteFailedBefore(ctx, dlqCutoff)
		if err != nil {
			errs = append(errs, fmt.Errorf("dlq retention: %w", err))
		} else {
			logCtx := j.logg.WithFields(ctx, map[string]any{
				"cutoff":         dlqCutoff,
				"retention_days": j.dlqRetention,
				"rows_deleted":   dlqDeleted,
			})
			j.logg.Info(logCtx, "dlq retention cleanup complete")
		}
	}

	return multierr.Combine(errs...)
}
