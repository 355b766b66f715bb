package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/openflix/catalog-admin/pkg/logger"
)

type fakeRetentionRepo struct {
	cutoff  time.Time
	deleted int64
	err     error
	calls   int
}

func (f *fakeRetentionRepo) DeletePublishedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.calls++
	f.cutoff = cutoff
	return f.deleted, f.err
}

type fakeDLQRetentionRepo struct {
	cutoff  time.Time
	deleted int64
	err     error
	calls   int
}

func (f *fakeDLQRetentionRepo) DeleteFailedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.calls++
	f.cutoff = cutoff
	return f.deleted, f.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestOutboxRetentionJobDeletesPastCutoff(t *testing.T) {
	repo := &fakeRetentionRepo{deleted: 12}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     testLogger(),
		Repository: repo,
		Retention:  7,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	frozen := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	job.(*outboxRetentionJob).now = func() time.Time { return frozen }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if repo.calls != 1 {
		t.Fatalf("expected one delete call, got %d", repo.calls)
	}
	want := frozen.Add(-7 * 24 * time.Hour)
	if !repo.cutoff.Equal(want) {
		t.Fatalf("cutoff = %s, want %s", repo.cutoff, want)
	}
}

func TestOutboxRetentionJobDefaultsRetention(t *testing.T) {
	repo := &fakeRetentionRepo{}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     testLogger(),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if got := job.(*outboxRetentionJob).retention; got != outboxRetentionDays {
		t.Fatalf("retention = %d, want %d", got, outboxRetentionDays)
	}
}

func TestOutboxRetentionJobPrunesDLQ(t *testing.T) {
	repo := &fakeRetentionRepo{}
	dlqRepo := &fakeDLQRetentionRepo{deleted: 3}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:        testLogger(),
		Repository:    repo,
		DLQRepository: dlqRepo,
		Retention:     7,
		DLQRetention:  30,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	frozen := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	job.(*outboxRetentionJob).now = func() time.Time { return frozen }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if dlqRepo.calls != 1 {
		t.Fatalf("expected one dlq delete call, got %d", dlqRepo.calls)
	}
	want := frozen.Add(-30 * 24 * time.Hour)
	if !dlqRepo.cutoff.Equal(want) {
		t.Fatalf("dlq cutoff = %s, want %s", dlqRepo.cutoff, want)
	}
}

func TestOutboxRetentionJobCollectsBothErrors(t *testing.T) {
	repo := &fakeRetentionRepo{err: errors.New("outbox delete failed")}
	dlqRepo := &fakeDLQRetentionRepo{err: errors.New("dlq delete failed")}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:        testLogger(),
		Repository:    repo,
		DLQRepository: dlqRepo,
		Retention:     7,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	runErr := job.Run(context.Background())
	if runErr == nil {
		t.Fatal("expected combined error")
	}
	if dlqRepo.calls != 1 {
		t.Fatal("outbox failure must not skip the dlq prune")
	}
}
