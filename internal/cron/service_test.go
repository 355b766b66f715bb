package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeLock struct {
	acquired bool
	err      error
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	return f.acquired, f.err
}

func (f *fakeLock) Release(context.Context) error {
	f.releases++
	return nil
}

type countingJob struct {
	name string
	runs int
	err  error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func TestRunCycleRunsAllJobsWhenLockAcquired(t *testing.T) {
	lock := &fakeLock{acquired: true}
	first := &countingJob{name: "first"}
	second := &countingJob{name: "second", err: errors.New("boom")}
	third := &countingJob{name: "third"}

	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(first, second, third),
		Lock:     lock,
		Interval: time.Hour,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if first.runs != 1 || third.runs != 1 {
		t.Fatalf("all jobs must run, got %d/%d", first.runs, third.runs)
	}
	if second.runs != 1 {
		t.Fatal("failing job must still have run")
	}
	if lock.releases != 1 {
		t.Fatalf("lock must be released once, got %d", lock.releases)
	}
}

func TestRunCycleSkipsWhenLockHeldElsewhere(t *testing.T) {
	lock := &fakeLock{acquired: false}
	job := &countingJob{name: "only"}

	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     lock,
		Interval: time.Hour,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatal("jobs must not run without the lock")
	}
	if lock.releases != 0 {
		t.Fatal("a lock we never held must not be released")
	}
}

func TestRunCycleReturnsLockError(t *testing.T) {
	lock := &fakeLock{err: errors.New("redis down")}
	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(),
		Lock:     lock,
		Interval: time.Hour,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.runCycle(context.Background()); err == nil {
		t.Fatal("expected lock error to propagate")
	}
}
