package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ecosort/ecosort-backend/pkg/logger"
)

type fakeRetentionService struct {
	gotWindow time.Duration
	deleted   int64
	err       error
}

func (f *fakeRetentionService) DeleteReadOlderThan(_ context.Context, retention time.Duration) (int64, error) {
	f.gotWindow = retention
	return f.deleted, f.err
}

func TestNotificationRetentionJob(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	svc := &fakeRetentionService{deleted: 7}
	job, err := NewNotificationRetentionJob(NotificationRetentionJobParams{
		Logger:        logg,
		Notifications: svc,
		RetentionDays: 14,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "notification-retention" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if svc.gotWindow != 14*24*time.Hour {
		t.Fatalf("expected 14 day window, got %s", svc.gotWindow)
	}

	svc.err = errors.New("db down")
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected failure to propagate")
	}
}

func TestNotificationRetentionJobDefaultsWindow(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	svc := &fakeRetentionService{}
	job, err := NewNotificationRetentionJob(NotificationRetentionJobParams{
		Logger:        logg,
		Notifications: svc,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if svc.gotWindow != notificationRetentionDays*24*time.Hour {
		t.Fatalf("expected default window, got %s", svc.gotWindow)
	}
}

type fakeOutboxRepo struct {
	gotCutoff time.Time
	deleted   int64
	err       error
}

func (f *fakeOutboxRepo) DeletePublishedBefore(cutoff time.Time) (int64, error) {
	f.gotCutoff = cutoff
	return f.deleted, f.err
}

func TestOutboxRetentionJob(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	repo := &fakeOutboxRepo{deleted: 3}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:        logg,
		Repository:    repo,
		RetentionDays: 10,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "outbox-retention" {
		t.Fatalf("unexpected job name %q", job.Name())
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job.(*outboxRetentionJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	want := now.Add(-10 * 24 * time.Hour)
	if !repo.gotCutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, repo.gotCutoff)
	}

	repo.err = errors.New("db down")
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected failure to propagate")
	}
}
