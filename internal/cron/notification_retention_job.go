package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/ecosort/ecosort-backend/pkg/logger"
)

const notificationRetentionDays = 30

type notificationRetentionService interface {
	DeleteReadOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}

type NotificationRetentionJobParams struct {
	Logger        *logger.Logger
	Notifications notificationRetentionService
	RetentionDays int
}

func NewNotificationRetentionJob(params NotificationRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = notificationRetentionDays
	}
	return &notificationRetentionJob{
		logg:          params.Logger,
		notifications: params.Notifications,
		retention:     retention,
	}, nil
}

type notificationRetentionJob struct {
	logg          *logger.Logger
	notifications notificationRetentionService
	retention     int
}

func (j *notificationRetentionJob) Name() string { return "notification-retention" }

func (j *notificationRetentionJob) Run(ctx context.Context) error {
	window := time.Duration(j.retention) * 24 * time.Hour
	deleted, err := j.notifications.DeleteReadOlderThan(ctx, window)
	if err != nil {
		return fmt.Errorf("notification retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "notification retention complete")
	return nil
}
