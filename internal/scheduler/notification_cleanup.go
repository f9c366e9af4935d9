package scheduler

import (
	"context"
	"time"

	"leadflow_backend/platform/logger"
)

const (
	defaultNotificationCleanupInterval = time.Hour
	defaultReadNotificationRetention   = 30 * 24 * time.Hour
)

// NotificationPruner deletes read notifications older than the retention.
type NotificationPruner interface {
	PruneRead(ctx context.Context, retention time.Duration) (int64, error)
}

// NotificationCleanup periodically removes old read notifications.
type NotificationCleanup struct {
	pruner    NotificationPruner
	log       *logger.Logger
	interval  time.Duration
	retention time.Duration
}

func NewNotificationCleanup(pruner NotificationPruner, log *logger.Logger, interval, retention time.Duration) *NotificationCleanup {
	if interval <= 0 {
		interval = defaultNotificationCleanupInterval
	}
	if retention <= 0 {
		retention = defaultReadNotificationRetention
	}

	return &NotificationCleanup{
		pruner:    pruner,
		log:       log,
		interval:  interval,
		retention: retention,
	}
}

func (c *NotificationCleanup) Run(ctx context.Context) error {
	if c == nil || c.pruner == nil {
		return nil
	}

	c.cleanup(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *NotificationCleanup) cleanup(ctx context.Context) {
	deleted, err := c.pruner.PruneRead(ctx, c.retention)
	if err != nil {
		c.log.Warn("notification cleanup failed", "error", err)
		return
	}

	if deleted > 0 {
		c.log.Info("notification cleanup deleted read notifications", "deleted", deleted)
	}
}
