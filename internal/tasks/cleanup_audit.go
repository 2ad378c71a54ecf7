package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/sirupsen/logrus"
)

// DefaultAuditRetentionDays applies when a task carries no retention.
const DefaultAuditRetentionDays = 30

type AuditEventCleaner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
}

// CleanupAuditEventsTask deletes the audit log older than RetentionDays.
type CleanupAuditEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

func (CleanupAuditEventsTask) Config() backlite.QueueConfig {
	return queueConfig(QueueCleanupAuditEvents)
}

func CleanupAuditEventsProcessor(cleaner AuditEventCleaner) backlite.QueueProcessor[CleanupAuditEventsTask] {
	return func(_ context.Context, task CleanupAuditEventsTask) error {
		if cleaner == nil {
			return errors.New("audit log not configured")
		}

		days, retention := daysOr(task.RetentionDays, DefaultAuditRetentionDays)
		deleted, err := cleaner.DeleteOldEvents(retention)
		if err != nil {
			return fmt.Errorf("delete audit events older than %d days: %w", days, err)
		}

		if deleted > 0 {
			logrus.WithFields(logrus.Fields{
				"task":           QueueCleanupAuditEvents,
				"deleted":        deleted,
				"retention_days": days,
			}).Info("old audit events removed")
		}
		return nil
	}
}

func NewCleanupAuditEventsQueue(cleaner AuditEventCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupAuditEventsProcessor(cleaner))
}
