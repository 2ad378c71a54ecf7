package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/sirupsen/logrus"
)

// DefaultSummaryMaxAgeDays bounds how long generated summaries are kept.
const DefaultSummaryMaxAgeDays = 90

// AICachePurger removes stale generated content.
type AICachePurger interface {
	PurgeExpired(now time.Time, summaryMaxAge time.Duration) (int64, error)
}

// PurgeAICacheTask drops expired recommendation lists and old summaries.
type PurgeAICacheTask struct {
	SummaryMaxAgeDays int `json:"summary_max_age_days,omitempty"`
}

func (t PurgeAICacheTask) Config() backlite.QueueConfig {
	return queueConfig(QueuePurgeAICache)
}

func PurgeAICacheProcessor(purger AICachePurger) backlite.QueueProcessor[PurgeAICacheTask] {
	return func(ctx context.Context, task PurgeAICacheTask) error {
		if purger == nil {
			return fmt.Errorf("ai cache not configured")
		}

		_, maxAge := daysOr(task.SummaryMaxAgeDays, DefaultSummaryMaxAgeDays)
		deleted, err := purger.PurgeExpired(time.Now(), maxAge)
		if err != nil {
			return fmt.Errorf("purge ai cache: %w", err)
		}

		logrus.WithFields(logrus.Fields{"task": QueuePurgeAICache, "deleted": deleted}).Info("ai cache purged")
		return nil
	}
}

func NewPurgeAICacheQueue(purger AICachePurger) backlite.Queue {
	return backlite.NewQueue(PurgeAICacheProcessor(purger))
}
