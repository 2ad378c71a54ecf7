package tasks

import (
	"context"
	"fmt"

	"github.com/mikestefanello/backlite"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/mylibrary/internal/entities"
)

// ReaderLister lists users that have finished at least one book.
type ReaderLister interface {
	UserIDsWithReadBooks() ([]uint, error)
}

// RecommendationWarmer regenerates a user's list when the cached one expired.
type RecommendationWarmer interface {
	Recommendations(ctx context.Context, userID uint, refresh bool) (*entities.RecommendationsResponse, error)
}

// WarmRecommendationsTask fills the recommendation cache off-peak so the
// home screen does not wait for the model.
type WarmRecommendationsTask struct{}

func (t WarmRecommendationsTask) Config() backlite.QueueConfig {
	return queueConfig(QueueWarmRecommendations)
}

// WarmRecommendationsProcessor keeps going when one user fails; the task
// fails only when every user did.
func WarmRecommendationsProcessor(readers ReaderLister, warmer RecommendationWarmer) backlite.QueueProcessor[WarmRecommendationsTask] {
	return func(ctx context.Context, _ WarmRecommendationsTask) error {
		if readers == nil || warmer == nil {
			return fmt.Errorf("recommender not configured")
		}

		ids, err := readers.UserIDsWithReadBooks()
		if err != nil {
			return fmt.Errorf("list readers: %w", err)
		}

		var warmed, failed int
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := warmer.Recommendations(ctx, id, false); err != nil {
				failed++
				logrus.WithError(err).WithField("user_id", id).Warn("failed to warm recommendations")
				continue
			}
			warmed++
		}

		logrus.WithFields(logrus.Fields{
			"task":   QueueWarmRecommendations,
			"users":  len(ids),
			"warmed": warmed,
			"failed": failed,
		}).Info("recommendations warmed")

		if failed > 0 && warmed == 0 {
			return fmt.Errorf("warm recommendations: all %d users failed", failed)
		}
		return nil
	}
}

func NewWarmRecommendationsQueue(readers ReaderLister, warmer RecommendationWarmer) backlite.Queue {
	return backlite.NewQueue(WarmRecommendationsProcessor(readers, warmer))
}
