package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/mikestefanello/backlite"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/mylibrary/internal/catalog"
)

// BulkEnricher enriches the stored books of one user scope missing catalog
// metadata.
type BulkEnricher interface {
	EnrichAllMissing(ctx context.Context, userID uint) (*catalog.BulkEnrichmentResult, error)
}

// EnrichAllBooksTask triggers enrichment for the books missing metadata of
// UserID, or of every account when UserID is entities.AllUsers.
// Runs enrichment sequentially to provide progress updates.
type EnrichAllBooksTask struct {
	UserID uint `json:"user_id,omitempty"`
	// TriggeredBy is "scheduler", "api" or "cli"
	TriggeredBy string `json:"triggered_by,omitempty"`
}

// Config returns the queue configuration for bulk enrichment tasks.
func (t EnrichAllBooksTask) Config() backlite.QueueConfig {
	return queueConfig(QueueEnrichAllBooks)
}

// EnrichAllBooksProcessor creates a processor function for EnrichAllBooksTask.
// A run that finds another one in progress is not an error.
func EnrichAllBooksProcessor(enricher BulkEnricher) backlite.QueueProcessor[EnrichAllBooksTask] {
	return func(ctx context.Context, task EnrichAllBooksTask) error {
		if enricher == nil {
			return fmt.Errorf("enricher not configured")
		}

		log := logrus.WithFields(logrus.Fields{
			"task":         QueueEnrichAllBooks,
			"user_id":      task.UserID,
			"triggered_by": task.TriggeredBy,
		})

		result, err := enricher.EnrichAllMissing(ctx, task.UserID)
		if errors.Is(err, catalog.ErrSyncInProgress) {
			log.Info("enrichment already running, skipping")
			return nil
		}
		if err != nil {
			return fmt.Errorf("enrich all books: %w", err)
		}

		log.WithFields(logrus.Fields{
			"total":    result.TotalBooks,
			"enriched": result.Enriched,
			"skipped":  result.Skipped,
			"failed":   result.Failed,
		}).Info("enrichment complete")

		return nil
	}
}

// NewEnrichAllBooksQueue creates a backlite queue for bulk enrichment tasks.
func NewEnrichAllBooksQueue(enricher BulkEnricher) backlite.Queue {
	return backlite.NewQueue(EnrichAllBooksProcessor(enricher))
}
