package tasks

import (
	"context"
	"fmt"

	"github.com/mikestefanello/backlite"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/mylibrary/internal/catalog"
)

// BookEnricher fills missing catalog fields of one stored book.
type BookEnricher interface {
	EnrichBook(ctx context.Context, bookID int64) (*catalog.EnrichmentResult, error)
}

// EnrichmentAuditor records enrichment outcomes. Optional.
type EnrichmentAuditor interface {
	LogMetadataEnrich(userID uint, description string, bookID int64, fields []string, err error)
}

// EnrichBookTask enriches a single book's metadata from external sources.
// It is queued when a book is created without an ISBN or cover.
type EnrichBookTask struct {
	BookID int64 `json:"book_id"`
	UserID uint  `json:"user_id"`
}

// Config returns the queue configuration for book enrichment tasks.
func (t EnrichBookTask) Config() backlite.QueueConfig {
	return queueConfig(QueueEnrichBook)
}

// EnrichBookProcessor creates a processor function for EnrichBookTask.
func EnrichBookProcessor(enricher BookEnricher, auditor EnrichmentAuditor) backlite.QueueProcessor[EnrichBookTask] {
	return func(ctx context.Context, task EnrichBookTask) error {
		if enricher == nil {
			return fmt.Errorf("enricher not configured")
		}

		log := logrus.WithFields(logrus.Fields{"task": QueueEnrichBook, "book_id": task.BookID})

		result, err := enricher.EnrichBook(ctx, task.BookID)
		if err != nil {
			if auditor != nil {
				auditor.LogMetadataEnrich(task.UserID, "Enrichment failed", task.BookID, nil, err)
			}
			return fmt.Errorf("enrich book %d: %w", task.BookID, err)
		}

		if len(result.FieldsUpdated) > 0 {
			log.WithFields(logrus.Fields{
				"title":  result.Book.Title,
				"fields": result.FieldsUpdated,
				"method": result.SearchMethod,
			}).Info("book enriched")
		} else {
			log.WithField("title", result.Book.Title).Info("no metadata updates needed")
		}
		if auditor != nil {
			auditor.LogMetadataEnrich(task.UserID,
				fmt.Sprintf("Enriched %s from %s", result.Book.Title, result.Source),
				task.BookID, result.FieldsUpdated, nil)
		}

		return nil
	}
}

// NewEnrichBookQueue creates a backlite queue for book enrichment tasks.
func NewEnrichBookQueue(enricher BookEnricher, auditor EnrichmentAuditor) backlite.Queue {
	return backlite.NewQueue(EnrichBookProcessor(enricher, auditor))
}
