package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrlokans/mylibrary/internal/database/aicache"
	"github.com/mrlokans/mylibrary/internal/entities"
	"github.com/mrlokans/mylibrary/internal/logger"
	"github.com/mrlokans/mylibrary/internal/metrics"
)

// BookGetter returns one of the user's books. Missing or foreign books must
// produce an error the caller can map to 404.
type BookGetter interface {
	GetForUser(userID uint, id int64) (*entities.Book, error)
}

type SummaryStore interface {
	GetSummary(userID uint, bookID int64) (*entities.SummaryCache, error)
	SaveSummary(entry *entities.SummaryCache) error
}

type Summarizer struct {
	generator TextGenerator
	books     BookGetter
	cache     SummaryStore
}

func NewSummarizer(generator TextGenerator, books BookGetter, cache SummaryStore) *Summarizer {
	return &Summarizer{generator: generator, books: books, cache: cache}
}

// Summary returns the cached summary of the book or generates a new one.
func (s *Summarizer) Summary(ctx context.Context, userID uint, bookID int64) (*entities.BookSummary, error) {
	book, err := s.books.GetForUser(userID, bookID)
	if err != nil {
		return nil, err
	}

	cached, err := s.cache.GetSummary(userID, bookID)
	switch {
	case err == nil:
		return &entities.BookSummary{Summary: cached.Summary, ISBN: cached.ISBN, Cached: true}, nil
	case !errors.Is(err, aicache.ErrCacheMiss):
		logger.For(ctx).WithError(err).Warn("summary cache lookup failed")
	}

	defer logger.Track(ctx, "ai summary")()
	text, err := s.generator.GenerateText(ctx, summarySystemPrompt, summaryPrompt(book))
	if err != nil {
		metrics.AIGenerationsTotal.WithLabelValues("summary", "error").Inc()
		return nil, fmt.Errorf("generate summary: %w", err)
	}
	summary := Sanitize(text)
	if summary == "" {
		metrics.AIGenerationsTotal.WithLabelValues("summary", "invalid").Inc()
		return nil, ErrInvalidResponse
	}
	metrics.AIGenerationsTotal.WithLabelValues("summary", "ok").Inc()

	entry := &entities.SummaryCache{BookID: book.ID, UserID: userID, Summary: summary, ISBN: book.ISBN}
	if err := s.cache.SaveSummary(entry); err != nil {
		logger.For(ctx).WithError(err).WithField("book_id", book.ID).Warn("failed to cache summary")
	}

	return &entities.BookSummary{Summary: summary, ISBN: book.ISBN, Cached: false}, nil
}
