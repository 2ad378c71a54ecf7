package ai

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/mylibrary/internal/catalog"
	"github.com/mrlokans/mylibrary/internal/entities"
	"github.com/mrlokans/mylibrary/internal/logger"
)

const (
	EnrichBatchSize  = 2
	EnrichBatchDelay = 300 * time.Millisecond
)

// Searcher is the slice of a catalog provider enrichment needs.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]entities.SearchResult, error)
}

// BatchEnricher turns recommendations into displayable books. Items of a
// batch are looked up concurrently; batches are separated by Delay.
type BatchEnricher struct {
	Searcher  Searcher
	BatchSize int
	Delay     time.Duration
}

// EnrichRecommendations runs the default batching loop against searcher.
func EnrichRecommendations(ctx context.Context, searcher Searcher, recs []entities.BookRecommendation) []entities.Book {
	e := BatchEnricher{Searcher: searcher, BatchSize: EnrichBatchSize, Delay: EnrichBatchDelay}
	return e.Enrich(ctx, recs)
}

// Enrich returns one book per recommendation in input order. Recommendations
// aborted by ctx are dropped.
func (e BatchEnricher) Enrich(ctx context.Context, recs []entities.BookRecommendation) []entities.Book {
	size := e.BatchSize
	if size <= 0 {
		size = EnrichBatchSize
	}
	slots := make([]*entities.Book, len(recs))

	for start := 0; start < len(recs); start += size {
		end := min(start+size, len(recs))

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				slots[i] = e.enrichOne(gctx, i, recs[i])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			logger.For(ctx).WithError(err).Debug("recommendation batch interrupted")
		}

		if end < len(recs) && e.Delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(e.Delay):
			}
		}
	}

	books := make([]entities.Book, 0, len(recs))
	for _, b := range slots {
		if b != nil {
			books = append(books, *b)
		}
	}
	return books
}

func (e BatchEnricher) enrichOne(ctx context.Context, index int, rec entities.BookRecommendation) *entities.Book {
	book := RecommendationBook(index, rec)

	query := catalog.TitleQuery(rec.Title, rec.Author)
	if rec.ISBN != "" {
		query = catalog.ISBNQuery(rec.ISBN)
	}

	results, err := e.Searcher.Search(ctx, query, 1)
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		logger.For(ctx).WithError(err).WithField("title", rec.Title).Debug("recommendation lookup failed")
		return &book
	}
	if len(results) == 0 {
		return &book
	}

	hit := results[0]
	book.ImageURL = hit.ImageURL
	if hit.ISBN != "" {
		book.ISBN = hit.ISBN
	}
	book.Categories = hit.Categories
	book.Publisher = hit.Publisher
	book.PublishedDate = hit.PublishedDate
	book.PageCount = hit.PageCount
	book.Language = hit.Language
	book.AverageRatingGoogle = hit.AverageRating
	return &book
}

// RecommendationBook builds the unsaved book shown for recommendation index.
// Its id is negative so it cannot collide with stored books. The language is
// only known once a catalog hit supplies it.
func RecommendationBook(index int, rec entities.BookRecommendation) entities.Book {
	return entities.Book{
		ID:     -int64(index + 1),
		Title:  rec.Title,
		Author: rec.Author,
		ISBN:   rec.ISBN,
		Status: entities.StatusToRead,
		Memo:   rec.Reason,
	}
}
