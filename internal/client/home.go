package client

import (
	"context"
	"sync"

	"github.com/mrlokans/mylibrary/internal/ai"
	"github.com/mrlokans/mylibrary/internal/entities"
	"github.com/mrlokans/mylibrary/internal/library"
	"github.com/mrlokans/mylibrary/internal/logger"
)

// Home is the content of the home screen.
type Home struct {
	Reading         []entities.Book
	ToRead          []entities.Book
	ReadCount       int
	Recommendations []entities.Book
	// RecommendationsErr is set when the list could not be produced; the
	// library sections are still filled.
	RecommendationsErr error
}

// HomeFeed builds the home screen. Recommendations are enriched directly
// against the catalog and kept for the lifetime of the feed.
type HomeFeed struct {
	client   *Client
	searcher ai.Searcher

	mu     sync.Mutex
	cached []entities.Book
}

func NewHomeFeed(client *Client, searcher ai.Searcher) *HomeFeed {
	return &HomeFeed{client: client, searcher: searcher}
}

// Load fetches the library and, when it has read books, the enriched
// recommendations. refresh asks the server for a new list.
func (h *HomeFeed) Load(ctx context.Context, refresh bool) (*Home, error) {
	books, err := h.client.Books(ctx, BookFilter{})
	if err != nil {
		return nil, err
	}

	sections := library.Home(books)
	home := &Home{
		Reading:   sections.Reading,
		ToRead:    sections.ToRead,
		ReadCount: len(library.ReadBooks(books)),
	}

	if home.ReadCount == 0 {
		h.Invalidate()
		return home, nil
	}

	if cached := h.cachedBooks(); cached != nil && !refresh {
		home.Recommendations = cached
		return home, nil
	}

	recs, err := h.client.Recommendations(ctx, refresh)
	if err != nil {
		logger.For(ctx).WithError(err).Warn("recommendations unavailable")
		home.RecommendationsErr = err
		return home, nil
	}

	enriched := ai.EnrichRecommendations(ctx, h.searcher, recs.Recommendations)
	h.mu.Lock()
	h.cached = enriched
	h.mu.Unlock()

	home.Recommendations = enriched
	return home, nil
}

// Recommendation returns the cached recommendation with the given negative id.
func (h *HomeFeed) Recommendation(id int64) (entities.Book, bool) {
	for _, b := range h.cachedBooks() {
		if b.ID == id {
			return b, true
		}
	}
	return entities.Book{}, false
}

// Invalidate drops the cached recommendations.
func (h *HomeFeed) Invalidate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cached = nil
}

func (h *HomeFeed) cachedBooks() []entities.Book {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cached
}
