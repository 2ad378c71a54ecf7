package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrlokans/mylibrary/internal/entities"
	"github.com/mrlokans/mylibrary/internal/logger"
	"github.com/mrlokans/mylibrary/internal/metrics"
)

var ErrSyncInProgress = errors.New("enrichment is already in progress")

// BookUpdater defines the interface for updating books in the database.
type BookUpdater interface {
	GetBookByID(id int64) (*entities.Book, error)
	UpdateBookMetadata(id int64, fields BookUpdateFields) error
	GetBooksMissingMetadata(userID uint) ([]entities.Book, error)
}

// CoverInvalidator defines the interface for invalidating cached covers.
type CoverInvalidator interface {
	InvalidateCover(bookID int64) error
}

// ProgressReporter reports bulk enrichment progress, one run per user scope.
type ProgressReporter interface {
	StartSync(userID uint, totalItems int) error
	UpdateProgress(userID uint, processed, succeeded, failed, skipped int, currentItem string) error
	CompleteSync(userID uint, succeeded bool, errorMsg string) error
	IsSyncRunning(userID uint) (bool, error)
}

// BookUpdateFields contains the catalog fields enrichment may set. Nil or
// empty fields are left untouched.
type BookUpdateFields struct {
	ISBN          *string
	ImageURL      *string
	Publisher     *string
	PublishedDate *string
	PageCount     *int
	Language      *string
	AverageRating *float64
	Categories    []string
}

// EnrichmentResult contains the result of an enrichment operation.
type EnrichmentResult struct {
	Book          *entities.Book `json:"book"`
	FieldsUpdated []string       `json:"fields_updated"`
	Source        string         `json:"source"`
	SearchMethod  string         `json:"search_method"` // "isbn" or "title"
}

// BulkEnrichmentResult contains the summary of a bulk enrichment operation.
type BulkEnrichmentResult struct {
	TotalBooks int      `json:"total_books"`
	Enriched   int      `json:"enriched"`
	Failed     int      `json:"failed"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors,omitempty"`
}

// Enricher fills missing catalog fields of stored books. Providers are tried
// in order; the first one with a match wins.
type Enricher struct {
	providers        []Provider
	db               BookUpdater
	coverInvalidator CoverInvalidator
	progressReporter ProgressReporter
}

func NewEnricher(db BookUpdater, providers ...Provider) *Enricher {
	return &Enricher{providers: providers, db: db}
}

// SetCoverInvalidator sets the cover cache invalidator (optional).
func (e *Enricher) SetCoverInvalidator(invalidator CoverInvalidator) {
	e.coverInvalidator = invalidator
}

// SetProgressReporter sets the progress reporter for bulk operations (optional).
func (e *Enricher) SetProgressReporter(reporter ProgressReporter) {
	e.progressReporter = reporter
}

// EnrichBook looks the book up by ISBN first, then by title and author, and
// stores whatever catalog fields it was missing.
func (e *Enricher) EnrichBook(ctx context.Context, bookID int64) (*EnrichmentResult, error) {
	book, err := e.db.GetBookByID(bookID)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	match, source, method, err := e.lookup(ctx, book)
	if err != nil {
		metrics.EnrichmentsTotal.WithLabelValues("none", "failed").Inc()
		return nil, fmt.Errorf("metadata search failed: %w", err)
	}

	updates, fieldsUpdated := BuildUpdates(book, match)
	if len(fieldsUpdated) > 0 {
		if updates.ImageURL != nil && e.coverInvalidator != nil {
			_ = e.coverInvalidator.InvalidateCover(bookID)
		}

		if err := e.db.UpdateBookMetadata(bookID, updates); err != nil {
			return nil, fmt.Errorf("update book metadata: %w", err)
		}

		book, err = e.db.GetBookByID(bookID)
		if err != nil {
			return nil, fmt.Errorf("refresh book: %w", err)
		}
		metrics.EnrichmentsTotal.WithLabelValues(source, "updated").Inc()
	} else {
		metrics.EnrichmentsTotal.WithLabelValues(source, "unchanged").Inc()
	}

	logger.For(ctx).WithFields(map[string]any{
		"book_id": bookID,
		"source":  source,
		"method":  method,
		"fields":  fieldsUpdated,
	}).Info("book enriched")

	return &EnrichmentResult{
		Book:          book,
		FieldsUpdated: fieldsUpdated,
		Source:        source,
		SearchMethod:  method,
	}, nil
}

func (e *Enricher) lookup(ctx context.Context, book *entities.Book) (*entities.SearchResult, string, string, error) {
	if len(e.providers) == 0 {
		return nil, "", "", errors.New("no catalog provider configured")
	}

	var lastErr error
	if NormalizeISBN(book.ISBN) != "" {
		for _, p := range e.providers {
			match, err := p.SearchByISBN(ctx, book.ISBN)
			if err == nil {
				return match, p.Name(), "isbn", nil
			}
			if ctx.Err() != nil {
				return nil, "", "", ctx.Err()
			}
			lastErr = err
		}
	}

	for _, p := range e.providers {
		match, err := p.SearchByTitle(ctx, book.Title, book.Author)
		if err == nil {
			return match, p.Name(), "title", nil
		}
		if ctx.Err() != nil {
			return nil, "", "", ctx.Err()
		}
		lastErr = err
	}
	return nil, "", "", lastErr
}

// EnrichAllMissing enriches the books of userID missing catalog metadata.
// entities.AllUsers covers every account.
func (e *Enricher) EnrichAllMissing(ctx context.Context, userID uint) (*BulkEnrichmentResult, error) {
	if e.progressReporter != nil {
		running, err := e.progressReporter.IsSyncRunning(userID)
		if err != nil {
			return nil, fmt.Errorf("check sync status: %w", err)
		}
		if running {
			return nil, ErrSyncInProgress
		}
	}

	books, err := e.db.GetBooksMissingMetadata(userID)
	if err != nil {
		return nil, fmt.Errorf("get books missing metadata: %w", err)
	}

	result := &BulkEnrichmentResult{TotalBooks: len(books)}

	if e.progressReporter != nil {
		if err := e.progressReporter.StartSync(userID, len(books)); err != nil {
			return nil, fmt.Errorf("start sync progress: %w", err)
		}
	}

	for i, book := range books {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, "operation cancelled")
			if e.progressReporter != nil {
				_ = e.progressReporter.CompleteSync(userID, false, "operation cancelled")
			}
			return result, err
		}

		if e.progressReporter != nil {
			_ = e.progressReporter.UpdateProgress(userID, i, result.Enriched, result.Failed, result.Skipped, book.Title)
		}

		enrichResult, err := e.EnrichBook(ctx, book.ID)
		switch {
		case err != nil:
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", book.Title, err))
		case len(enrichResult.FieldsUpdated) > 0:
			result.Enriched++
		default:
			result.Skipped++
		}
	}

	if e.progressReporter != nil {
		_ = e.progressReporter.UpdateProgress(userID, len(books), result.Enriched, result.Failed, result.Skipped, "")
		errorMsg := ""
		if len(result.Errors) > 0 {
			errorMsg = fmt.Sprintf("%d errors occurred", len(result.Errors))
		}
		_ = e.progressReporter.CompleteSync(userID, result.Failed == 0, errorMsg)
	}

	return result, nil
}

// BuildUpdates returns the catalog fields of match that the book lacks.
// Personal fields (note, status, memo, dates) are never touched.
func BuildUpdates(book *entities.Book, match *entities.SearchResult) (BookUpdateFields, []string) {
	var updates BookUpdateFields
	var fieldsUpdated []string

	setString := func(current, candidate string, target **string, name string) {
		if current == "" && candidate != "" {
			value := candidate
			*target = &value
			fieldsUpdated = append(fieldsUpdated, name)
		}
	}

	setString(book.ISBN, match.ISBN, &updates.ISBN, "isbn")
	setString(book.ImageURL, match.ImageURL, &updates.ImageURL, "image_url")
	setString(book.Publisher, match.Publisher, &updates.Publisher, "publisher")
	setString(book.PublishedDate, match.PublishedDate, &updates.PublishedDate, "published_date")
	setString(book.Language, match.Language, &updates.Language, "language")

	if book.PageCount == nil && match.PageCount != nil {
		updates.PageCount = match.PageCount
		fieldsUpdated = append(fieldsUpdated, "page_count")
	}
	if book.AverageRatingGoogle == nil && match.AverageRating != nil {
		updates.AverageRating = match.AverageRating
		fieldsUpdated = append(fieldsUpdated, "average_rating_google")
	}
	if len(book.Categories) == 0 && len(match.Categories) > 0 {
		updates.Categories = match.Categories
		fieldsUpdated = append(fieldsUpdated, "categories")
	}

	return updates, fieldsUpdated
}
