// Package catalog talks to external book catalogs (Google Books, OpenLibrary)
// and fills missing metadata of stored books.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/mrlokans/mylibrary/internal/entities"
)

var (
	ErrNotFound     = errors.New("no catalog match")
	ErrNoConnection = errors.New("no connection")
	ErrTimeout      = errors.New("timeout")
	ErrEmptyQuery   = errors.New("query is required")
)

// StatusError is returned when a catalog answers with a non-2xx status.
type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.StatusCode)
}

// Provider is an external catalog able to resolve books.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]entities.SearchResult, error)
	SearchByISBN(ctx context.Context, isbn string) (*entities.SearchResult, error)
	SearchByTitle(ctx context.Context, title, author string) (*entities.SearchResult, error)
}

// classifyTransportError maps http.Client failures onto ErrTimeout and
// ErrNoConnection while keeping the original error in the chain.
func classifyTransportError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNoConnection, err)
}

// NormalizeISBN removes hyphens and spaces and rejects anything that is not
// 10 or 13 characters long.
func NormalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	isbn = strings.TrimSpace(isbn)

	if len(isbn) != 10 && len(isbn) != 13 {
		return ""
	}
	return isbn
}

// TitleQuery is the free-text query used when no ISBN is known.
func TitleQuery(title, author string) string {
	return strings.TrimSpace(strings.TrimSpace(title) + " " + strings.TrimSpace(author))
}

// ISBNQuery is the Google Books query restricting matches to an ISBN.
func ISBNQuery(isbn string) string {
	return "isbn:" + isbn
}
