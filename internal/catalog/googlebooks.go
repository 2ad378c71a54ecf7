package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mrlokans/mylibrary/internal/entities"
	"github.com/mrlokans/mylibrary/internal/logger"
	"github.com/mrlokans/mylibrary/internal/metrics"
)

const (
	GoogleBooksName       = "google_books"
	DefaultMaxResults     = 20
	DefaultCatalogTimeout = 15 * time.Second

	unknownTitle  = "Titre inconnu"
	unknownAuthor = "Auteur inconnu"
)

type GoogleBooksConfig struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	MaxResults        int
	RequestsPerSecond float64 // <= 0 disables pacing
}

// GoogleBooksClient queries the public Google Books volumes API.
type GoogleBooksClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	maxResults int
	limiter    *rate.Limiter
}

func NewGoogleBooksClient(cfg GoogleBooksConfig) *GoogleBooksClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.googleapis.com/books/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCatalogTimeout
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &GoogleBooksClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		maxResults: cfg.MaxResults,
		limiter:    rate.NewLimiter(limit, 2),
	}
}

func (c *GoogleBooksClient) Name() string { return GoogleBooksName }

// Search runs a free-text volumes query. maxResults <= 0 uses the configured default.
func (c *GoogleBooksClient) Search(ctx context.Context, query string, maxResults int) ([]entities.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if maxResults <= 0 {
		maxResults = c.maxResults
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	body, err := c.get(ctx, "/volumes?"+params.Encode())
	if err != nil {
		return nil, err
	}
	defer body.Close()

	results := ParseVolumes(body)
	logger.For(ctx).WithField("query", query).WithField("results", len(results)).Debug("google books search")
	return results, nil
}

// SearchByISBN returns the first volume matching isbn.
func (c *GoogleBooksClient) SearchByISBN(ctx context.Context, isbn string) (*entities.SearchResult, error) {
	normalized := NormalizeISBN(isbn)
	if normalized == "" {
		return nil, fmt.Errorf("invalid ISBN: %q", isbn)
	}
	return c.first(ctx, ISBNQuery(normalized))
}

// SearchByTitle returns the first volume matching "title author".
func (c *GoogleBooksClient) SearchByTitle(ctx context.Context, title, author string) (*entities.SearchResult, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("title is required")
	}
	return c.first(ctx, TitleQuery(title, author))
}

func (c *GoogleBooksClient) first(ctx context.Context, query string) (*entities.SearchResult, error) {
	results, err := c.Search(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, query)
	}
	return &results[0], nil
}

func (c *GoogleBooksClient) get(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.CatalogRequestsTotal.WithLabelValues(GoogleBooksName, "error").Inc()
		return nil, classifyTransportError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		metrics.CatalogRequestsTotal.WithLabelValues(GoogleBooksName, "status_"+strconv.Itoa(resp.StatusCode)).Inc()
		return nil, &StatusError{Provider: GoogleBooksName, StatusCode: resp.StatusCode}
	}

	metrics.CatalogRequestsTotal.WithLabelValues(GoogleBooksName, "ok").Inc()
	return resp.Body, nil
}

// ParseVolumes converts a volumes response into search results. A body that
// cannot be decoded yields no results rather than an error.
func ParseVolumes(r io.Reader) []entities.SearchResult {
	var resp volumesResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return []entities.SearchResult{}
	}

	results := make([]entities.SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.VolumeInfo == nil {
			continue
		}
		results = append(results, item.VolumeInfo.toSearchResult())
	}
	return results
}

// NormalizeCategories keeps the top level of each "A / B / C" category,
// trimmed, without blanks or duplicates. No usable category yields nil.
func NormalizeCategories(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(raw))
	var out []string
	for _, category := range raw {
		top := strings.TrimSpace(strings.SplitN(category, "/", 2)[0])
		if top == "" || seen[top] {
			continue
		}
		seen[top] = true
		out = append(out, top)
	}
	return out
}

func (v *volumeInfo) toSearchResult() entities.SearchResult {
	title := unknownTitle
	if v.Title != nil {
		title = *v.Title
	}
	authors := unknownAuthor
	if len(v.Authors) > 0 {
		authors = strings.Join(v.Authors, ", ")
	}

	result := entities.SearchResult{
		Title:         title,
		Authors:       authors,
		Description:   v.Description,
		Categories:    NormalizeCategories(v.Categories),
		Publisher:     v.Publisher,
		PublishedDate: v.PublishedDate,
		PageCount:     v.PageCount,
		Language:      v.Language,
		AverageRating: v.AverageRating,
	}
	for _, id := range v.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			result.ISBN = id.Identifier
			break
		}
	}
	if v.ImageLinks != nil {
		result.ImageURL = v.ImageLinks.Thumbnail
	}
	return result
}

// Google Books API response types (internal)

type volumesResponse struct {
	Items []volumeItem `json:"items"`
}

type volumeItem struct {
	VolumeInfo *volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title               *string              `json:"title"`
	Authors             []string             `json:"authors"`
	Description         string               `json:"description"`
	Publisher           string               `json:"publisher"`
	PublishedDate       string               `json:"publishedDate"`
	PageCount           *int                 `json:"pageCount"`
	Language            string               `json:"language"`
	AverageRating       *float64             `json:"averageRating"`
	Categories          []string             `json:"categories"`
	ImageLinks          *imageLinks          `json:"imageLinks"`
	IndustryIdentifiers []industryIdentifier `json:"industryIdentifiers"`
}

type imageLinks struct {
	Thumbnail      string `json:"thumbnail"`
	SmallThumbnail string `json:"smallThumbnail"`
}

type industryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}
