package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mrlokans/mylibrary/internal/entities"
	"github.com/mrlokans/mylibrary/internal/metrics"
)

const (
	OpenLibraryName      = "openlibrary"
	openLibraryUserAgent = "MyLibrary/1.0 (https://github.com/mrlokans/mylibrary)"
	maxSubjects          = 5
)

// OpenLibraryClient fetches book metadata from the OpenLibrary API. It is the
// fallback provider of the enricher when Google Books has nothing.
type OpenLibraryClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// NewOpenLibraryClient creates a client limited to one request per second.
func NewOpenLibraryClient(baseURL string, timeout time.Duration) *OpenLibraryClient {
	if baseURL == "" {
		baseURL = "https://openlibrary.org"
	}
	if timeout <= 0 {
		timeout = DefaultCatalogTimeout
	}
	return &OpenLibraryClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

func (c *OpenLibraryClient) Name() string { return OpenLibraryName }

// SearchByISBN looks up an edition by ISBN.
func (c *OpenLibraryClient) SearchByISBN(ctx context.Context, isbn string) (*entities.SearchResult, error) {
	isbn = NormalizeISBN(isbn)
	if isbn == "" {
		return nil, fmt.Errorf("invalid ISBN")
	}

	var edition openLibraryEdition
	if err := c.getJSON(ctx, fmt.Sprintf("/isbn/%s.json", isbn), &edition); err != nil {
		return nil, err
	}

	result := edition.toSearchResult(isbn)
	if len(edition.Authors) > 0 {
		if name, err := c.fetchAuthorName(ctx, edition.Authors[0].Key); err == nil && name != "" {
			result.Authors = name
		}
	}
	return result, nil
}

// SearchByTitle returns the best scoring document for title and author.
func (c *OpenLibraryClient) SearchByTitle(ctx context.Context, title, author string) (*entities.SearchResult, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	docs, err := c.searchDocs(ctx, TitleQuery(title, author), 5)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, title)
	}

	best := findBestMatch(docs, title, author)
	result := best.toSearchResult()

	if result.ISBN == "" && best.CoverEditionKey != "" {
		var edition openLibraryEdition
		if err := c.getJSON(ctx, fmt.Sprintf("/books/%s.json", best.CoverEditionKey), &edition); err == nil {
			fillFromEdition(result, &edition)
		}
	}
	return result, nil
}

// Search runs a free-text query and converts every document.
func (c *OpenLibraryClient) Search(ctx context.Context, query string, maxResults int) ([]entities.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	docs, err := c.searchDocs(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	results := make([]entities.SearchResult, 0, len(docs))
	for i := range docs {
		results = append(results, *docs[i].toSearchResult())
	}
	return results, nil
}

func (c *OpenLibraryClient) searchDocs(ctx context.Context, query string, limit int) ([]openLibrarySearchDoc, error) {
	path := fmt.Sprintf("/search.json?q=%s&limit=%d", url.QueryEscape(query), limit)
	var resp openLibrarySearchResult
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Docs, nil
}

func (c *OpenLibraryClient) fetchAuthorName(ctx context.Context, authorKey string) (string, error) {
	if authorKey == "" {
		return "", fmt.Errorf("empty author key")
	}
	var author struct {
		Name string `json:"name"`
	}
	if err := c.getJSON(ctx, authorKey+".json", &author); err != nil {
		return "", err
	}
	return author.Name, nil
}

func (c *OpenLibraryClient) getJSON(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", openLibraryUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.CatalogRequestsTotal.WithLabelValues(OpenLibraryName, "error").Inc()
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		metrics.CatalogRequestsTotal.WithLabelValues(OpenLibraryName, "not_found").Inc()
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.CatalogRequestsTotal.WithLabelValues(OpenLibraryName, "status_"+strconv.Itoa(resp.StatusCode)).Inc()
		return &StatusError{Provider: OpenLibraryName, StatusCode: resp.StatusCode}
	}
	metrics.CatalogRequestsTotal.WithLabelValues(OpenLibraryName, "ok").Inc()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func findBestMatch(docs []openLibrarySearchDoc, title, author string) *openLibrarySearchDoc {
	titleLower := strings.ToLower(title)
	authorLower := strings.ToLower(author)

	best := &docs[0]
	bestScore := -1

	for i := range docs {
		doc := &docs[i]
		score := 0

		docTitle := strings.ToLower(doc.Title)
		if docTitle == titleLower {
			score += 10
		} else if strings.Contains(docTitle, titleLower) {
			score += 5
		}

		if author != "" {
			for _, name := range doc.AuthorName {
				name = strings.ToLower(name)
				if name == authorLower {
					score += 10
					break
				}
				if strings.Contains(name, authorLower) {
					score += 5
					break
				}
			}
		}

		if len(doc.ISBN) > 0 {
			score += 2
		}
		if doc.CoverI != 0 {
			score++
		}

		if score > bestScore {
			bestScore = score
			best = doc
		}
	}
	return best
}

func coverURLForISBN(isbn string) string {
	return fmt.Sprintf("https://covers.openlibrary.org/b/isbn/%s-L.jpg", isbn)
}

// pickISBN13 prefers a 13 digit identifier.
func pickISBN13(isbns []string) string {
	for _, isbn := range isbns {
		if n := NormalizeISBN(isbn); len(n) == 13 {
			return n
		}
	}
	return ""
}

func (e *openLibraryEdition) toSearchResult(isbn string) *entities.SearchResult {
	result := &entities.SearchResult{
		Title:         e.Title,
		Authors:       unknownAuthor,
		ISBN:          isbn,
		ImageURL:      coverURLForISBN(isbn),
		PublishedDate: e.PublishDate,
		Categories:    NormalizeCategories(limit(e.Subjects, maxSubjects)),
	}
	if result.Title == "" {
		result.Title = unknownTitle
	}
	if len(e.Publishers) > 0 {
		result.Publisher = e.Publishers[0]
	}
	if e.NumberOfPages > 0 {
		pages := e.NumberOfPages
		result.PageCount = &pages
	}
	switch v := e.Description.(type) {
	case string:
		result.Description = v
	case map[string]any:
		if val, ok := v["value"].(string); ok {
			result.Description = val
		}
	}
	return result
}

func (d *openLibrarySearchDoc) toSearchResult() *entities.SearchResult {
	result := &entities.SearchResult{
		Title:      d.Title,
		Authors:    unknownAuthor,
		ISBN:       pickISBN13(d.ISBN),
		Categories: NormalizeCategories(limit(d.Subject, maxSubjects)),
	}
	if len(d.AuthorName) > 0 {
		result.Authors = strings.Join(d.AuthorName, ", ")
	}
	if len(d.Publisher) > 0 {
		result.Publisher = d.Publisher[0]
	}
	if d.FirstPublishYear > 0 {
		result.PublishedDate = strconv.Itoa(d.FirstPublishYear)
	}
	if d.NumberOfPagesMedian > 0 {
		pages := d.NumberOfPagesMedian
		result.PageCount = &pages
	}
	if len(d.Language) > 0 {
		result.Language = languageCode(d.Language[0])
	}
	switch {
	case result.ISBN != "":
		result.ImageURL = coverURLForISBN(result.ISBN)
	case d.CoverI != 0:
		result.ImageURL = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", d.CoverI)
	}
	return result
}

func fillFromEdition(result *entities.SearchResult, edition *openLibraryEdition) {
	if result.ISBN == "" {
		result.ISBN = pickISBN13(edition.ISBN13)
	}
	if result.ISBN != "" && result.ImageURL == "" {
		result.ImageURL = coverURLForISBN(result.ISBN)
	}
	if result.Publisher == "" && len(edition.Publishers) > 0 {
		result.Publisher = edition.Publishers[0]
	}
	if result.PageCount == nil && edition.NumberOfPages > 0 {
		pages := edition.NumberOfPages
		result.PageCount = &pages
	}
	if result.PublishedDate == "" {
		result.PublishedDate = edition.PublishDate
	}
}

// languageCode maps OpenLibrary's MARC codes to the two-letter codes Google
// Books uses. Unknown codes are returned unchanged.
func languageCode(marc string) string {
	switch marc {
	case "fre":
		return "fr"
	case "eng":
		return "en"
	case "spa":
		return "es"
	case "ger":
		return "de"
	case "ita":
		return "it"
	}
	return marc
}

func limit(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}

// OpenLibrary API response types (internal)

type authorRef struct {
	Key string `json:"key"`
}

type openLibrarySearchResult struct {
	NumFound int                    `json:"numFound"`
	Docs     []openLibrarySearchDoc `json:"docs"`
}

type openLibrarySearchDoc struct {
	Key                 string   `json:"key"`
	Title               string   `json:"title"`
	AuthorName          []string `json:"author_name"`
	FirstPublishYear    int      `json:"first_publish_year"`
	Publisher           []string `json:"publisher"`
	ISBN                []string `json:"isbn"`
	CoverI              int      `json:"cover_i"`
	CoverEditionKey     string   `json:"cover_edition_key"`
	Subject             []string `json:"subject"`
	Language            []string `json:"language"`
	NumberOfPagesMedian int      `json:"number_of_pages_median"`
}

type openLibraryEdition struct {
	Key           string      `json:"key"`
	Title         string      `json:"title"`
	Authors       []authorRef `json:"authors"`
	Publishers    []string    `json:"publishers"`
	PublishDate   string      `json:"publish_date"`
	ISBN10        []string    `json:"isbn_10"`
	ISBN13        []string    `json:"isbn_13"`
	NumberOfPages int         `json:"number_of_pages"`
	Description   any         `json:"description"` // Can be string or {type, value}
	Subjects      []string    `json:"subjects"`
}
