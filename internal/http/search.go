package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/mylibrary/internal/catalog"
	"github.com/mrlokans/mylibrary/internal/entities"
)

const (
	minQueryLength   = 2
	maxSearchResults = 40
	searchTimeout    = 20 * time.Second
)

// SearchController proxies the external catalog so clients share the cache
// and the request pacing of the server.
type SearchController struct {
	provider   catalog.Provider
	maxResults int
}

func NewSearchController(provider catalog.Provider, maxResults int) *SearchController {
	if maxResults <= 0 {
		maxResults = catalog.DefaultMaxResults
	}
	return &SearchController{provider: provider, maxResults: maxResults}
}

func (sc *SearchController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/search", sc.Search)
	group.GET("/search/isbn/:isbn", sc.SearchISBN)
}

// Search handles GET /api/search?q=...&maxResults=
func (sc *SearchController) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if len([]rune(query)) < minQueryLength {
		respondBadRequest(c, "query must be at least 2 characters")
		return
	}
	maxResults := parseQueryInt(c, "maxResults", sc.maxResults, 1, maxSearchResults)

	ctx, cancel := context.WithTimeout(c.Request.Context(), searchTimeout)
	defer cancel()

	results, err := sc.provider.Search(ctx, query, maxResults)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	if results == nil {
		results = []entities.SearchResult{}
	}
	c.JSON(http.StatusOK, results)
}

// SearchISBN handles GET /api/search/isbn/:isbn
func (sc *SearchController) SearchISBN(c *gin.Context) {
	isbn := catalog.NormalizeISBN(c.Param("isbn"))
	if isbn == "" {
		respondBadRequest(c, "invalid isbn")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), searchTimeout)
	defer cancel()

	result, err := sc.provider.SearchByISBN(ctx, isbn)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func respondCatalogError(c *gin.Context, err error) {
	var statusErr *catalog.StatusError
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		respondNotFound(c, "book")
	case errors.Is(err, catalog.ErrTimeout):
		respondError(c, http.StatusGatewayTimeout, "timeout")
	case errors.Is(err, catalog.ErrNoConnection):
		respondError(c, http.StatusBadGateway, "no connection")
	case errors.As(err, &statusErr):
		respondError(c, http.StatusBadGateway, statusErr.Error())
	default:
		respondInternalError(c, err, "catalog search")
	}
}
