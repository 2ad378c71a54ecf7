package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/mylibrary/internal/logger"
)

// CoversController handles book cover requests.
type CoversController struct {
	cache CoverSource
	books BookStore
}

func NewCoversController(cache CoverSource, books BookStore) *CoversController {
	return &CoversController{cache: cache, books: books}
}

// GetCover serves a cached book cover image.
// GET /api/livres/:id/cover
func (cc *CoversController) GetCover(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := cc.books.GetForUser(GetUserID(c), id)
	if err != nil {
		respondBookError(c, err, "get cover")
		return
	}
	if book.ImageURL == "" {
		respondNotFound(c, "cover")
		return
	}

	cachePath, err := cc.cache.GetCover(c.Request.Context(), id, book.ImageURL)
	if err != nil || cachePath == "" {
		// Fallback: let the client fetch the original
		logger.For(c.Request.Context()).WithError(err).WithField("book_id", id).Debug("cover cache miss")
		c.Redirect(http.StatusTemporaryRedirect, book.ImageURL)
		return
	}

	c.Header("Cache-Control", "private, max-age=86400")
	c.File(cachePath)
}
