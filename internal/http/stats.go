package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/mylibrary/internal/gamification"
	"github.com/mrlokans/mylibrary/internal/library"
	"github.com/mrlokans/mylibrary/internal/stats"
)

// StatsController serves the reading statistics and the badge catalogue.
type StatsController struct {
	books     BookStore
	imageBase string
}

// NewStatsController creates a StatsController. imageBase prefixes badge
// image paths; leave it empty to return paths relative to the server.
func NewStatsController(books BookStore, imageBase string) *StatsController {
	return &StatsController{books: books, imageBase: imageBase}
}

func (sc *StatsController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/stats", sc.Stats)
	group.GET("/badges", sc.Badges)
}

// Stats handles GET /api/stats
func (sc *StatsController) Stats(c *gin.Context) {
	all, err := sc.books.ListForUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "stats")
		return
	}
	c.JSON(http.StatusOK, stats.Compute(all))
}

// Badges handles GET /api/badges
func (sc *StatsController) Badges(c *gin.Context) {
	all, err := sc.books.ListForUser(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "badges")
		return
	}
	c.JSON(http.StatusOK, gamification.Badges(len(library.ReadBooks(all)), sc.imageBase))
}
