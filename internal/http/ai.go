package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/mylibrary/internal/ai"
	"github.com/mrlokans/mylibrary/internal/database/books"
	"github.com/mrlokans/mylibrary/internal/entities"
)

// AIController serves recommendations and book summaries.
type AIController struct {
	recommender RecommendationSource
	summarizer  SummarySource
	searcher    ai.Searcher
	auditor     Auditor
}

// NewAIController creates an AIController. searcher is used when a client
// asks for enriched recommendations and may be nil.
func NewAIController(recommender RecommendationSource, summarizer SummarySource, searcher ai.Searcher, auditor Auditor) *AIController {
	return &AIController{
		recommender: recommender,
		summarizer:  summarizer,
		searcher:    searcher,
		auditor:     auditorOrNop(auditor),
	}
}

func (ac *AIController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/ai/recommendations", ac.Recommendations)
	group.POST("/ai/summary/:id", ac.Summary)
}

// EnrichedRecommendationsResponse adds the catalog-enriched books to a
// recommendation list.
type EnrichedRecommendationsResponse struct {
	entities.RecommendationsResponse
	Books []entities.Book `json:"books"`
}

// Recommendations handles GET /api/ai/recommendations[?refresh=true][&enrich=true]
func (ac *AIController) Recommendations(c *gin.Context) {
	userID := GetUserID(c)
	refresh := parseQueryBool(c, "refresh")

	resp, err := ac.recommender.Recommendations(c.Request.Context(), userID, refresh)
	if err != nil {
		ac.auditor.LogAI(userID, "ai_recommendations", "Recommendation generation failed", err)
		respondAIError(c, err, "recommendations")
		return
	}
	if !resp.Cached && len(resp.Recommendations) > 0 {
		ac.auditor.LogAI(userID, "ai_recommendations",
			fmt.Sprintf("%d recommendations generated", len(resp.Recommendations)), nil)
	}

	if parseQueryBool(c, "enrich") && ac.searcher != nil {
		enriched := ai.EnrichRecommendations(c.Request.Context(), ac.searcher, resp.Recommendations)
		if enriched == nil {
			enriched = []entities.Book{}
		}
		c.JSON(http.StatusOK, EnrichedRecommendationsResponse{RecommendationsResponse: *resp, Books: enriched})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Summary handles POST /api/ai/summary/:id
func (ac *AIController) Summary(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID := GetUserID(c)

	summary, err := ac.summarizer.Summary(c.Request.Context(), userID, id)
	if err != nil {
		if !errors.Is(err, books.ErrBookNotFound) {
			ac.auditor.LogAI(userID, "ai_summary", fmt.Sprintf("Summary for book %d failed", id), err)
		}
		respondAIError(c, err, "summary")
		return
	}
	if !summary.Cached {
		ac.auditor.LogAI(userID, "ai_summary", fmt.Sprintf("Summary generated for book %d", id), nil)
	}
	c.JSON(http.StatusOK, summary)
}

func respondAIError(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, books.ErrBookNotFound):
		respondNotFound(c, "book")
	case errors.Is(err, ai.ErrInvalidResponse):
		respondError(c, http.StatusBadGateway, "invalid AI response")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(c, http.StatusGatewayTimeout, "timeout")
	default:
		respondInternalError(c, err, what)
	}
}
