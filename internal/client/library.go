package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mrlokans/mylibrary/internal/entities"
	"github.com/mrlokans/mylibrary/internal/gamification"
	"github.com/mrlokans/mylibrary/internal/stats"
)

func (c *Client) Stats(ctx context.Context) (*stats.Stats, error) {
	var s stats.Stats
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &s, true); err != nil {
		return nil, err
	}
	return &s, nil
}

// Badges returns the badge catalogue with image URLs made absolute against
// the image base URL.
func (c *Client) Badges(ctx context.Context) (*entities.BadgesResponse, error) {
	var resp entities.BadgesResponse
	if err := c.do(ctx, http.MethodGet, "/badges", nil, &resp, true); err != nil {
		return nil, err
	}
	for i := range resp.Badges {
		resp.Badges[i].ImageURL = gamification.ImageURL(c.imageBaseURL, resp.Badges[i].ImageURL)
	}
	return &resp, nil
}

func (c *Client) Recommendations(ctx context.Context, refresh bool) (*entities.RecommendationsResponse, error) {
	path := "/ai/recommendations"
	if refresh {
		path += "?refresh=true"
	}
	var resp entities.RecommendationsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Summary(ctx context.Context, bookID int64) (*entities.BookSummary, error) {
	var summary entities.BookSummary
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/ai/summary/%d", bookID), nil, &summary, true); err != nil {
		return nil, err
	}
	return &summary, nil
}

// SearchCatalog searches the external catalog through the server.
func (c *Client) SearchCatalog(ctx context.Context, query string, maxResults int) ([]entities.SearchResult, error) {
	v := url.Values{"q": {query}}
	if maxResults > 0 {
		v.Set("maxResults", fmt.Sprint(maxResults))
	}
	var results []entities.SearchResult
	if err := c.do(ctx, http.MethodGet, "/search?"+v.Encode(), nil, &results, true); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) SearchISBN(ctx context.Context, isbn string) (*entities.SearchResult, error) {
	var result entities.SearchResult
	if err := c.do(ctx, http.MethodGet, "/search/isbn/"+url.PathEscape(isbn), nil, &result, true); err != nil {
		return nil, err
	}
	return &result, nil
}

// Preferences returns the preferences stored on the server.
func (c *Client) Preferences(ctx context.Context) (*entities.Preferences, error) {
	var prefs entities.Preferences
	if err := c.do(ctx, http.MethodGet, "/preferences", nil, &prefs, true); err != nil {
		return nil, err
	}
	return &prefs, nil
}

func (c *Client) SavePreferences(ctx context.Context, prefs entities.Preferences) (*entities.Preferences, error) {
	var saved entities.Preferences
	if err := c.do(ctx, http.MethodPut, "/preferences", prefs, &saved, true); err != nil {
		return nil, err
	}
	return &saved, nil
}
