// Package client talks to the MyLibrary REST API the way the mobile app
// does: a bearer token kept in a local preference file, JSON bodies, French
// user-facing error messages.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mrlokans/mylibrary/internal/logger"
)

const DefaultTimeout = 30 * time.Second

var (
	// ErrNotLoggedIn is returned without a network call when no token is stored.
	ErrNotLoggedIn = errors.New("Non connecté")
	// ErrUnauthorized means the server rejected the token; it has been cleared.
	ErrUnauthorized = errors.New("session expirée, reconnectez-vous")
)

// APIError is a non-2xx answer other than 401/403.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

type Config struct {
	// BaseURL is the API root, e.g. http://localhost:3000/api
	BaseURL string
	// ImageBaseURL prefixes server-relative image paths, e.g. http://localhost:3000
	ImageBaseURL string
	HTTPClient   *http.Client
	Tokens       TokenStore
}

type Client struct {
	baseURL      string
	imageBaseURL string
	httpClient   *http.Client
	tokens       TokenStore
}

func New(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if cfg.Tokens == nil {
		cfg.Tokens = &MemoryTokenStore{}
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		imageBaseURL: cfg.ImageBaseURL,
		httpClient:   cfg.HTTPClient,
		tokens:       cfg.Tokens,
	}
}

// ServerURLs derives the API and image base URLs from a server root such as
// http://localhost:3000.
func ServerURLs(server string) (apiBase, imageBase string) {
	server = strings.TrimRight(server, "/")
	return server + "/api", server
}

func (c *Client) IsLoggedIn() bool {
	return c.tokens.Token() != ""
}

// do sends a JSON request. With authenticated set, the stored token is
// attached and a 401/403 answer clears it.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authenticated bool) error {
	var token string
	if authenticated {
		token = c.tokens.Token()
		if token == "" {
			return ErrNotLoggedIn
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if authenticated && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		if err := c.tokens.ClearToken(); err != nil {
			logger.For(ctx).WithError(err).Warn("failed to clear rejected token")
		}
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("Erreur %d", resp.StatusCode)}

	var payload struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	}
	return apiErr
}
