// Package covers keeps local copies of book cover images so the app does not
// hit Google Books or Open Library for every thumbnail.
package covers

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// MaxCoverSize caps a downloaded image.
const MaxCoverSize = 5 << 20

const userAgent = "MyLibrary/1.0"

var (
	ErrUnsupportedURL = errors.New("cover url must be http or https")
	ErrNotAnImage     = errors.New("cover response is not an image")
	ErrCoverTooLarge  = errors.New("cover exceeds maximum size")
)

// extensions maps the image types the catalogs serve to file suffixes, so
// the file server sends the right Content-Type back.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Cache stores one file per book and cover URL:
// cover_<book id>_<url hash><ext>. A changed URL gives a new file.
type Cache struct {
	dir    string
	client *http.Client
	group  singleflight.Group
}

func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cover cache dir: %w", err)
	}
	return &Cache{dir: dir, client: &http.Client{Timeout: 30 * time.Second}}, nil
}

func (c *Cache) CacheDir() string {
	return c.dir
}

// GetCover returns the local path of the book's cover, downloading it on
// the first request. An empty URL yields an empty path. Concurrent requests
// for the same cover share one download.
func (c *Cache) GetCover(ctx context.Context, bookID int64, coverURL string) (string, error) {
	if coverURL == "" {
		return "", nil
	}
	if u, err := url.Parse(coverURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", ErrUnsupportedURL
	}

	stem := coverStem(bookID, coverURL)
	if path, ok := c.lookup(stem); ok {
		return path, nil
	}

	v, err, _ := c.group.Do(stem, func() (any, error) {
		if path, ok := c.lookup(stem); ok {
			return path, nil
		}
		return c.download(ctx, coverURL, stem)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// InvalidateCover removes every cached cover of a book.
func (c *Cache) InvalidateCover(bookID int64) error {
	matches, err := filepath.Glob(filepath.Join(c.dir, fmt.Sprintf("cover_%d_*", bookID)))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove cover %s: %w", filepath.Base(m), err)
		}
	}
	return nil
}

func coverStem(bookID int64, coverURL string) string {
	sum := sha256.Sum256([]byte(coverURL))
	return fmt.Sprintf("cover_%d_%x", bookID, sum[:8])
}

func (c *Cache) lookup(stem string) (string, bool) {
	matches, _ := filepath.Glob(filepath.Join(c.dir, stem+".*"))
	if len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

// download writes to a temp file first so readers never see a partial image.
func (c *Cache) download(ctx context.Context, coverURL, stem string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch cover: status %d", resp.StatusCode)
	}
	ext, err := extensionFor(resp.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(c.dir, "cover_tmp_")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, MaxCoverSize+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("write cover: %w", err)
	}
	if n > MaxCoverSize {
		return "", ErrCoverTooLarge
	}

	path := filepath.Join(c.dir, stem+ext)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}

// extensionFor accepts a missing Content-Type as JPEG, the format both
// catalogs serve.
func extensionFor(contentType string) (string, error) {
	if contentType == "" {
		return ".jpg", nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", ErrNotAnImage
	}
	if ext, ok := extensions[mediaType]; ok {
		return ext, nil
	}
	return ".img", nil
}
