package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mrlokans/mylibrary/internal/entities"
	"github.com/mrlokans/mylibrary/internal/library"
)

// BookFilter narrows Books. Empty fields do not filter.
type BookFilter struct {
	Query    string
	Status   string
	Category string
	Sort     library.SortOrder
}

func (f BookFilter) values() url.Values {
	v := url.Values{}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.Sort != library.SortNone {
		v.Set("sort", string(f.Sort))
	}
	return v
}

func (c *Client) Books(ctx context.Context, filter BookFilter) ([]entities.Book, error) {
	path := "/livres"
	if q := filter.values().Encode(); q != "" {
		path += "?" + q
	}
	var books []entities.Book
	if err := c.do(ctx, http.MethodGet, path, nil, &books, true); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *Client) Book(ctx context.Context, id int64) (*entities.Book, error) {
	var book entities.Book
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/livres/%d", id), nil, &book, true); err != nil {
		return nil, err
	}
	return &book, nil
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.do(ctx, http.MethodGet, "/livres/categories", nil, &categories, true); err != nil {
		return nil, err
	}
	return categories, nil
}

// AddBook stores book and returns the saved copy with its id.
func (c *Client) AddBook(ctx context.Context, book entities.Book) (*entities.Book, error) {
	book.ID = 0
	var saved entities.Book
	if err := c.do(ctx, http.MethodPost, "/livres", book, &saved, true); err != nil {
		return nil, err
	}
	return &saved, nil
}

// UpdateBook replaces every editable field of the book.
func (c *Client) UpdateBook(ctx context.Context, book entities.Book) (*entities.Book, error) {
	var saved entities.Book
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/livres/%d", book.ID), book, &saved, true); err != nil {
		return nil, err
	}
	return &saved, nil
}

// BookPatch is a partial update; nil fields are left as they are.
type BookPatch struct {
	Status      *entities.BookStatus `json:"status,omitempty"`
	Note        *int                 `json:"note,omitempty"`
	Memo        *string              `json:"memo,omitempty"`
	DateLecture *string              `json:"date_lecture,omitempty"`
}

func (c *Client) PatchBook(ctx context.Context, id int64, patch BookPatch) (*entities.Book, error) {
	var saved entities.Book
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/livres/%d", id), patch, &saved, true); err != nil {
		return nil, err
	}
	return &saved, nil
}

func (c *Client) UpdateBookStatus(ctx context.Context, id int64, status entities.BookStatus) (*entities.Book, error) {
	return c.PatchBook(ctx, id, BookPatch{Status: &status})
}

func (c *Client) DeleteBook(ctx context.Context, id int64) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/livres/%d", id), nil, &resp, true); err != nil {
		return "", err
	}
	return resp.Message, nil
}
