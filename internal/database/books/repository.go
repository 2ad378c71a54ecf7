// Package books provides database operations for library entries.
//
// Every read and write taking a userID is scoped to that user: a book owned by
// someone else behaves exactly like a missing one.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	list, err := repo.ListForUser(userID)
package books

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/mylibrary/internal/entities"
)

var ErrBookNotFound = errors.New("book not found")

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListForUser returns the user's books, most recently added first.
func (r *Repository) ListForUser(userID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Where("user_id = ?", userID).Order("date_ajout DESC, id DESC").Find(&books).Error
	return books, err
}

// GetForUser retrieves one of the user's books.
func (r *Repository) GetForUser(userID uint, id int64) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetBookByID retrieves a book regardless of owner. Used by background jobs.
func (r *Repository) GetBookByID(id int64) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *Repository) Create(book *entities.Book) error {
	book.ID = 0
	if err := r.db.Create(book).Error; err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

// Update replaces every editable column of an existing book.
func (r *Repository) Update(book *entities.Book) error {
	existing, err := r.GetForUser(book.UserID, book.ID)
	if err != nil {
		return err
	}
	book.DateAjout = existing.DateAjout
	if err := r.db.Save(book).Error; err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}
	return nil
}

// UpdateFields applies a partial update and returns the refreshed book.
func (r *Repository) UpdateFields(userID uint, id int64, updates map[string]any) (*entities.Book, error) {
	book, err := r.GetForUser(userID, id)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return book, nil
	}
	if err := r.db.Model(book).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}
	return r.GetForUser(userID, id)
}

func (r *Repository) Delete(userID uint, id int64) error {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&entities.Book{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete book: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

// CountByStatus counts the user's books having status.
func (r *Repository) CountByStatus(userID uint, status entities.BookStatus) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&count).Error
	return count, err
}

// UpdateBookMetadata sets catalog columns without touching personal fields.
func (r *Repository) UpdateBookMetadata(id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&entities.Book{ID: id}).Updates(updates).Error
}

// UpdateCategories goes through a struct update so the json serializer runs.
func (r *Repository) UpdateCategories(id int64, categories []string) error {
	return r.db.Model(&entities.Book{ID: id}).Select("categories").
		Updates(&entities.Book{Categories: categories}).Error
}

// GetBooksMissingMetadata returns books of userID lacking an ISBN, cover,
// publisher, page count or categories. entities.AllUsers spans every account.
func (r *Repository) GetBooksMissingMetadata(userID uint) ([]entities.Book, error) {
	var books []entities.Book
	query := r.db
	if userID != entities.AllUsers {
		query = query.Where("user_id = ?", userID)
	}
	err := query.Where(
		"(isbn IS NULL OR isbn = '' OR image_url IS NULL OR image_url = '' OR " +
			"publisher IS NULL OR publisher = '' OR page_count IS NULL OR " +
			"categories IS NULL OR categories = '' OR categories = 'null' OR categories = '[]')",
	).Order("id ASC").Find(&books).Error
	return books, err
}

// UserIDsWithReadBooks lists users owning at least one "lu" book.
func (r *Repository) UserIDsWithReadBooks() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&entities.Book{}).
		Where("status = ?", entities.StatusRead).
		Distinct().Pluck("user_id", &ids).Error
	return ids, err
}
