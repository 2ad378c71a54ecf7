package database

import (
	"github.com/mrlokans/mylibrary/internal/catalog"
	"github.com/mrlokans/mylibrary/internal/database/books"
	"github.com/mrlokans/mylibrary/internal/database/sync"
	"github.com/mrlokans/mylibrary/internal/entities"
)

// MetadataUpdater adapts the books repository to catalog.BookUpdater.
type MetadataUpdater struct {
	repo *books.Repository
}

func NewMetadataUpdater(db *Database) *MetadataUpdater {
	return &MetadataUpdater{repo: books.NewRepository(db.DB)}
}

func (m *MetadataUpdater) GetBookByID(id int64) (*entities.Book, error) {
	return m.repo.GetBookByID(id)
}

// UpdateBookMetadata converts BookUpdateFields to a column map.
func (m *MetadataUpdater) UpdateBookMetadata(id int64, fields catalog.BookUpdateFields) error {
	updates := make(map[string]any)

	if fields.ISBN != nil {
		updates["isbn"] = *fields.ISBN
	}
	if fields.ImageURL != nil {
		updates["image_url"] = *fields.ImageURL
	}
	if fields.Publisher != nil {
		updates["publisher"] = *fields.Publisher
	}
	if fields.PublishedDate != nil {
		updates["published_date"] = *fields.PublishedDate
	}
	if fields.PageCount != nil {
		updates["page_count"] = *fields.PageCount
	}
	if fields.Language != nil {
		updates["language"] = *fields.Language
	}
	if fields.AverageRating != nil {
		updates["average_rating_google"] = *fields.AverageRating
	}

	if err := m.repo.UpdateBookMetadata(id, updates); err != nil {
		return err
	}
	if len(fields.Categories) > 0 {
		return m.repo.UpdateCategories(id, fields.Categories)
	}
	return nil
}

func (m *MetadataUpdater) GetBooksMissingMetadata(userID uint) ([]entities.Book, error) {
	return m.repo.GetBooksMissingMetadata(userID)
}

// NewEnrichmentProgress returns the progress tracker of bulk enrichment.
func NewEnrichmentProgress(db *Database) *sync.Repository {
	return sync.NewRepository(db.DB, entities.SyncTypeEnrichment)
}

var (
	_ catalog.BookUpdater      = (*MetadataUpdater)(nil)
	_ catalog.ProgressReporter = (*sync.Repository)(nil)
)
