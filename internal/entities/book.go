package entities

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type BookStatus string

const (
	StatusToRead    BookStatus = "à lire"
	StatusReading   BookStatus = "en cours"
	StatusRead      BookStatus = "lu"
	StatusAbandoned BookStatus = "abandonné"
)

// AllStatuses lists statuses in display order.
var AllStatuses = []BookStatus{StatusRead, StatusReading, StatusToRead, StatusAbandoned}

func (s BookStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

const (
	DefaultLanguage = "fr"
	MinNote         = 0
	MaxNote         = 5
)

// Book is a library entry. JSON names match the mobile app's wire format.
// Recommendation-derived books that are not stored carry negative ids.
type Book struct {
	ID                  int64      `gorm:"primaryKey" json:"id,omitempty"`
	UserID              uint       `gorm:"index" json:"user_id,omitempty"`
	Title               string     `gorm:"column:titre;index;size:512;not null" json:"titre"`
	Author              string     `gorm:"column:auteur;index;size:256;not null" json:"auteur"`
	Categories          []string   `gorm:"serializer:json" json:"categories,omitempty"`
	ISBN                string     `gorm:"index;size:20" json:"isbn,omitempty"`
	Publisher           string     `gorm:"size:256" json:"publisher,omitempty"`
	PublishedDate       string     `gorm:"size:32" json:"published_date,omitempty"`
	PageCount           *int       `json:"page_count,omitempty"`
	Language            string     `gorm:"size:16" json:"language,omitempty"`
	AverageRatingGoogle *float64   `json:"average_rating_google,omitempty"`
	Note                *int       `json:"note,omitempty"`
	Status              BookStatus `gorm:"index;size:20" json:"status"`
	Memo                string     `gorm:"type:text" json:"memo,omitempty"`
	ImageURL            string     `gorm:"size:2048" json:"image_url,omitempty"`
	DateLecture         string     `gorm:"size:32" json:"date_lecture,omitempty"`
	DateAjout           *time.Time `gorm:"index" json:"date_ajout,omitempty"`
	DateModification    *time.Time `json:"date_modification,omitempty"`
}

func (Book) TableName() string {
	return "livres"
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if b.DateAjout == nil {
		b.DateAjout = &now
	}
	b.DateModification = &now
	if b.Status == "" {
		b.Status = StatusToRead
	}
	return nil
}

func (b *Book) BeforeUpdate(tx *gorm.DB) error {
	now := time.Now()
	b.DateModification = &now
	tx.Statement.SetColumn("DateModification", &now)
	return nil
}

// HasCategory reports whether the book carries category, ignoring case.
func (b *Book) HasCategory(category string) bool {
	for _, c := range b.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// MissingMetadata reports whether catalog enrichment could add anything.
func (b *Book) MissingMetadata() bool {
	return b.ISBN == "" || b.ImageURL == "" || b.Publisher == "" ||
		b.PageCount == nil || len(b.Categories) == 0
}

// NoteValue returns the note, treating a missing one as 0.
func (b *Book) NoteValue() int {
	if b.Note == nil {
		return 0
	}
	return *b.Note
}
