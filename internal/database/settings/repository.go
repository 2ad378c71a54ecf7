// Package settings provides database operations for per-user preferences.
//
// # Usage
//
//	repo := settings.NewRepository(db)
//	prefs, err := repo.GetPreferences(userID)
package settings

import (
	"errors"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/mylibrary/internal/entities"
)

// Repository handles all settings database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetSetting retrieves a user's setting by key.
func (r *Repository) GetSetting(userID uint, key string) (*entities.Setting, error) {
	var setting entities.Setting
	err := r.db.Where("user_id = ? AND key = ?", userID, key).First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// SetSetting creates or updates a user's setting.
func (r *Repository) SetSetting(userID uint, key, value string) error {
	setting := entities.Setting{UserID: userID, Key: key, Value: value}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
}

// DeleteSetting removes a user's setting by key.
func (r *Repository) DeleteSetting(userID uint, key string) error {
	return r.db.Where("user_id = ? AND key = ?", userID, key).Delete(&entities.Setting{}).Error
}

// GetPreferences reads theme and profile picture, falling back to defaults
// for missing or invalid stored values.
func (r *Repository) GetPreferences(userID uint) (entities.Preferences, error) {
	prefs := entities.DefaultPreferences()

	theme, err := r.GetSetting(userID, entities.SettingKeyTheme)
	switch {
	case err == nil:
		if n, convErr := strconv.Atoi(theme.Value); convErr == nil && entities.Theme(n).Valid() {
			prefs.Theme = entities.Theme(n)
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return prefs, err
	}

	picture, err := r.GetSetting(userID, entities.SettingKeyProfilePicture)
	switch {
	case err == nil:
		if entities.ValidProfilePicture(picture.Value) {
			prefs.ProfilePicture = picture.Value
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return prefs, err
	}

	return prefs, nil
}

func (r *Repository) SavePreferences(userID uint, prefs entities.Preferences) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if err := repo.SetSetting(userID, entities.SettingKeyTheme, strconv.Itoa(int(prefs.Theme))); err != nil {
			return err
		}
		return repo.SetSetting(userID, entities.SettingKeyProfilePicture, prefs.ProfilePicture)
	})
}
