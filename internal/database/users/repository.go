// Package users provides database operations for user management.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByLogin("alice")
package users

import (
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/mrlokans/mylibrary/internal/entities"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUser is a write rejected by the username or email unique index.
	ErrDuplicateUser = errors.New("username or email already in use")
)

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateUser(user *entities.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByLogin retrieves a user by username or email.
func (r *Repository) GetUserByLogin(login string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("username = ? OR email = ?", login, login).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists reports whether another account already uses username or email.
// excludeID skips the caller's own row during profile updates.
func (r *Repository) Exists(username, email string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.Model(&entities.User{})
	switch {
	case username != "" && email != "":
		query = query.Where("username = ? OR email = ?", username, email)
	case username != "":
		query = query.Where("username = ?", username)
	case email != "":
		query = query.Where("email = ?", email)
	default:
		return false, nil
	}
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) UpdateFields(id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	err := r.db.Model(&entities.User{}).Where("id = ?", id).Updates(updates).Error
	if isUniqueViolation(err) {
		return ErrDuplicateUser
	}
	return err
}

// RecordFailedLogin increments the failure counter and locks the account once
// maxAttempts is reached.
func (r *Repository) RecordFailedLogin(user *entities.User, maxAttempts int, lockout time.Duration) error {
	user.FailedLoginCount++
	updates := map[string]any{"failed_login_count": user.FailedLoginCount}
	if maxAttempts > 0 && user.FailedLoginCount >= maxAttempts {
		until := time.Now().Add(lockout)
		user.LockedUntil = &until
		updates["locked_until"] = until
	}
	return r.UpdateFields(user.ID, updates)
}

// RecordSuccessfulLogin clears lockout state and stamps the login time.
func (r *Repository) RecordSuccessfulLogin(user *entities.User) error {
	now := time.Now()
	user.LastLoginAt = &now
	user.FailedLoginCount = 0
	user.LockedUntil = nil
	return r.UpdateFields(user.ID, map[string]any{
		"last_login_at":      now,
		"failed_login_count": 0,
		"locked_until":       nil,
	})
}

// HasUsers returns true if at least one account exists.
func (r *Repository) HasUsers() (bool, error) {
	var count int64
	if err := r.db.Model(&entities.User{}).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteUserWithData removes the account and everything it owns in one
// transaction.
func (r *Repository) DeleteUserWithData(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		owned := []any{
			&entities.Book{},
			&entities.Setting{},
			&entities.RecommendationCache{},
			&entities.SummaryCache{},
		}
		for _, model := range owned {
			if err := tx.Where("user_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to delete user data: %w", err)
			}
		}
		result := tx.Delete(&entities.User{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete user: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}
