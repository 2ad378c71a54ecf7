package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/mylibrary/internal/config"
	"github.com/mrlokans/mylibrary/internal/database/users"
	"github.com/mrlokans/mylibrary/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(
		&entities.User{},
		&entities.Book{},
		&entities.Setting{},
		&entities.RecommendationCache{},
		&entities.SummaryCache{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func testAuthConfig() config.Auth {
	return config.Auth{
		JWTSecret:        "test-secret",
		TokenExpiry:      time.Hour,
		BcryptCost:       4, // Low cost for faster tests
		MaxLoginAttempts: 3,
		LockoutDuration:  time.Minute,
	}
}

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	cfg := testAuthConfig()
	issuer, err := NewTokenIssuer(cfg, NewMemoryTokenRevoker())
	if err != nil {
		t.Fatalf("NewTokenIssuer() error = %v", err)
	}
	return NewService(users.NewRepository(db), issuer, cfg), db
}

func TestService_Register(t *testing.T) {
	svc, _ := setupService(t)

	if _, err := svc.Register("alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		username string
		email    string
		password string
		wantErr  error
	}{
		{"valid user", "bob", "Bob@Example.com", "password123", nil},
		{"missing username", "", "carol@example.com", "password123", ErrUsernameRequired},
		{"invalid username", "a!", "carol@example.com", "password123", ErrUsernameInvalid},
		{"missing email", "carol", "", "password123", ErrEmailRequired},
		{"invalid email", "carol", "not-an-email", "password123", ErrEmailInvalid},
		{"missing password", "carol", "carol@example.com", "", ErrPasswordRequired},
		{"short password", "carol", "carol@example.com", "short", ErrPasswordTooShort},
		{"duplicate username", "alice", "other@example.com", "password123", ErrUserExists},
		{"duplicate email", "dave", "ALICE@example.com", "password123", ErrUserExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Register(tt.username, tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if result.Token == "" {
				t.Error("Register() returned empty token")
			}
			if result.User.ID == 0 || result.User.Username != tt.username {
				t.Errorf("Register() user = %+v", result.User)
			}
		})
	}
}

func TestService_RegisterNormalizesEmail(t *testing.T) {
	svc, _ := setupService(t)

	result, err := svc.Register("  alice ", " Alice@Example.COM ", "password123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if result.User.Username != "alice" {
		t.Errorf("Username = %q, want %q", result.User.Username, "alice")
	}
	if result.User.Email != "alice@example.com" {
		t.Errorf("Email = %q, want %q", result.User.Email, "alice@example.com")
	}
}

func TestService_Login(t *testing.T) {
	svc, _ := setupService(t)
	if _, err := svc.Register("alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		login    string
		password string
		wantErr  error
	}{
		{"by username", "alice", "password123", nil},
		{"by email", "alice@example.com", "password123", nil},
		{"by email with different case", "ALICE@example.com", "password123", nil},
		{"wrong password", "alice", "password124", ErrInvalidCredentials},
		{"unknown user", "nobody", "password123", ErrInvalidCredentials},
		{"empty login", "", "password123", ErrInvalidCredentials},
		{"empty password", "alice", "", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Login(tt.login, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Login() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && result.Token == "" {
				t.Error("Login() returned empty token")
			}
		})
	}
}

func TestService_LoginLocksAccount(t *testing.T) {
	svc, _ := setupService(t)
	if _, err := svc.Register("alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	for i := 0; i < testAuthConfig().MaxLoginAttempts; i++ {
		if _, err := svc.Login("alice", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: Login() error = %v, want %v", i+1, err, ErrInvalidCredentials)
		}
	}

	if _, err := svc.Login("alice", "password123"); !errors.Is(err, ErrAccountLocked) {
		t.Errorf("Login() after lockout error = %v, want %v", err, ErrAccountLocked)
	}
}

func TestService_SuccessfulLoginResetsFailures(t *testing.T) {
	svc, db := setupService(t)
	result, err := svc.Register("alice", "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	svc.Login("alice", "wrong-password")
	svc.Login("alice", "wrong-password")
	if _, err := svc.Login("alice", "password123"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	var user entities.User
	if err := db.First(&user, result.User.ID).Error; err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	if user.FailedLoginCount != 0 {
		t.Errorf("FailedLoginCount = %d, want 0", user.FailedLoginCount)
	}
	if user.LastLoginAt == nil {
		t.Error("LastLoginAt was not set")
	}
}

func TestService_ValidateAndLogout(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	result, err := svc.Register("alice", "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	user, err := svc.ValidateToken(ctx, result.Token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if user.ID != result.User.ID {
		t.Errorf("ValidateToken() user = %d, want %d", user.ID, result.User.ID)
	}

	if _, err := svc.ValidateToken(ctx, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken(garbage) error = %v, want %v", err, ErrInvalidToken)
	}

	if err := svc.Logout(ctx, result.Token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := svc.ValidateToken(ctx, result.Token); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("ValidateToken() after logout error = %v, want %v", err, ErrTokenRevoked)
	}
}

func TestService_UpdateProfile(t *testing.T) {
	svc, _ := setupService(t)
	alice, err := svc.Register("alice", "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := svc.Register("bob", "bob@example.com", "password123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	str := func(s string) *string { return &s }

	tests := []struct {
		name    string
		update  ProfileUpdate
		wantErr error
	}{
		{"nothing", ProfileUpdate{}, ErrNothingToUpdate},
		{"taken username", ProfileUpdate{Username: str("bob")}, ErrUserExists},
		{"taken email", ProfileUpdate{Email: str("BOB@example.com")}, ErrUserExists},
		{"invalid email", ProfileUpdate{Email: str("nope")}, ErrEmailInvalid},
		{"empty username", ProfileUpdate{Username: str("  ")}, ErrUsernameRequired},
		{"same username as before", ProfileUpdate{Username: str("alice")}, nil},
		{"new username and email", ProfileUpdate{Username: str("alicia"), Email: str("alicia@example.com")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.UpdateProfile(alice.User.ID, tt.update)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("UpdateProfile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if tt.update.Username != nil && user.Username != *tt.update.Username {
				t.Errorf("Username = %q, want %q", user.Username, *tt.update.Username)
			}
			if tt.update.Email != nil && user.Email != *tt.update.Email {
				t.Errorf("Email = %q, want %q", user.Email, *tt.update.Email)
			}
		})
	}

	if _, err := svc.UpdateProfile(999, ProfileUpdate{Username: str("ghost")}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("UpdateProfile(999) error = %v, want %v", err, ErrUserNotFound)
	}
}

func TestService_ChangePassword(t *testing.T) {
	svc, _ := setupService(t)
	result, err := svc.Register("alice", "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	id := result.User.ID

	if err := svc.ChangePassword(id, "wrong-password", "newpassword456"); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("ChangePassword() with wrong current error = %v, want %v", err, ErrInvalidPassword)
	}
	if err := svc.ChangePassword(id, "password123", "short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("ChangePassword() with short new error = %v, want %v", err, ErrPasswordTooShort)
	}
	if err := svc.ChangePassword(id, "password123", "newpassword456"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}

	if _, err := svc.Login("alice", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() with old password error = %v, want %v", err, ErrInvalidCredentials)
	}
	if _, err := svc.Login("alice", "newpassword456"); err != nil {
		t.Errorf("Login() with new password error = %v", err)
	}
}

func TestService_DeleteAccount(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	result, err := svc.Register("alice", "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	id := result.User.ID

	book := entities.Book{UserID: id, Title: "Dune", Author: "Frank Herbert", Status: entities.StatusToRead}
	if err := db.Create(&book).Error; err != nil {
		t.Fatalf("failed to create book: %v", err)
	}

	if err := svc.DeleteAccount(ctx, id, "wrong-password", result.Token); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("DeleteAccount() with wrong password error = %v, want %v", err, ErrInvalidPassword)
	}

	if err := svc.DeleteAccount(ctx, id, "password123", result.Token); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}

	if _, err := svc.GetUserByID(id); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUserByID() after delete error = %v, want %v", err, ErrUserNotFound)
	}
	var count int64
	db.Model(&entities.Book{}).Where("user_id = ?", id).Count(&count)
	if count != 0 {
		t.Errorf("books left after delete = %d, want 0", count)
	}
	if _, err := svc.ValidateToken(ctx, result.Token); err == nil {
		t.Error("ValidateToken() after delete succeeded, want error")
	}
}

// staleExistsRepo answers Exists as if another registration had not landed
// yet, leaving the unique index as the only guard.
type staleExistsRepo struct {
	*users.Repository
}

func (staleExistsRepo) Exists(username, email string, excludeID uint) (bool, error) {
	return false, nil
}

func TestService_DuplicateCaughtByUniqueIndex(t *testing.T) {
	db := setupTestDB(t)
	cfg := testAuthConfig()
	issuer, err := NewTokenIssuer(cfg, NewMemoryTokenRevoker())
	if err != nil {
		t.Fatalf("NewTokenIssuer() error = %v", err)
	}
	svc := NewService(staleExistsRepo{users.NewRepository(db)}, issuer, cfg)

	if _, err := svc.Register("alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := svc.Register("alice", "other@example.com", "password123"); !errors.Is(err, ErrUserExists) {
		t.Errorf("Register() duplicate error = %v, want %v", err, ErrUserExists)
	}

	bob, err := svc.Register("bob", "bob@example.com", "password123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	taken := "alice@example.com"
	if _, err := svc.UpdateProfile(bob.User.ID, ProfileUpdate{Email: &taken}); !errors.Is(err, ErrUserExists) {
		t.Errorf("UpdateProfile() duplicate error = %v, want %v", err, ErrUserExists)
	}
}
