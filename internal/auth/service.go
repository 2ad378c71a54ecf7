package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mrlokans/mylibrary/internal/config"
	"github.com/mrlokans/mylibrary/internal/database/users"
	"github.com/mrlokans/mylibrary/internal/entities"
)

var (
	usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("username or email already in use")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameRequired   = errors.New("username is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrAccountLocked      = errors.New("account is locked due to too many failed login attempts")
	ErrUsernameInvalid    = errors.New("username must be 3-64 letters, digits, dots, underscores or hyphens")
	ErrEmailInvalid       = errors.New("invalid email format")
	ErrNothingToUpdate    = errors.New("nothing to update")
)

// UserRepository is the storage the service needs.
type UserRepository interface {
	CreateUser(user *entities.User) error
	GetUserByID(id uint) (*entities.User, error)
	GetUserByLogin(login string) (*entities.User, error)
	Exists(username, email string, excludeID uint) (bool, error)
	UpdateFields(id uint, updates map[string]any) error
	RecordFailedLogin(user *entities.User, maxAttempts int, lockout time.Duration) error
	RecordSuccessfulLogin(user *entities.User) error
	DeleteUserWithData(id uint) error
}

// Result is returned by Register and Login.
type Result struct {
	Token string               `json:"token"`
	User  entities.UserProfile `json:"user"`
}

// ProfileUpdate carries optional profile changes. Nil fields are kept.
type ProfileUpdate struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

// Service handles accounts and tokens.
type Service struct {
	users  UserRepository
	tokens *TokenIssuer
	config config.Auth
}

func NewService(repo UserRepository, tokens *TokenIssuer, cfg config.Auth) *Service {
	return &Service{users: repo, tokens: tokens, config: cfg}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateUsername(username string) error {
	if username == "" {
		return ErrUsernameRequired
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameInvalid
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	// RFC 5321 limit
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}

// Register creates an account and returns a token for it.
func (s *Service) Register(username, email, password string) (*Result, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	exists, err := s.users.Exists(username, email, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{Username: username, Email: email, PasswordHash: hash}
	// A concurrent registration can still win between Exists and the insert
	if err := s.users.CreateUser(user); err != nil {
		if errors.Is(err, users.ErrDuplicateUser) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return s.issue(user)
}

// Login authenticates by username or email. Accounts are locked after
// MaxLoginAttempts consecutive failures.
func (s *Service) Login(login, password string) (*Result, error) {
	user, err := s.Authenticate(login, password)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Authenticate validates credentials without issuing a token.
func (s *Service) Authenticate(login, password string) (*entities.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByLogin(login)
	if errors.Is(err, users.ErrUserNotFound) {
		user, err = s.users.GetUserByLogin(normalizeEmail(login))
	}
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.IsLocked(time.Now()) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		lockout := s.config.LockoutDuration
		if lockout == 0 {
			lockout = 30 * time.Minute
		}
		_ = s.users.RecordFailedLogin(user, s.maxAttempts(), lockout)
		return nil, ErrInvalidCredentials
	}

	if err := s.users.RecordSuccessfulLogin(user); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	return user, nil
}

func (s *Service) maxAttempts() int {
	if s.config.MaxLoginAttempts > 0 {
		return s.config.MaxLoginAttempts
	}
	return 5
}

func (s *Service) issue(user *entities.User) (*Result, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Result{Token: token, User: user.Profile()}, nil
}

// ValidateToken returns the user a token belongs to.
func (s *Service) ValidateToken(ctx context.Context, token string) (*entities.User, error) {
	claims, err := s.tokens.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := s.GetUserByID(claims.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidToken
	}
	return user, err
}

// Logout revokes token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	user, err := s.users.GetUserByID(id)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// UpdateProfile changes username and/or email, rejecting values already used
// by another account.
func (s *Service) UpdateProfile(userID uint, update ProfileUpdate) (*entities.User, error) {
	updates := map[string]any{}
	var username, email string

	if update.Username != nil {
		username = strings.TrimSpace(*update.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		updates["username"] = username
	}
	if update.Email != nil {
		email = normalizeEmail(*update.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		updates["email"] = email
	}
	if len(updates) == 0 {
		return nil, ErrNothingToUpdate
	}

	if _, err := s.GetUserByID(userID); err != nil {
		return nil, err
	}
	exists, err := s.users.Exists(username, email, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	if err := s.users.UpdateFields(userID, updates); err != nil {
		if errors.Is(err, users.ErrDuplicateUser) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.GetUserByID(userID)
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(userID uint, currentPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if err := CheckPassword(currentPassword, user.PasswordHash); err != nil {
		return err
	}
	hash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdateFields(userID, map[string]any{"password_hash": hash})
}

// DeleteAccount removes the user and everything they own after checking the
// password, then revokes token.
func (s *Service) DeleteAccount(ctx context.Context, userID uint, password, token string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if err := CheckPassword(password, user.PasswordHash); err != nil {
		return err
	}
	if err := s.users.DeleteUserWithData(userID); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return s.tokens.Revoke(ctx, token)
}
