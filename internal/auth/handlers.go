package auth

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/mylibrary/internal/logger"
)

// AuditLogger records account events. Optional.
type AuditLogger interface {
	LogAuth(userID uint, action, ipAddr, userAgent string, success bool)
	LogProfile(userID uint, action, description string)
}

// AuthController handles account endpoints.
type AuthController struct {
	service *Service
	limiter LoginLimiter
	audit   AuditLogger
}

func NewAuthController(service *Service, limiter LoginLimiter, audit AuditLogger) *AuthController {
	if limiter == nil {
		limiter = NewMemoryRateLimiter(RateLimitConfig{
			MaxAttempts:     service.config.MaxLoginAttempts,
			WindowDuration:  service.config.RateLimitWindow,
			LockoutDuration: service.config.LockoutDuration,
		})
	}
	return &AuthController{service: service, limiter: limiter, audit: audit}
}

// RegisterRoutes mounts public routes on public and token-protected ones on
// protected.
func (ac *AuthController) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/register", ac.Register)
	public.POST("/login", ac.Login)

	protected.POST("/logout", ac.Logout)
	protected.GET("/profile", ac.GetProfile)
	protected.PUT("/profile", ac.UpdateProfile)
	protected.PUT("/profile/password", ac.ChangePassword)
	protected.DELETE("/profile", ac.DeleteAccount)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func (ac *AuthController) logAuth(c *gin.Context, userID uint, action string, success bool) {
	if ac.audit != nil {
		ac.audit.LogAuth(userID, action, c.ClientIP(), c.Request.UserAgent(), success)
	}
}

// validationStatus maps service validation errors to a status code.
func validationStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, ErrUsernameRequired), errors.Is(err, ErrEmailRequired),
		errors.Is(err, ErrPasswordRequired), errors.Is(err, ErrUsernameInvalid),
		errors.Is(err, ErrEmailInvalid), errors.Is(err, ErrPasswordTooShort),
		errors.Is(err, ErrPasswordTooLong), errors.Is(err, ErrNothingToUpdate):
		return http.StatusBadRequest, true
	case errors.Is(err, ErrUserExists):
		return http.StatusConflict, true
	case errors.Is(err, ErrInvalidPassword):
		// Not 401: clients drop their session on 401 and the token is still valid
		return http.StatusUnprocessableEntity, true
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound, true
	}
	return 0, false
}

func (ac *AuthController) fail(c *gin.Context, err error, action string) {
	if status, ok := validationStatus(err); ok {
		msg := err.Error()
		if errors.Is(err, ErrInvalidPassword) {
			msg = "current password is incorrect"
		}
		errorJSON(c, status, msg)
		return
	}
	logger.For(c.Request.Context()).WithError(err).Errorf("%s failed", action)
	errorJSON(c, http.StatusInternalServerError, "internal server error")
}

// Register handles POST /api/register.
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := ac.service.Register(req.Username, req.Email, req.Password)
	if err != nil {
		ac.fail(c, err, "register")
		return
	}

	ac.logAuth(c, result.User.ID, "register", true)
	c.JSON(http.StatusCreated, result)
}

// Login handles POST /api/login. "username" may hold an email address.
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid request body")
		return
	}
	login := req.Username
	if strings.TrimSpace(login) == "" {
		login = req.Email
	}

	ctx := c.Request.Context()
	ip := c.ClientIP()

	if allowed, retryAfter := ac.limiter.Allow(ctx, ip, login); !allowed {
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "too many login attempts",
			"retry_after": retryAfter.Round(time.Second).String(),
		})
		return
	}

	result, err := ac.service.Login(login, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			ac.limiter.RecordFailure(ctx, ip, login)
			ac.logAuth(c, 0, "login", false)
			errorJSON(c, http.StatusUnauthorized, err.Error())
		case errors.Is(err, ErrAccountLocked):
			ac.logAuth(c, 0, "login_locked", false)
			errorJSON(c, http.StatusForbidden, err.Error())
		default:
			ac.fail(c, err, "login")
		}
		return
	}

	ac.limiter.RecordSuccess(ctx, ip, login)
	ac.logAuth(c, result.User.ID, "login", true)
	c.JSON(http.StatusOK, result)
}

// Logout handles POST /api/logout.
func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.service.Logout(c.Request.Context(), GetToken(c)); err != nil {
		ac.fail(c, err, "logout")
		return
	}
	ac.logAuth(c, GetUserID(c), "logout", true)
	c.JSON(http.StatusOK, gin.H{"message": "Déconnecté"})
}

// GetProfile handles GET /api/profile.
func (ac *AuthController) GetProfile(c *gin.Context) {
	user, err := ac.service.GetUserByID(GetUserID(c))
	if err != nil {
		ac.fail(c, err, "get profile")
		return
	}
	c.JSON(http.StatusOK, user.Profile())
}

// UpdateProfile handles PUT /api/profile.
func (ac *AuthController) UpdateProfile(c *gin.Context) {
	var req ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := ac.service.UpdateProfile(GetUserID(c), req)
	if err != nil {
		ac.fail(c, err, "update profile")
		return
	}

	if ac.audit != nil {
		ac.audit.LogProfile(user.ID, "profile_update", "Profile updated")
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profil mis à jour", "user": user.Profile()})
}

// ChangePassword handles PUT /api/profile/password.
func (ac *AuthController) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		errorJSON(c, http.StatusBadRequest, "currentPassword and newPassword are required")
		return
	}

	userID := GetUserID(c)
	if err := ac.service.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		ac.fail(c, err, "change password")
		return
	}

	if ac.audit != nil {
		ac.audit.LogProfile(userID, "password_change", "Password changed")
	}
	c.JSON(http.StatusOK, gin.H{"message": "Mot de passe modifié"})
}

// DeleteAccount handles DELETE /api/profile.
func (ac *AuthController) DeleteAccount(c *gin.Context) {
	var req deleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		errorJSON(c, http.StatusBadRequest, "password is required")
		return
	}

	userID := GetUserID(c)
	if err := ac.service.DeleteAccount(c.Request.Context(), userID, req.Password, GetToken(c)); err != nil {
		ac.fail(c, err, "delete account")
		return
	}

	if ac.audit != nil {
		ac.audit.LogProfile(userID, "account_delete", "Account deleted")
	}
	c.JSON(http.StatusOK, gin.H{"message": "Compte supprimé"})
}
