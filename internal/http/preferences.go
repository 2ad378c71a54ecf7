package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/mylibrary/internal/entities"
)

// PreferencesController stores the display preferences of the account.
type PreferencesController struct {
	store   PreferencesStore
	auditor Auditor
}

func NewPreferencesController(store PreferencesStore, auditor Auditor) *PreferencesController {
	return &PreferencesController{store: store, auditor: auditorOrNop(auditor)}
}

func (pc *PreferencesController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/preferences", pc.Get)
	group.PUT("/preferences", pc.Update)
}

// preferencesUpdate holds optional changes; omitted fields keep their value.
type preferencesUpdate struct {
	Theme          *entities.Theme `json:"theme"`
	ProfilePicture *string         `json:"profilePicture"`
}

// Get handles GET /api/preferences
func (pc *PreferencesController) Get(c *gin.Context) {
	prefs, err := pc.store.GetPreferences(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "get preferences")
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// Update handles PUT /api/preferences
func (pc *PreferencesController) Update(c *gin.Context) {
	var req preferencesUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	userID := GetUserID(c)
	prefs, err := pc.store.GetPreferences(userID)
	if err != nil {
		respondInternalError(c, err, "get preferences")
		return
	}

	if req.Theme != nil && !req.Theme.Valid() {
		respondBadRequest(c, fmt.Sprintf("invalid theme %d", *req.Theme))
		return
	}
	if req.ProfilePicture != nil && !entities.ValidProfilePicture(*req.ProfilePicture) {
		respondBadRequest(c, fmt.Sprintf("invalid profile picture %q", *req.ProfilePicture))
		return
	}

	previous := prefs
	if req.Theme != nil {
		prefs.Theme = *req.Theme
	}
	if req.ProfilePicture != nil {
		prefs.ProfilePicture = *req.ProfilePicture
	}

	if err := pc.store.SavePreferences(userID, prefs); err != nil {
		respondInternalError(c, err, "save preferences")
		return
	}

	// Only changes that were stored are audited
	if prefs.Theme != previous.Theme {
		pc.auditor.LogSettings(userID, "theme_change", "Theme set to "+prefs.Theme.String())
	}
	if prefs.ProfilePicture != previous.ProfilePicture {
		pc.auditor.LogSettings(userID, "profile_picture_change", "Profile picture set to "+prefs.ProfilePicture)
	}
	c.JSON(http.StatusOK, prefs)
}
