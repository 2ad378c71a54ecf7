package entities

import (
	"time"
)

// Setting is a per-user preference stored as a key/value pair.
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_settings_user_key" json:"user_id"`
	Key       string    `gorm:"uniqueIndex:idx_settings_user_key;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	SettingKeyTheme          = "selected_theme"
	SettingKeyProfilePicture = "selected_profile_picture"
)

type Theme int

const (
	ThemeLight Theme = iota
	ThemeApple
	ThemePink
	ThemeDark
)

var themeNames = map[Theme]string{
	ThemeLight: "Clair",
	ThemeApple: "Pomme",
	ThemePink:  "Rose",
	ThemeDark:  "Sombre",
}

func (t Theme) Valid() bool {
	_, ok := themeNames[t]
	return ok
}

func (t Theme) String() string {
	if name, ok := themeNames[t]; ok {
		return name
	}
	return themeNames[ThemeLight]
}

const DefaultProfilePicture = "pp_hiboux"

// ProfilePictures lists the avatars a user can pick.
var ProfilePictures = []string{"pp_pandas", "pp_chian", "pp_chat", "pp_hiboux", "pp_renne"}

func ValidProfilePicture(name string) bool {
	for _, p := range ProfilePictures {
		if p == name {
			return true
		}
	}
	return false
}

type Preferences struct {
	Theme          Theme  `json:"theme" yaml:"selected_theme"`
	ProfilePicture string `json:"profilePicture" yaml:"selected_profile_picture"`
}

func DefaultPreferences() Preferences {
	return Preferences{Theme: ThemeLight, ProfilePicture: DefaultProfilePicture}
}
