package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mrlokans/mylibrary/internal/entities"
)

// DefaultPrefsFile is the preference file name under the user config dir.
const DefaultPrefsFile = "mylibrary.yaml"

// TokenStore keeps the session token between runs.
type TokenStore interface {
	Token() string
	SaveToken(token string) error
	ClearToken() error
}

type sessionSection struct {
	AuthToken string `yaml:"auth_token,omitempty"`
}

type prefsDocument struct {
	Session sessionSection       `yaml:"MyLibraryPrefs"`
	App     entities.Preferences `yaml:"app_preferences"`
}

// PrefsFile is a YAML file with two sections: the session token under
// MyLibraryPrefs and the display preferences under app_preferences.
type PrefsFile struct {
	path string

	mu  sync.Mutex
	doc prefsDocument
}

// DefaultPrefsPath returns the preference file path in the user config dir.
func DefaultPrefsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultPrefsFile
	}
	return filepath.Join(dir, "mylibrary", DefaultPrefsFile)
}

// OpenPrefsFile loads path. A missing file yields the defaults; it is
// created on the first save.
func OpenPrefsFile(path string) (*PrefsFile, error) {
	p := &PrefsFile{path: path, doc: prefsDocument{App: entities.DefaultPreferences()}}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	if err := yaml.Unmarshal(data, &p.doc); err != nil {
		return nil, fmt.Errorf("parse preferences %s: %w", path, err)
	}

	if !p.doc.App.Theme.Valid() {
		p.doc.App.Theme = entities.ThemeLight
	}
	if !entities.ValidProfilePicture(p.doc.App.ProfilePicture) {
		p.doc.App.ProfilePicture = entities.DefaultProfilePicture
	}
	return p, nil
}

func (p *PrefsFile) Path() string { return p.path }

func (p *PrefsFile) Token() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.Session.AuthToken
}

func (p *PrefsFile) SaveToken(token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.doc.Session.AuthToken = token
	return p.writeLocked()
}

// ClearToken empties the session section. Display preferences are kept.
func (p *PrefsFile) ClearToken() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.doc.Session = sessionSection{}
	return p.writeLocked()
}

func (p *PrefsFile) Preferences() entities.Preferences {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.App
}

func (p *PrefsFile) SavePreferences(prefs entities.Preferences) error {
	if !prefs.Theme.Valid() {
		return fmt.Errorf("invalid theme %d", prefs.Theme)
	}
	if !entities.ValidProfilePicture(prefs.ProfilePicture) {
		return fmt.Errorf("invalid profile picture %q", prefs.ProfilePicture)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.doc.App = prefs
	return p.writeLocked()
}

// writeLocked replaces the file atomically. The token makes it a secret, so
// it is only readable by the owner.
func (p *PrefsFile) writeLocked() error {
	data, err := yaml.Marshal(&p.doc)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("replace preferences: %w", err)
	}
	return nil
}

// MemoryTokenStore keeps the token in memory only.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryTokenStore) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *MemoryTokenStore) SaveToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryTokenStore) ClearToken() error {
	return m.SaveToken("")
}
