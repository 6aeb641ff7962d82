// Package settings provides local settings file management.
// Settings are stored in settings.json next to the application config.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	// SettingsFileName is the name of the settings file
	SettingsFileName = "settings.json"
)

// Theme preferences understood by the frontend.
const (
	ThemeSystem = "system"
	ThemeLight  = "light"
	ThemeDark   = "dark"
)

// LocalSettings represents per-user UI settings
type LocalSettings struct {
	Theme string `json:"theme"`
}

// Manager manages local settings file
type Manager struct {
	filePath string
	settings *LocalSettings
	mu       sync.RWMutex
}

// NewManager creates a settings manager for settings.json inside dir.
func NewManager(dir string) *Manager {
	return NewManagerWithPath(filepath.Join(dir, SettingsFileName))
}

// NewManagerWithPath creates a new settings manager with a custom path
func NewManagerWithPath(filePath string) *Manager {
	m := &Manager{
		filePath: filePath,
		settings: &LocalSettings{},
	}
	_ = m.Load()
	return m
}

// Load loads settings from the file
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.settings = &LocalSettings{}
			return nil
		}
		return err
	}

	var settings LocalSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		m.settings = &LocalSettings{}
		return err
	}

	m.settings = &settings
	return nil
}

// Save saves settings to the file
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := json.MarshalIndent(m.settings, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.filePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(m.filePath, data, 0600)
}

// GetTheme returns the stored theme preference, ThemeSystem when unset.
func (m *Manager) GetTheme() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.settings.Theme == "" {
		return ThemeSystem
	}
	return m.settings.Theme
}

// SetTheme validates and stores the theme preference.
func (m *Manager) SetTheme(theme string) error {
	theme = strings.ToLower(strings.TrimSpace(theme))
	switch theme {
	case ThemeSystem, ThemeLight, ThemeDark:
	default:
		return fmt.Errorf("unknown theme %q", theme)
	}

	m.mu.Lock()
	m.settings.Theme = theme
	m.mu.Unlock()

	return m.Save()
}

// GetFilePath returns the settings file path
func (m *Manager) GetFilePath() string {
	return m.filePath
}
