// Package config persists the formula editor's application configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"formula-editor/internal/locale"
	"formula-editor/internal/logger"
	"formula-editor/internal/types"
)

const (
	// AppDirName is the per-user configuration directory name
	AppDirName = "formula-editor"
	// DefaultConfigFileName is the default configuration file name
	DefaultConfigFileName = "formula-editor-config.json"
	// EnvLocale overrides the configured interface language
	EnvLocale = "FORMULA_EDITOR_LOCALE"
	// DefaultLocale is the interface language used when none is configured
	DefaultLocale = "zh"
	// MaxRecentFiles is the length of the recent file history
	MaxRecentFiles = 10
	// DefaultMaxBackups is the number of backups kept per saved file
	DefaultMaxBackups = 5
)

// AppConfigDir returns <UserConfigDir>/formula-editor.
func AppConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppDirName), nil
}

// ConfigManager manages application configuration
type ConfigManager struct {
	configPath string
	config     *types.Config
	mu         sync.RWMutex
	now        func() time.Time
}

// NewConfigManager creates a new ConfigManager with the specified config path.
// If configPath is empty, it uses the default path in the user's config directory.
func NewConfigManager(configPath string) (*ConfigManager, error) {
	if configPath == "" {
		dir, err := AppConfigDir()
		if err != nil {
			logger.Error("failed to get user config directory", err)
			return nil, types.NewAppError(types.ErrConfig, "failed to get user config directory", err)
		}
		configPath = filepath.Join(dir, DefaultConfigFileName)
	}

	logger.Info("ConfigManager initialized", logger.String("configPath", configPath))
	return &ConfigManager{
		configPath: configPath,
		config:     DefaultConfig(),
		now:        time.Now,
	}, nil
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *types.Config {
	return &types.Config{
		Locale:         DefaultLocale,
		RecentFiles:    []types.RecentFileItem{},
		WatchTemplates: true,
		BackupOnSave:   true,
		MaxBackups:     DefaultMaxBackups,
	}
}

// Load loads configuration from the config file.
// A missing file or invalid JSON leaves the defaults in place.
func (m *ConfigManager) Load() error {
	logger.Debug("loading configuration", logger.String("path", m.configPath))

	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Error("failed to read config file", err, logger.String("path", m.configPath))
			return types.NewAppError(types.ErrConfig, "failed to read config file", err)
		}
		logger.Info("config file not found, using defaults", logger.String("path", m.configPath))
		m.config = DefaultConfig()
	} else {
		// Keys missing from the file keep their default values.
		config := DefaultConfig()
		if err := json.Unmarshal(data, config); err != nil {
			logger.Warn("invalid config file format, using defaults", logger.String("path", m.configPath), logger.Err(err))
			config = DefaultConfig()
		} else {
			logger.Info("configuration loaded successfully",
				logger.String("path", m.configPath),
				logger.String("locale", config.Locale),
				logger.Int("recentFiles", len(config.RecentFiles)))
		}
		m.config = config
	}

	if m.config.Locale == "" {
		m.config.Locale = DefaultLocale
	}
	if m.config.MaxBackups < 0 {
		m.config.MaxBackups = 0
	}
	if m.config.RecentFiles == nil {
		m.config.RecentFiles = []types.RecentFileItem{}
	}
	if len(m.config.RecentFiles) > MaxRecentFiles {
		m.config.RecentFiles = m.config.RecentFiles[:MaxRecentFiles]
	}
	return nil
}

// Save saves the current configuration to the config file.
func (m *ConfigManager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveLocked()
}

func (m *ConfigManager) saveLocked() error {
	logger.Debug("saving configuration", logger.String("path", m.configPath))

	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("failed to create config directory", err, logger.String("dir", dir))
		return types.NewAppError(types.ErrConfig, "failed to create config directory", err)
	}

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		logger.Error("failed to marshal config", err)
		return types.NewAppError(types.ErrConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		logger.Error("failed to write config file", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrConfig, "failed to write config file", err)
	}
	return nil
}

// update applies fn under the write lock and saves the result.
func (m *ConfigManager) update(fn func(c *types.Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.config)
	return m.saveLocked()
}

// GetConfig returns a copy of the current configuration.
func (m *ConfigManager) GetConfig() types.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := *m.config
	c.RecentFiles = append([]types.RecentFileItem(nil), m.config.RecentFiles...)
	return c
}

// GetConfigPath returns the path to the config file.
func (m *ConfigManager) GetConfigPath() string {
	return m.configPath
}

// GetLocale resolves the interface language. FORMULA_EDITOR_LOCALE wins over
// the configured value.
func (m *ConfigManager) GetLocale() *locale.Locale {
	if env := strings.TrimSpace(os.Getenv(EnvLocale)); env != "" {
		return locale.Parse(env)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return locale.Parse(m.config.Locale)
}

// SetLocale stores the interface language and saves the configuration.
func (m *ConfigManager) SetLocale(code string) error {
	resolved := locale.Parse(code).Code()
	return m.update(func(c *types.Config) { c.Locale = resolved })
}

// GetLastDirectory returns the directory of the last opened or saved file.
func (m *ConfigManager) GetLastDirectory() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.LastDirectory
}

// AddRecentFile records path as the most recently used document of the given
// kind. An existing entry for the same path moves to the front, and the
// history is capped at MaxRecentFiles. The file's directory becomes the last
// directory.
func (m *ConfigManager) AddRecentFile(path string, kind types.DocumentKind) error {
	if path == "" {
		return nil
	}
	item := types.RecentFileItem{
		Path:      path,
		Timestamp: m.now().UnixMilli(),
		Kind:      kind,
	}

	return m.update(func(c *types.Config) {
		files := make([]types.RecentFileItem, 0, MaxRecentFiles)
		files = append(files, item)
		for _, f := range c.RecentFiles {
			if f.Path == path {
				continue
			}
			if len(files) == MaxRecentFiles {
				break
			}
			files = append(files, f)
		}
		c.RecentFiles = files
		c.LastDirectory = filepath.Dir(path)
	})
}

// GetRecentFiles returns the recent file history, newest first.
func (m *ConfigManager) GetRecentFiles() []types.RecentFileItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.RecentFileItem{}, m.config.RecentFiles...)
}

// ClearRecentFiles empties the history and saves the configuration.
func (m *ConfigManager) ClearRecentFiles() error {
	logger.Info("clearing recent files")
	return m.update(func(c *types.Config) { c.RecentFiles = []types.RecentFileItem{} })
}

// GetBoundTemplatePath returns the bound template library file, or "".
func (m *ConfigManager) GetBoundTemplatePath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.BoundTemplatePath
}

// SetBoundTemplatePath binds a template library file; "" unbinds it.
func (m *ConfigManager) SetBoundTemplatePath(path string) error {
	return m.update(func(c *types.Config) { c.BoundTemplatePath = path })
}

// WatchTemplates reports whether the bound library is reloaded on change.
func (m *ConfigManager) WatchTemplates() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.WatchTemplates
}

// BackupPolicy returns whether saves back up the replaced file and how many
// backups are kept.
func (m *ConfigManager) BackupPolicy() (bool, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.BackupOnSave, m.config.MaxBackups
}
