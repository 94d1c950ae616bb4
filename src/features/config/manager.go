package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Manager holds the application configuration and provides thread-safe access to it.
type Manager struct {
	mu     sync.RWMutex
	config *Config
	path   string // file the config was loaded from, empty when built in memory
}

// NewManager creates a new ConfigManager.
func NewManager(config *Config) *Manager {
	return &Manager{config: config}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Path returns the file the configuration was loaded from.
func (m *Manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// SetAutoAdvance toggles playback auto-advance and persists the change when the
// configuration came from a file.
func (m *Manager) SetAutoAdvance(enabled bool) (*Config, error) {
	updated := *m.Get()
	updated.Playback.AutoAdvance = enabled
	m.Update(&updated)
	if path := m.Path(); path != "" {
		if err := m.Save(path); err != nil {
			return &updated, fmt.Errorf("failed to persist config: %w", err)
		}
	}
	return &updated, nil
}

// Update updates the configuration.
func (m *Manager) Update(config *Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldConfig := m.config
	m.config = config

	if oldConfig != nil {
		slog.Debug("Configuration updated",
			"library_path_changed", oldConfig.LibraryPath != config.LibraryPath,
			"profile_path_changed", oldConfig.Equalizer.ProfilePath != config.Equalizer.ProfilePath,
			"auto_advance_changed", oldConfig.Playback.AutoAdvance != config.Playback.AutoAdvance,
		)
	}
}

// Save writes the current configuration to the specified file path.
func (m *Manager) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, err := os.Create(path)
	if err != nil {
		slog.Error("failed to create config file", "path", path, "error", err)
		return err
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(m.config); err != nil {
		slog.Error("failed to encode config", "path", path, "error", err)
		return err
	}

	slog.Info("Configuration saved successfully", "path", path)
	return nil
}

// EnsureDirectories creates the library directory and the parents of the
// profile and database files.
func (m *Manager) EnsureDirectories() error {
	cfg := m.Get()

	if err := os.MkdirAll(cfg.LibraryPath, 0755); err != nil {
		return fmt.Errorf("failed to create library directory %s: %w", cfg.LibraryPath, err)
	}
	for _, file := range []string{cfg.Equalizer.ProfilePath, cfg.Database.Path} {
		if file == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", file, err)
		}
	}

	slog.Info("Required directories created/verified", "library", cfg.LibraryPath)
	return nil
}

// redactedCfg gets a redacted copy of the Config
func (m *Manager) redactedCfg() Config {
	cfgCpy := *m.config
	if cfgCpy.Telegram.Token != "" {
		cfgCpy.Telegram.Token = "<redacted>"
	}
	return cfgCpy
}

// GetJSON returns the current configuration as a JSON string.
func (m *Manager) GetJSON() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jsonBytes, err := json.Marshal(m.redactedCfg())
	if err != nil {
		slog.Error("failed to marshal config to JSON", "error", err)
		return err.Error()
	}
	return string(jsonBytes)
}

func (m *Manager) GetYAML() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	yamlBytes, err := yaml.Marshal(m.redactedCfg())
	if err != nil {
		slog.Error("failed to marshal config to YAML", "error", err)
		return err.Error()
	}
	return string(yamlBytes)
}
