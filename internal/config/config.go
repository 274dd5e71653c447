// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/olla-cli/internal/util"
)

// =============================================================================
// CONFIG TYPES
// =============================================================================

// Config is the root configuration for olla. It is persisted as YAML at
// ~/.olla/config.yaml with 0600 permissions.
type Config struct {
	Version string `yaml:"version" json:"version"`

	Model  ModelConfig  `yaml:"model" json:"model"`
	Server ServerConfig `yaml:"server" json:"server"`
	Output OutputConfig `yaml:"output" json:"output"`
	Chat   ChatConfig   `yaml:"chat" json:"chat"`
}

// ModelConfig controls which model is used and how it samples.
type ModelConfig struct {
	Name          string  `yaml:"name" json:"name"`
	Temperature   float64 `yaml:"temperature" json:"temperature"`
	ContextLength int     `yaml:"context_length" json:"context_length"`
}

// ServerConfig points at the Ollama HTTP endpoint.
type ServerConfig struct {
	URL         string `yaml:"url" json:"url"`
	TimeoutSecs int    `yaml:"timeout_secs" json:"timeout_secs"`
}

// OutputConfig controls terminal rendering.
type OutputConfig struct {
	Theme           string `yaml:"theme" json:"theme"`
	Color           bool   `yaml:"color" json:"color"`
	SyntaxHighlight bool   `yaml:"syntax_highlight" json:"syntax_highlight"`
	Stream          bool   `yaml:"stream" json:"stream"`
}

// ChatConfig controls the interactive chat mode and session storage.
type ChatConfig struct {
	HistoryLimit int `yaml:"history_limit" json:"history_limit"`
	MaxSessions  int `yaml:"max_sessions" json:"max_sessions"`
}

// CurrentVersion is written into new config files so later releases can
// migrate old layouts.
const CurrentVersion = "1"

// ValidThemes are the accepted values for output.theme.
var ValidThemes = []string{"dark", "light", "minimal"}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Model: ModelConfig{
			Name:          "llama3.2",
			Temperature:   0.7,
			ContextLength: 4096,
		},
		Server: ServerConfig{
			URL:         "http://localhost:11434",
			TimeoutSecs: 120,
		},
		Output: OutputConfig{
			Theme:           "dark",
			Color:           true,
			SyntaxHighlight: true,
			Stream:          true,
		},
		Chat: ChatConfig{
			HistoryLimit: 50,
			MaxSessions:  100,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the olla configuration directory (~/.olla), creating it
// with owner-only permissions if missing.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	dir := filepath.Join(home, ".olla")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// ConfigPath returns the path to the YAML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// legacyTOMLPath returns the pre-YAML config location used by old releases.
func legacyTOMLPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// SessionsDir returns the directory holding persisted chat sessions.
func SessionsDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sessions"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the configuration from disk. Missing file yields defaults.
// A legacy TOML config is migrated to YAML on first load. Environment
// overrides are applied after the file is read, then the result is validated.
func Load() (*Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads the configuration file without environment overrides.
// Use this when the result will be written back, so transient env values
// never end up persisted.
func LoadFile() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		ensureSecurePermissions(path)

	case os.IsNotExist(err):
		migrated, migErr := migrateLegacyTOML(cfg)
		if migErr != nil {
			return nil, migErr
		}
		if migrated {
			if err := Save(cfg); err != nil {
				return nil, fmt.Errorf("failed to write migrated config: %w", err)
			}
		}

	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg.fillDefaults()
	return cfg, nil
}

// migrateLegacyTOML reads an old config.toml into cfg if one exists.
// Returns true when a migration happened.
func migrateLegacyTOML(cfg *Config) (bool, error) {
	path, err := legacyTOMLPath()
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read legacy config %s: %w", path, err)
	}

	// Legacy files were flat key/value TOML.
	var legacy struct {
		Model         string  `toml:"model"`
		Temperature   float64 `toml:"temperature"`
		ContextLength int     `toml:"context_length"`
		APIURL        string  `toml:"api_url"`
		Theme         string  `toml:"theme"`
	}
	if err := toml.Unmarshal(data, &legacy); err != nil {
		return false, fmt.Errorf("failed to parse legacy config %s: %w", path, err)
	}

	if legacy.Model != "" {
		cfg.Model.Name = legacy.Model
	}
	if legacy.Temperature != 0 {
		cfg.Model.Temperature = legacy.Temperature
	}
	if legacy.ContextLength != 0 {
		cfg.Model.ContextLength = legacy.ContextLength
	}
	if legacy.APIURL != "" {
		cfg.Server.URL = legacy.APIURL
	}
	if legacy.Theme != "" {
		cfg.Output.Theme = legacy.Theme
	}
	return true, nil
}

// Save writes the configuration as YAML, atomically, with 0600 permissions.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	header := []byte("# olla configuration\n# Edit by hand or use: olla config set <key> <value>\n\n")
	return util.AtomicWriteFileWithDir(path, append(header, data...), 0o600, 0o700)
}

// ensureSecurePermissions tightens a config file that was created or edited
// with looser permissions. The file may hold server URLs for private hosts.
func ensureSecurePermissions(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.Mode().Perm() != 0o600 {
		os.Chmod(path, 0o600)
	}
}

// fillDefaults replaces zero values with defaults so a hand-edited partial
// file still produces a usable config. Fields where zero is a meaningful
// setting (temperature 0 is deterministic sampling) must not appear here;
// LoadFile already unmarshals over Default(), so absent keys keep their
// defaults without this pass.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Version == "" {
		c.Version = def.Version
	}
	if c.Model.Name == "" {
		c.Model.Name = def.Model.Name
	}
	if c.Model.ContextLength == 0 {
		c.Model.ContextLength = def.Model.ContextLength
	}
	if c.Server.URL == "" {
		c.Server.URL = def.Server.URL
	}
	if c.Server.TimeoutSecs == 0 {
		c.Server.TimeoutSecs = def.Server.TimeoutSecs
	}
	if c.Output.Theme == "" {
		c.Output.Theme = def.Output.Theme
	}
	if c.Chat.HistoryLimit == 0 {
		c.Chat.HistoryLimit = def.Chat.HistoryLimit
	}
	if c.Chat.MaxSessions == 0 {
		c.Chat.MaxSessions = def.Chat.MaxSessions
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// Environment variables recognized by ApplyEnvOverrides.
const (
	EnvModel       = "OLLA_MODEL"
	EnvTemperature = "OLLA_TEMPERATURE"
	EnvAPIURL      = "OLLA_API_URL"
	EnvTheme       = "OLLA_THEME"
	EnvNoColor     = "OLLA_NO_COLOR"
)

// ApplyEnvOverrides applies environment variables on top of file values.
// Invalid numeric values are ignored rather than fatal so a bad shell export
// cannot brick every invocation; Validate still catches out-of-range results.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv(EnvModel); v != "" {
		c.Model.Name = v
	}
	if v := os.Getenv(EnvTemperature); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			c.Model.Temperature = t
		}
	}
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv(EnvTheme); v != "" {
		c.Output.Theme = v
	}
	// NO_COLOR is the cross-tool convention (https://no-color.org/);
	// OLLA_NO_COLOR is the project-scoped equivalent.
	if os.Getenv("NO_COLOR") != "" || os.Getenv(EnvNoColor) != "" {
		c.Output.Color = false
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError reports a single invalid config field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidateErrors collects every violation so the user can fix a broken file
// in one pass.
type ValidateErrors []*ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks field ranges. Returns a ValidateErrors listing every
// violation, or nil.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Model.Name == "" {
		errs = append(errs, &ValidationError{"model.name", "must not be empty"})
	}
	if c.Model.Temperature < 0.0 || c.Model.Temperature > 1.0 {
		errs = append(errs, &ValidationError{"model.temperature",
			fmt.Sprintf("must be between 0.0 and 1.0, got %g", c.Model.Temperature)})
	}
	if c.Model.ContextLength <= 0 {
		errs = append(errs, &ValidationError{"model.context_length",
			fmt.Sprintf("must be positive, got %d", c.Model.ContextLength)})
	}
	if !strings.HasPrefix(c.Server.URL, "http://") && !strings.HasPrefix(c.Server.URL, "https://") {
		errs = append(errs, &ValidationError{"server.url",
			fmt.Sprintf("must start with http:// or https://, got %q", c.Server.URL)})
	}
	if c.Server.TimeoutSecs <= 0 {
		errs = append(errs, &ValidationError{"server.timeout_secs",
			fmt.Sprintf("must be positive, got %d", c.Server.TimeoutSecs)})
	}
	if !isValidTheme(c.Output.Theme) {
		errs = append(errs, &ValidationError{"output.theme",
			fmt.Sprintf("must be one of %s, got %q", strings.Join(ValidThemes, ", "), c.Output.Theme)})
	}
	if c.Chat.HistoryLimit <= 0 {
		errs = append(errs, &ValidationError{"chat.history_limit",
			fmt.Sprintf("must be positive, got %d", c.Chat.HistoryLimit)})
	}
	if c.Chat.MaxSessions <= 0 {
		errs = append(errs, &ValidationError{"chat.max_sessions",
			fmt.Sprintf("must be positive, got %d", c.Chat.MaxSessions)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func isValidTheme(theme string) bool {
	for _, t := range ValidThemes {
		if theme == t {
			return true
		}
	}
	return false
}

// =============================================================================
// KEY ACCESS
// =============================================================================

// Set assigns a value by dot-notation key ("model.temperature"). Underscore
// shortcuts from the old flat layout are also accepted ("temperature",
// "api_url"). Values are coerced to the field's type; coercion failures and
// unknown keys are errors.
func (c *Config) Set(key, value string) error {
	switch normalizeKey(key) {
	case "model.name":
		c.Model.Name = value
	case "model.temperature":
		t, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return &ValidationError{"model.temperature", fmt.Sprintf("not a number: %q", value)}
		}
		c.Model.Temperature = t
	case "model.context_length":
		n, err := strconv.Atoi(value)
		if err != nil {
			return &ValidationError{"model.context_length", fmt.Sprintf("not an integer: %q", value)}
		}
		c.Model.ContextLength = n
	case "server.url":
		c.Server.URL = value
	case "server.timeout_secs":
		n, err := strconv.Atoi(value)
		if err != nil {
			return &ValidationError{"server.timeout_secs", fmt.Sprintf("not an integer: %q", value)}
		}
		c.Server.TimeoutSecs = n
	case "output.theme":
		c.Output.Theme = strings.ToLower(value)
	case "output.color":
		c.Output.Color = parseBool(value)
	case "output.syntax_highlight":
		c.Output.SyntaxHighlight = parseBool(value)
	case "output.stream":
		c.Output.Stream = parseBool(value)
	case "chat.history_limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return &ValidationError{"chat.history_limit", fmt.Sprintf("not an integer: %q", value)}
		}
		c.Chat.HistoryLimit = n
	case "chat.max_sessions":
		n, err := strconv.Atoi(value)
		if err != nil {
			return &ValidationError{"chat.max_sessions", fmt.Sprintf("not an integer: %q", value)}
		}
		c.Chat.MaxSessions = n
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// Get returns a value by dot-notation key as a display string.
func (c *Config) Get(key string) (string, error) {
	switch normalizeKey(key) {
	case "model.name":
		return c.Model.Name, nil
	case "model.temperature":
		return strconv.FormatFloat(c.Model.Temperature, 'f', -1, 64), nil
	case "model.context_length":
		return strconv.Itoa(c.Model.ContextLength), nil
	case "server.url":
		return c.Server.URL, nil
	case "server.timeout_secs":
		return strconv.Itoa(c.Server.TimeoutSecs), nil
	case "output.theme":
		return c.Output.Theme, nil
	case "output.color":
		return strconv.FormatBool(c.Output.Color), nil
	case "output.syntax_highlight":
		return strconv.FormatBool(c.Output.SyntaxHighlight), nil
	case "output.stream":
		return strconv.FormatBool(c.Output.Stream), nil
	case "chat.history_limit":
		return strconv.Itoa(c.Chat.HistoryLimit), nil
	case "chat.max_sessions":
		return strconv.Itoa(c.Chat.MaxSessions), nil
	}
	return "", fmt.Errorf("unknown config key: %s", key)
}

// normalizeKey maps shortcut names onto their dot-notation form.
func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	switch key {
	case "model":
		return "model.name"
	case "temperature":
		return "model.temperature"
	case "context_length", "context-length":
		return "model.context_length"
	case "api_url", "api-url", "url":
		return "server.url"
	case "timeout", "timeout_secs":
		return "server.timeout_secs"
	case "theme":
		return "output.theme"
	case "color":
		return "output.color"
	case "syntax_highlight", "syntax-highlight":
		return "output.syntax_highlight"
	case "stream":
		return "output.stream"
	case "history_limit":
		return "chat.history_limit"
	case "max_sessions":
		return "chat.max_sessions"
	}
	return key
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on":
		return true
	}
	return false
}

// =============================================================================
// GLOBAL ACCESS
// =============================================================================

var (
	globalMu  sync.RWMutex
	globalCfg *Config
)

// Global returns the process-wide config, loading it on first access. Load
// failures fall back to defaults; command handlers that need to distinguish
// a broken file call Load directly.
func Global() *Config {
	globalMu.RLock()
	if globalCfg != nil {
		defer globalMu.RUnlock()
		return globalCfg
	}
	globalMu.RUnlock()

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalCfg == nil {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
			cfg.ApplyEnvOverrides()
		}
		globalCfg = cfg
	}
	return globalCfg
}

// SetGlobal replaces the process-wide config.
func SetGlobal(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalCfg = cfg
}

// ReloadGlobal re-reads the config file and swaps the global on success.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// ResetGlobalForTesting clears the cached global. Tests only.
func ResetGlobalForTesting() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalCfg = nil
}
