// Package config handles configuration and cookie management for chatwidget.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/diogo/chatwidget/internal/models"
)

// Config represents the user configuration. Values are read from
// config.json and then overridden by CHATWIDGET_* environment variables.
type Config struct {
	// BaseURL is the scheme and host serving the chat endpoint
	BaseURL      string `json:"base_url" env:"CHATWIDGET_BASE_URL"`
	EndpointPath string `json:"endpoint_path" env:"CHATWIDGET_ENDPOINT"`

	CSRFCookieName string `json:"csrf_cookie_name" env:"CHATWIDGET_CSRF_COOKIE"`
	CSRFHeader     string `json:"csrf_header" env:"CHATWIDGET_CSRF_HEADER"`

	// RequestTimeout is in seconds; 0 waits for the server indefinitely
	RequestTimeout int `json:"request_timeout" env:"CHATWIDGET_REQUEST_TIMEOUT"`
	// ClientProfile selects the TLS client profile used by the HTTP transport
	ClientProfile string `json:"client_profile" env:"CHATWIDGET_CLIENT_PROFILE"`

	TUITheme       string `json:"tui_theme,omitempty" env:"CHATWIDGET_TUI_THEME"`
	MaxInputHeight int    `json:"max_input_height" env:"CHATWIDGET_MAX_INPUT_HEIGHT"`
	// RawOutput embeds reply text without stripping terminal escape sequences
	RawOutput       bool `json:"raw_output" env:"CHATWIDGET_RAW_OUTPUT"`
	CopyToClipboard bool `json:"copy_to_clipboard" env:"CHATWIDGET_COPY_TO_CLIPBOARD"`
	Verbose         bool `json:"verbose" env:"CHATWIDGET_VERBOSE"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:         models.DefaultBaseURL,
		EndpointPath:    models.EndpointChat,
		CSRFCookieName:  models.DefaultCSRFCookie,
		CSRFHeader:      models.DefaultCSRFHeader,
		RequestTimeout:  0,
		ClientProfile:   "chrome_120",
		TUITheme:        "tokyonight",
		MaxInputHeight:  models.DefaultInputMaxRows,
		RawOutput:       false,
		CopyToClipboard: false,
		Verbose:         false,
	}
}

// Timeout returns RequestTimeout as a duration
func (c Config) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return 0
	}
	return time.Duration(c.RequestTimeout) * time.Second
}

// EndpointURL joins BaseURL and EndpointPath
func (c Config) EndpointURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(c.EndpointPath, "/")
}

// Validate checks the values that the client cannot work without
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base_url must start with http:// or https://: %s", c.BaseURL)
	}
	if c.EndpointPath == "" {
		return fmt.Errorf("endpoint_path is required")
	}
	if c.MaxInputHeight < 1 {
		return fmt.Errorf("max_input_height must be at least 1, got %d", c.MaxInputHeight)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout cannot be negative, got %d", c.RequestTimeout)
	}
	return nil
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".chatwidget"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the directory holds session cookies
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetCookiesPath returns the path to the cookies file
func GetCookiesPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "cookies.json"), nil
}

// GetLogPath returns the default log file path
func GetLogPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "chatwidget.log"), nil
}

// LoadConfig loads the configuration from disk and applies environment overrides
func LoadConfig() (Config, error) {
	cfg, err := LoadConfigFile()
	if err != nil {
		return cfg, err
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse environment: %w", err)
	}

	return cfg, nil
}

// LoadConfigFile loads config.json over the defaults, ignoring the environment
func LoadConfigFile() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setters maps config.json keys to functions applying a string value
var setters = map[string]func(*Config, string) error{
	"base_url":          func(c *Config, v string) error { c.BaseURL = v; return nil },
	"endpoint_path":     func(c *Config, v string) error { c.EndpointPath = v; return nil },
	"csrf_cookie_name":  func(c *Config, v string) error { c.CSRFCookieName = v; return nil },
	"csrf_header":       func(c *Config, v string) error { c.CSRFHeader = v; return nil },
	"client_profile":    func(c *Config, v string) error { c.ClientProfile = v; return nil },
	"tui_theme":         func(c *Config, v string) error { c.TUITheme = v; return nil },
	"request_timeout":   intSetter(func(c *Config) *int { return &c.RequestTimeout }),
	"max_input_height":  intSetter(func(c *Config) *int { return &c.MaxInputHeight }),
	"raw_output":        boolSetter(func(c *Config) *bool { return &c.RawOutput }),
	"copy_to_clipboard": boolSetter(func(c *Config) *bool { return &c.CopyToClipboard }),
	"verbose":           boolSetter(func(c *Config) *bool { return &c.Verbose }),
}

func intSetter(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("expected an integer, got %q", v)
		}
		*field(c) = n
		return nil
	}
}

func boolSetter(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", v)
		}
		*field(c) = b
		return nil
	}
}

// Keys returns the settable configuration keys, sorted
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set applies a string value to the named key and validates the result
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s (valid keys: %s)", key, strings.Join(Keys(), ", "))
	}

	updated := *c
	if err := set(&updated, value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := updated.Validate(); err != nil {
		return err
	}

	*c = updated
	return nil
}
