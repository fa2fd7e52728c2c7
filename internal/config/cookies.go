package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	apierrors "github.com/diogo/chatwidget/internal/errors"
)

// Cookies holds the site cookies sent with chat requests, typically the
// session cookie and the anti-forgery token cookie
type Cookies struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewCookies creates a cookie set from name/value pairs
func NewCookies(values map[string]string) *Cookies {
	c := &Cookies{values: make(map[string]string, len(values))}
	for k, v := range values {
		c.values[k] = v
	}
	return c
}

// Get returns a cookie value, or "" when absent
func (c *Cookies) Get(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[name]
}

// Set stores a cookie value
func (c *Cookies) Set(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil {
		c.values = make(map[string]string)
	}
	c.values[name] = value
}

// Len returns the number of cookies
func (c *Cookies) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// ToMap returns a copy of the cookies (thread-safe)
func (c *Cookies) ToMap() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m := make(map[string]string, len(c.values))
	for k, v := range c.values {
		m[k] = v
	}
	return m
}

// Names returns the cookie names, sorted
func (c *Cookies) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.values))
	for k := range c.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// CookieListItem represents a cookie in browser export format
type CookieListItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LoadCookies loads cookies from the cookies file. A missing file yields
// ErrNoCookies.
func LoadCookies() (*Cookies, error) {
	cookiesPath, err := GetCookiesPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(cookiesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apierrors.ErrNoCookies
		}
		return nil, fmt.Errorf("failed to read cookies file: %w", err)
	}

	return parseCookies(data)
}

// parseCookies parses cookies from JSON data.
// Supports both list format [{name, value}] and dict format {name: value}
func parseCookies(data []byte) (*Cookies, error) {
	var dictFormat map[string]string
	if err := json.Unmarshal(data, &dictFormat); err == nil {
		if len(dictFormat) == 0 {
			return nil, fmt.Errorf("cookies file contains no cookies")
		}
		return NewCookies(dictFormat), nil
	}

	var listFormat []CookieListItem
	if err := json.Unmarshal(data, &listFormat); err == nil {
		cookies := NewCookies(nil)
		for _, item := range listFormat {
			if item.Name != "" {
				cookies.Set(item.Name, item.Value)
			}
		}
		if cookies.Len() == 0 {
			return nil, fmt.Errorf("cookies file contains no cookies")
		}
		return cookies, nil
	}

	return nil, fmt.Errorf("invalid cookies format: expected list [{name, value}] or dict {name: value}")
}

// SaveCookies saves cookies to the cookies file
func SaveCookies(cookies *Cookies) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	cookiesPath := filepath.Join(configDir, "cookies.json")

	// List format, sorted by name so the file is stable
	values := cookies.ToMap()
	listFormat := make([]CookieListItem, 0, len(values))
	for _, name := range cookies.Names() {
		listFormat = append(listFormat, CookieListItem{Name: name, Value: values[name]})
	}

	data, err := json.MarshalIndent(listFormat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}

	if err := os.WriteFile(cookiesPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write cookies file: %w", err)
	}

	return nil
}

// ImportCookies imports cookies from a source file and returns them
func ImportCookies(sourcePath string) (*Cookies, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("source file not found: %s", sourcePath)
		}
		return nil, fmt.Errorf("could not read file: %w", err)
	}

	cookies, err := parseCookies(data)
	if err != nil {
		return nil, err
	}

	if err := SaveCookies(cookies); err != nil {
		return nil, err
	}
	return cookies, nil
}
