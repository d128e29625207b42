// Package config provides reading and writing of dock configuration.
// Supports both global (~/.dock/config.yaml) and local (.dock/config.yaml).
// Reading: uses local if it exists, otherwise global.
// Writing: defaults to global, use --local for local.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jpl-au/dock/internal/duration"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNoConfigPath is returned when the config path cannot be determined.
	ErrNoConfigPath = errors.New("cannot determine config path")
	// ErrUnknownKey is returned when getting/setting an unknown config key.
	ErrUnknownKey = errors.New("unknown config key")
	// ErrInvalidValue is returned when a config value is invalid.
	ErrInvalidValue = errors.New("invalid config value")
)

// Scope represents the configuration scope (global or local).
type Scope int

const (
	// ScopeGlobal is user-wide config in ~/.dock/config.yaml (default)
	ScopeGlobal Scope = iota
	// ScopeLocal is directory-specific config in .dock/config.yaml
	ScopeLocal
)

// Host holds host-wide options.
type Host struct {
	DevMode            *bool  `yaml:"dev_mode,omitempty"`
	StrictCapabilities *bool  `yaml:"strict_capabilities,omitempty"`
	UserAgent          string `yaml:"user_agent,omitempty"`
	LogLevel           string `yaml:"log_level,omitempty"`
}

// Search holds command palette options.
type Search struct {
	ProviderTimeout *string  `yaml:"provider_timeout,omitempty"`
	Debounce        *string  `yaml:"debounce,omitempty"`
	MaxResults      *int     `yaml:"max_results,omitempty"`
	Categories      []string `yaml:"categories,omitempty"`
}

// Lifecycle holds lifecycle options.
type Lifecycle struct {
	HookTimeout *string `yaml:"hook_timeout,omitempty"`
}

// Storage holds dock storage options.
type Storage struct {
	Dir string `yaml:"dir,omitempty"`
}

// Defaults applied when not configured.
const (
	DefaultProviderTimeout = 50 * time.Millisecond
	DefaultDebounce        = 50 * time.Millisecond
	DefaultMaxResults      = 10
	DefaultHookTimeout     = 2 * time.Second
	DefaultLogLevel        = "warning"
)

// Validation bounds for configuration values.
const (
	MinProviderTimeout = time.Millisecond
	MaxProviderTimeout = 10 * time.Second
	MaxDebounce        = 5 * time.Second
	MinMaxResults      = 1
	MaxMaxResults      = 100
	MinHookTimeout     = 10 * time.Millisecond
	MaxHookTimeout     = time.Minute
)

// Config contains configuration for dock.
type Config struct {
	Host      Host      `yaml:"host,omitempty"`
	Search    Search    `yaml:"search,omitempty"`
	Lifecycle Lifecycle `yaml:"lifecycle,omitempty"`
	Storage   Storage   `yaml:"storage,omitempty"`

	// Keys overrides key binding chords, keyed by "dock-id/binding-id".
	Keys map[string]string `yaml:"keys,omitempty"`

	// path is the file this config was loaded from (for Save)
	path  string
	scope Scope
}

func checkDuration(name string, s *string, lo, hi time.Duration) error {
	if s == nil {
		return nil
	}
	d, err := duration.Parse(*s)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, name, err)
	}
	if d < lo || d > hi {
		return fmt.Errorf("%w: %s must be between %s and %s, got %s",
			ErrInvalidValue, name, lo, hi, d)
	}
	return nil
}

// Validate checks that all configured values are within acceptable bounds.
// Returns nil if all values are valid or not set (defaults will be used).
func (c *Config) Validate() error {
	if err := checkDuration("search.provider_timeout", c.Search.ProviderTimeout, MinProviderTimeout, MaxProviderTimeout); err != nil {
		return err
	}
	if err := checkDuration("search.debounce", c.Search.Debounce, 0, MaxDebounce); err != nil {
		return err
	}
	if err := checkDuration("lifecycle.hook_timeout", c.Lifecycle.HookTimeout, MinHookTimeout, MaxHookTimeout); err != nil {
		return err
	}
	if c.Search.MaxResults != nil {
		v := *c.Search.MaxResults
		if v < MinMaxResults || v > MaxMaxResults {
			return fmt.Errorf("%w: search.max_results must be between %d and %d, got %d",
				ErrInvalidValue, MinMaxResults, MaxMaxResults, v)
		}
	}
	if l := c.Host.LogLevel; l != "" && !validLevel(l) {
		return fmt.Errorf("%w: host.log_level must be debug, info, warning or error, got %q",
			ErrInvalidValue, l)
	}
	for k := range c.Keys {
		if !strings.Contains(k, "/") {
			return fmt.Errorf("%w: key binding %q must be dock-id/binding-id", ErrInvalidValue, k)
		}
	}
	return nil
}

func validLevel(s string) bool {
	switch strings.ToLower(s) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func durationOr(p *string, def time.Duration) time.Duration {
	if p == nil {
		return def
	}
	d, err := duration.Parse(*p)
	if err != nil {
		return def
	}
	return d
}

// DevMode returns whether developer mode is on (defaults to false).
func (c *Config) DevMode() bool {
	return boolOr(c.Host.DevMode, false)
}

// StrictCapabilities returns whether docks are denied services they did not
// declare (defaults to false).
func (c *Config) StrictCapabilities() bool {
	return boolOr(c.Host.StrictCapabilities, false)
}

// UserAgent returns the configured HTTP user agent, or "" for the default.
func (c *Config) UserAgent() string {
	return c.Host.UserAgent
}

// LogLevel returns the minimum level echoed to stderr (defaults to warning).
func (c *Config) LogLevel() string {
	if c.Host.LogLevel == "" {
		return DefaultLogLevel
	}
	return c.Host.LogLevel
}

// ProviderTimeout returns the per-provider search budget (defaults to 50ms).
func (c *Config) ProviderTimeout() time.Duration {
	return durationOr(c.Search.ProviderTimeout, DefaultProviderTimeout)
}

// Debounce returns the keystroke debounce delay (defaults to 50ms).
func (c *Config) Debounce() time.Duration {
	return durationOr(c.Search.Debounce, DefaultDebounce)
}

// MaxResults returns the per-provider result cap (defaults to 10).
func (c *Config) MaxResults() int {
	if c.Search.MaxResults == nil {
		return DefaultMaxResults
	}
	return *c.Search.MaxResults
}

// Categories returns the configured category order, or nil for the default.
func (c *Config) Categories() []string {
	return c.Search.Categories
}

// HookTimeout returns the lifecycle hook budget (defaults to 2s).
func (c *Config) HookTimeout() time.Duration {
	return durationOr(c.Lifecycle.HookTimeout, DefaultHookTimeout)
}

// StorageDir returns the dock storage directory. Defaults to
// ~/.dock/storage, or .dock/storage if the home directory is unknown.
func (c *Config) StorageDir() string {
	if c.Storage.Dir != "" {
		return c.Storage.Dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".dock", "storage")
	}
	return filepath.Join(home, ".dock", "storage")
}

// KeyOverride returns the chord configured for a dock's key binding.
func (c *Config) KeyOverride(dock, binding string) (string, bool) {
	v, ok := c.Keys[dock+"/"+binding]
	return v, ok
}

// LocalPath returns the path to the local config file.
func LocalPath() string {
	return filepath.Join(".dock", "config.yaml")
}

// GlobalPath returns the path to the global (user) config file: ~/.dock/config.yaml
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".dock", "config.yaml")
}

// Load reads configuration: uses local if it exists, otherwise global.
func Load() (*Config, error) {
	if _, err := os.Stat(LocalPath()); err == nil {
		return LoadScope(ScopeLocal)
	}
	return LoadScope(ScopeGlobal)
}

// LoadScope reads configuration from a specific scope.
func LoadScope(scope Scope) (*Config, error) {
	path := pathForScope(scope)
	if path == "" {
		return &Config{scope: scope}, nil
	}
	return LoadFile(path, scope)
}

// LoadFile reads configuration from an explicit path. A missing file yields
// an empty configuration.
func LoadFile(path string, scope Scope) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{path: path, scope: scope}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("malformed config file %s: %w\n\nTo fix: edit the file to correct the YAML syntax, or delete it to use defaults", path, err)
	}
	cfg.path = path
	cfg.scope = scope

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Scope returns which scope this config was loaded from.
func (c *Config) Scope() Scope {
	return c.scope
}

// Save writes the configuration to its original location.
func (c *Config) Save() error {
	if c.path == "" {
		c.path = pathForScope(c.scope)
	}
	if c.path == "" {
		return ErrNoConfigPath
	}
	return c.saveToPath(c.path)
}

// SaveScope writes the configuration to the specified scope.
func (c *Config) SaveScope(scope Scope) error {
	path := pathForScope(scope)
	if path == "" {
		return ErrNoConfigPath
	}
	return c.saveToPath(path)
}

// saveToPath writes configuration to a specific filesystem path.
// Creates parent directories as needed with mode 0755.
func (c *Config) saveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// pathForScope returns the filesystem path for a given scope.
func pathForScope(scope Scope) string {
	switch scope {
	case ScopeLocal:
		return LocalPath()
	case ScopeGlobal:
		return GlobalPath()
	default:
		return ""
	}
}
