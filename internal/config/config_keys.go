// config_keys.go provides key-value access to configuration settings.
//
// Separated from config.go to isolate the key enumeration and string-based
// get/set logic. This separation allows config.go to focus on YAML structure
// and loading, while this file handles the MCP and CLI interface where config
// is accessed by string keys (e.g., "search.provider_timeout").
//
// Design: Pointers are used for optional fields so we can distinguish between
// "not set" (nil) and "explicitly set to zero/false". This enables proper
// defaulting - we only apply defaults when the user hasn't set a value.
// Key binding overrides live under the dynamic "keys." prefix.

package config

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/jpl-au/dock/extension"
)

const keysPrefix = "keys."

// ValidKeys returns all fixed configuration keys.
func ValidKeys() []string {
	return []string{
		"host.dev_mode", "host.strict_capabilities", "host.user_agent", "host.log_level",
		"search.provider_timeout", "search.debounce", "search.max_results", "search.categories",
		"lifecycle.hook_timeout",
		"storage.dir",
	}
}

// IsValidKey returns true if the key is a valid configuration key.
func IsValidKey(key string) bool {
	if b, ok := strings.CutPrefix(key, keysPrefix); ok {
		return strings.Contains(b, "/")
	}
	return slices.Contains(ValidKeys(), key)
}

// Get returns the value of a configuration key as a string.
func (c *Config) Get(key string) (string, error) {
	if b, ok := strings.CutPrefix(key, keysPrefix); ok {
		if !strings.Contains(b, "/") {
			return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		return c.Keys[b], nil
	}
	switch key {
	case "host.dev_mode":
		return strconv.FormatBool(c.DevMode()), nil
	case "host.strict_capabilities":
		return strconv.FormatBool(c.StrictCapabilities()), nil
	case "host.user_agent":
		return c.UserAgent(), nil
	case "host.log_level":
		return c.LogLevel(), nil
	case "search.provider_timeout":
		return c.ProviderTimeout().String(), nil
	case "search.debounce":
		return c.Debounce().String(), nil
	case "search.max_results":
		return strconv.Itoa(c.MaxResults()), nil
	case "search.categories":
		return strings.Join(c.Categories(), ","), nil
	case "lifecycle.hook_timeout":
		return c.HookTimeout().String(), nil
	case "storage.dir":
		return c.StorageDir(), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
}

func parseBool(key, value string) (*bool, error) {
	v := strings.ToLower(value)
	if v != "true" && v != "false" {
		return nil, fmt.Errorf("%w: %s must be true or false", ErrInvalidValue, key)
	}
	b := v == "true"
	return &b, nil
}

// Set sets the value of a configuration key. The whole configuration is
// validated afterwards and the change is undone if it is out of bounds.
func (c *Config) Set(key, value string) error {
	prev := c.clone()
	if err := c.set(key, value); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		*c = prev
		return err
	}
	return nil
}

func (c *Config) set(key, value string) error {
	if b, ok := strings.CutPrefix(key, keysPrefix); ok {
		if !strings.Contains(b, "/") {
			return fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		if value == "" {
			delete(c.Keys, b)
			return nil
		}
		if _, err := extension.ParseChord(value); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
		}
		if c.Keys == nil {
			c.Keys = make(map[string]string)
		}
		c.Keys[b] = value
		return nil
	}

	switch key {
	case "host.dev_mode":
		b, err := parseBool(key, value)
		if err != nil {
			return err
		}
		c.Host.DevMode = b
	case "host.strict_capabilities":
		b, err := parseBool(key, value)
		if err != nil {
			return err
		}
		c.Host.StrictCapabilities = b
	case "host.user_agent":
		c.Host.UserAgent = value
	case "host.log_level":
		c.Host.LogLevel = strings.ToLower(value)
	case "search.provider_timeout":
		c.Search.ProviderTimeout = &value
	case "search.debounce":
		c.Search.Debounce = &value
	case "search.max_results":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: search.max_results must be an integer", ErrInvalidValue)
		}
		c.Search.MaxResults = &n
	case "search.categories":
		var cats []string
		for _, s := range strings.Split(value, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cats = append(cats, s)
			}
		}
		c.Search.Categories = cats
	case "lifecycle.hook_timeout":
		c.Lifecycle.HookTimeout = &value
	case "storage.dir":
		c.Storage.Dir = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

func (c *Config) clone() Config {
	cp := *c
	cp.Keys = maps.Clone(c.Keys)
	cp.Search.Categories = slices.Clone(c.Search.Categories)
	return cp
}

// All returns all configuration values as a map, including key overrides.
func (c *Config) All() map[string]string {
	out := make(map[string]string)
	for _, k := range ValidKeys() {
		v, _ := c.Get(k)
		out[k] = v
	}
	for k, v := range c.Keys {
		out[keysPrefix+k] = v
	}
	return out
}

// IsSet returns true if the key has an explicit value (not just defaults).
func (c *Config) IsSet(key string) bool {
	if b, ok := strings.CutPrefix(key, keysPrefix); ok {
		_, set := c.Keys[b]
		return set
	}
	switch key {
	case "host.dev_mode":
		return c.Host.DevMode != nil
	case "host.strict_capabilities":
		return c.Host.StrictCapabilities != nil
	case "host.user_agent":
		return c.Host.UserAgent != ""
	case "host.log_level":
		return c.Host.LogLevel != ""
	case "search.provider_timeout":
		return c.Search.ProviderTimeout != nil
	case "search.debounce":
		return c.Search.Debounce != nil
	case "search.max_results":
		return c.Search.MaxResults != nil
	case "search.categories":
		return len(c.Search.Categories) > 0
	case "lifecycle.hook_timeout":
		return c.Lifecycle.HookTimeout != nil
	case "storage.dir":
		return c.Storage.Dir != ""
	default:
		return false
	}
}
