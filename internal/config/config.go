// Package config is a key-value store backed by a YAML file.
//
// Keys are dotted paths into the document ("log.level", "snapshot.bucket").
// Values can be changed at runtime and written back with Save.
//
// Usage:
//
//	cfg, err := config.Load("hrctl.yaml")
//	if err != nil { ... }
//	dbCfg, err := cfg.Database()
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/dominicus75/testtask/internal/errs"
)

// Config holds the parsed document. It is safe for concurrent use.
type Config struct {
	path string

	mu      sync.RWMutex
	data    map[string]any
	changed bool
}

// Load reads and parses the YAML file at path. A missing, unreadable or
// malformed file is a configuration error.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfiguration, "cannot read config file "+path, err)
	}
	data := map[string]any{}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, errs.Wrap(errs.ErrKindConfiguration, "cannot parse config file "+path, err)
	}
	return New(path, data), nil
}

// New wraps data. path is where Save writes and may be empty.
func New(path string, data map[string]any) *Config {
	if data == nil {
		data = map[string]any{}
	}
	return &Config{path: path, data: data}
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string { return c.path }

// Get returns the value at key.
func (c *Config) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lookup(c.data, key)
}

// Has reports whether key is set.
func (c *Config) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Keys returns the top level keys, sorted.
func (c *Config) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns the value at key as text, def when unset.
func (c *Config) String(key, def string) string {
	v, ok := c.Get(key)
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int returns the value at key as an int, def when unset or not a number.
func (c *Config) Int(key string, def int) int {
	v, ok := c.Get(key)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case uint64:
		return int(x)
	case float64:
		return int(x)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n
		}
	}
	return def
}

// Bool returns the value at key as a bool, def when unset.
func (c *Config) Bool(key string, def bool) bool {
	v, ok := c.Get(key)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
			return b
		}
	}
	return def
}

// Duration returns the value at key parsed by time.ParseDuration; plain
// numbers are seconds.
func (c *Config) Duration(key string, def time.Duration) (time.Duration, error) {
	v, ok := c.Get(key)
	if !ok || v == nil {
		return def, nil
	}
	switch x := v.(type) {
	case int:
		return time.Duration(x) * time.Second, nil
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(x))
		if err != nil {
			return 0, errs.Wrap(errs.ErrKindConfiguration, "invalid duration for "+key, err)
		}
		return d, nil
	}
	return 0, errs.Newf(errs.ErrKindConfiguration, "invalid duration for %s: %v", key, v)
}

// StringMap returns the mapping at key with every value rendered as text.
func (c *Config) StringMap(key string) (map[string]string, error) {
	v, ok := c.Get(key)
	if !ok || v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errs.Newf(errs.ErrKindConfiguration, "%s must be a mapping", key)
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		out[k] = fmt.Sprint(val)
	}
	return out, nil
}

// Set stores v at key, creating intermediate mappings. It fails when a
// prefix of key holds a scalar.
func (c *Config) Set(key string, v any) error {
	parts, err := split(key)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	node := c.data
	for i, p := range parts[:len(parts)-1] {
		next, ok := node[p]
		if !ok || next == nil {
			m := map[string]any{}
			node[p] = m
			node = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return errs.Newf(errs.ErrKindInvalidInput, "%s is not a mapping", strings.Join(parts[:i+1], "."))
		}
		node = m
	}
	node[parts[len(parts)-1]] = v
	c.changed = true
	return nil
}

// Delete removes key and reports whether it was present.
func (c *Config) Delete(key string) bool {
	parts, err := split(key)
	if err != nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	node := c.data
	for _, p := range parts[:len(parts)-1] {
		m, ok := node[p].(map[string]any)
		if !ok {
			return false
		}
		node = m
	}
	last := parts[len(parts)-1]
	if _, ok := node[last]; !ok {
		return false
	}
	delete(node, last)
	c.changed = true
	return true
}

// Changed reports whether Set or Delete modified the document since it was
// loaded or last saved.
func (c *Config) Changed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.changed
}

// Save writes the document back to its file.
func (c *Config) Save() error {
	if c.path == "" {
		return errs.New(errs.ErrKindConfiguration, "config has no file to save to")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	out, err := yaml.Marshal(c.data)
	if err != nil {
		return errs.Wrap(errs.ErrKindConfiguration, "cannot encode config", err)
	}
	if err := os.WriteFile(c.path, out, 0o600); err != nil {
		return errs.Wrap(errs.ErrKindConfiguration, "cannot write config file "+c.path, err)
	}
	c.changed = false
	return nil
}

func split(key string) ([]string, error) {
	parts := strings.Split(key, ".")
	for _, p := range parts {
		if p == "" {
			return nil, errs.Newf(errs.ErrKindInvalidInput, "invalid config key %q", key)
		}
	}
	return parts, nil
}

func lookup(data map[string]any, key string) (any, bool) {
	parts, err := split(key)
	if err != nil {
		return nil, false
	}
	var node any = data
	for _, p := range parts {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		if node, ok = m[p]; !ok {
			return nil, false
		}
	}
	return node, true
}
