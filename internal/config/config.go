// Package config loads the optional YAML file of the quicknote CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/quicknote/pkg/core"
	"github.com/aretw0/quicknote/pkg/render"
)

// FileName is looked up in the store directory when no path is given.
const FileName = "quicknote.yaml"

// Config is the file layout. Zero fields fall back to Default.
type Config struct {
	Store       string        `yaml:"store,omitempty"`
	Adapter     string        `yaml:"adapter,omitempty"`
	ReadOnly    bool          `yaml:"read_only,omitempty"`
	CacheSize   int           `yaml:"cache_size,omitempty"`
	Debounce    time.Duration `yaml:"debounce,omitempty"`
	DateLayout  string        `yaml:"date_layout,omitempty"`
	DefaultNote string        `yaml:"default_note,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Adapter:     "fs",
		Debounce:    core.AutoSaveDelay,
		DateLayout:  render.DefaultLayout,
		DefaultNote: render.DefaultText,
	}
}

// Load reads path and merges it over Default.
// A missing file is not an error unless required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Merge(file)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Merge copies the non-zero fields of other into c.
func (c *Config) Merge(other Config) {
	if other.Store != "" {
		c.Store = other.Store
	}
	if other.Adapter != "" {
		c.Adapter = other.Adapter
	}
	if other.ReadOnly {
		c.ReadOnly = true
	}
	if other.CacheSize != 0 {
		c.CacheSize = other.CacheSize
	}
	if other.Debounce != 0 {
		c.Debounce = other.Debounce
	}
	if other.DateLayout != "" {
		c.DateLayout = other.DateLayout
	}
	if other.DefaultNote != "" {
		c.DefaultNote = other.DefaultNote
	}
}

// Validate rejects values no component accepts.
func (c Config) Validate() error {
	switch c.Adapter {
	case "fs", "badger", "memory":
	default:
		return fmt.Errorf("unknown adapter %q", c.Adapter)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative")
	}
	if c.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative")
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
