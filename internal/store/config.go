package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const configFileName = "config.yaml"

const (
	DefaultProduct  = "Cefixime Tablets USP 400 mg"
	DefaultWebAddr  = "127.0.0.1:8080"
	DefaultRetries  = 3
	defaultTUITheme = "auto"
)

type Config struct {
	// Product is the product name printed in report headings.
	Product string      `yaml:"product,omitempty" json:"product"`
	Web     WebConfig   `yaml:"web,omitempty" json:"web"`
	TUI     TUIConfig   `yaml:"tui,omitempty" json:"tui"`
	Fetch   FetchConfig `yaml:"fetch,omitempty" json:"fetch"`
}

type WebConfig struct {
	Addr string `yaml:"addr,omitempty" json:"addr"`
}

type TUIConfig struct {
	// Glyphs selects the glyph set: unicode|ascii.
	Glyphs string `yaml:"glyphs,omitempty" json:"glyphs"`
	// Theme is light|dark|auto.
	Theme string `yaml:"theme,omitempty" json:"theme"`
}

type FetchConfig struct {
	Retries int `yaml:"retries,omitempty" json:"retries"`
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Product == "" {
		c.Product = DefaultProduct
	}
	if c.Web.Addr == "" {
		c.Web.Addr = DefaultWebAddr
	}
	if c.TUI.Glyphs == "" {
		c.TUI.Glyphs = "unicode"
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaultTUITheme
	}
	if c.Fetch.Retries <= 0 {
		c.Fetch.Retries = DefaultRetries
	}
	return c
}

func (s Store) ConfigPath() string { return filepath.Join(s.Dir, configFileName) }

// resolveConfigPath returns the config file to use and whether it was named
// explicitly rather than defaulted to the workspace config.
func (s Store) resolveConfigPath(path string) (string, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return s.ConfigPath(), false
	}
	return path, filepath.Clean(path) != filepath.Clean(s.ConfigPath())
}

// LoadConfig reads path (or the workspace config when path is empty). A
// missing workspace config is an empty config; a missing explicit path is an
// error.
func (s Store) LoadConfig(path string) (Config, error) {
	path, explicit := s.resolveConfigPath(path)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return Config{}.WithDefaults(), nil
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg.WithDefaults(), nil
}

// SaveConfig writes cfg to path (or the workspace config when path is empty).
func (s Store) SaveConfig(path string, cfg Config) error {
	path, _ = s.resolveConfigPath(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return atomicWriteFile(dir, filepath.Base(path)+".*.tmp", path, b, 0o600)
}
