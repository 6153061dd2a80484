package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load reads config with priority defaults < file. Empty path returns defaults.
// Name encoding is applied immediately.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, errors.Wrapf(err, "Loading config from %q", path)
		}
	}
	if err := cfg.Apply(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile merges yaml file into cfg
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Apply sets process wide settings from cfg
func (c *Config) Apply() error {
	if c.Processing.NameEncoding == "" {
		return nil
	}
	return SetEncoding(c.Processing.NameEncoding)
}
