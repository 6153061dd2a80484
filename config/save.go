package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "Unable to create config dir")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrapf(err, "Unable to marshal config")
	}

	return os.WriteFile(path, data, 0644)
}
