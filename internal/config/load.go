package config

import (
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// LoadOptions controls where Load looks for files. Empty fields fall back to
// the user's home directory and the working directory.
type LoadOptions struct {
	// ConfigPath, when set, replaces the global config file and must exist.
	ConfigPath string
	// WorkDir holds the project overlay and the .env file.
	WorkDir string
}

// Load builds the configuration from defaults, the global config file, the
// project overlay, the .env file and the environment, then validates it.
func Load(opts LoadOptions) (*Config, error) {
	cfg := New()

	if err := cfg.loadGlobal(opts.ConfigPath); err != nil {
		return nil, err
	}

	overlay := filepath.Join(opts.WorkDir, ProjectFileName)
	ok, err := fileExists(overlay)
	if err != nil {
		return nil, err
	}
	if ok {
		if err = ShallowMergeYAML(cfg, overlay); err != nil {
			return nil, err
		}
	}

	if err = loadDotEnv(filepath.Join(opts.WorkDir, EnvFileName)); err != nil {
		return nil, err
	}

	if err = ParseEnv(cfg); err != nil {
		return nil, err
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadGlobal(explicit string) error {
	if explicit != "" {
		if err := c.readFile(explicit); err != nil {
			return fmt.Errorf("loading config %s: %w", explicit, err)
		}
		return nil
	}

	path, err := DefaultPath()
	if err != nil {
		// No home directory: run on defaults.
		return nil //nolint:nilerr // Missing home is not a configuration error.
	}
	ok, err := fileExists(path)
	if err != nil || !ok {
		return err
	}
	return c.readFile(path)
}

// loadDotEnv exports the variables of a .env file that are not already set.
func loadDotEnv(path string) error {
	ok, err := fileExists(path)
	if err != nil || !ok {
		return err
	}
	if err = godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ParseEnv applies POSTQUERY_* environment variables onto target.
func ParseEnv(target *Config) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
