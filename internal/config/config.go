// Package config loads the optional per-user configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file name inside the data directory.
const FileName = "config.yaml"

// ErrMalformed is returned when the configuration file exists but cannot be
// parsed. A missing file is not an error; defaults apply.
var ErrMalformed = errors.New("config: malformed configuration file")

// Config holds the user-tunable settings. Every field has a working default
// so a missing config file needs no setup step.
type Config struct {
	// DataDir overrides where the database and vault credentials live.
	DataDir string `yaml:"data_dir"`

	// AutoLock re-locks the vault when the process exits instead of
	// leaving the session key cached for the next run.
	AutoLock bool `yaml:"auto_lock"`

	// ExportPath is the default destination for library exports.
	ExportPath string `yaml:"export_path"`
}

// DefaultDataDir returns ~/.playgate.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".playgate"), nil
}

// Default returns the configuration used when no file exists.
func Default() (*Config, error) {
	dataDir, err := DefaultDataDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		DataDir:    dataDir,
		ExportPath: "playgate-export.json",
	}, nil
}

// Load reads the configuration file from dir, falling back to defaults when
// the file does not exist. Fields left empty in the file keep their
// defaults.
func Load(dir string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: failed to read configuration: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if file.DataDir != "" {
		cfg.DataDir = file.DataDir
	}
	if file.ExportPath != "" {
		cfg.ExportPath = file.ExportPath
	}
	cfg.AutoLock = file.AutoLock
	return cfg, nil
}
