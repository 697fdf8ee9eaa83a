package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	BaseURL            string `yaml:"base_url"`
	SessionPath        string `yaml:"session_path"`
	OutDir             string `yaml:"out_dir"`
	RefreshIntervalSec int    `yaml:"refresh_interval_sec"`
	SyncIntervalSec    int    `yaml:"sync_interval_sec"`
	Demo               bool   `yaml:"demo"`
}

// RefreshInterval converts the configured seconds to a duration. Zero
// or negative falls through to the runtime default.
func (c fileConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSec) * time.Second
}

func (c fileConfig) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalSec) * time.Second
}

func defaultConfig() fileConfig {
	home, _ := os.UserHomeDir()
	return fileConfig{
		BaseURL:     "http://localhost:8000",
		SessionPath: filepath.Join(home, ".config", "sitewatch", "session.json"),
		OutDir:      ".",
	}
}

// loadConfig reads the YAML config, falling back to defaults when the
// file does not exist. Explicit fields override defaults field by
// field.
func loadConfig(path string) (fileConfig, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("sitewatch: read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("sitewatch: parse config %s: %w", path, err)
	}
	return cfg, nil
}
