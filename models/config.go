package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Storage backend names accepted in configuration.
const (
	StorageFile     = "file"
	StorageDatabase = "database"
)

// Config holds runtime configuration, loaded from a YAML file with
// environment variable overrides.
type Config struct {
	// Storage selects the backend: "file" or "database".
	Storage string `yaml:"storage"`
	// OutputDir is the root for file-based storage and the run summary.
	OutputDir string `yaml:"output_dir"`
	// Inputs are files or directories to extract when no args are given.
	Inputs   []string       `yaml:"inputs"`
	Database DatabaseConfig `yaml:"database"`
	Images   ImagesConfig   `yaml:"images"`
}

// DatabaseConfig holds SQLite connection settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ImagesConfig controls how the database backend stores image payloads.
type ImagesConfig struct {
	// Store is "blob" (bytes in the images table) or "path" (write the
	// file under OutputDir and store its path).
	Store string `yaml:"store"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Storage:   StorageFile,
		OutputDir: "output",
		Database:  DatabaseConfig{Path: "llm-doc-parser.db"},
		Images:    ImagesConfig{Store: "blob"},
	}
}

// LoadConfig reads a YAML config file and applies environment overrides.
// A missing file is not an error: defaults are returned.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// Environment overrides beat file values.
	if v := os.Getenv("DOCPARSER_STORAGE"); v != "" {
		cfg.Storage = v
	}
	if v := os.Getenv("DOCPARSER_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("DOCPARSER_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if cfg.Storage != StorageFile && cfg.Storage != StorageDatabase {
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage)
	}
	return cfg, nil
}
