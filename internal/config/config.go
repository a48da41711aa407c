package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for iocgen, loaded from YAML with
// environment-variable overrides.
type Config struct {
	Tiles    []TileConfig   `yaml:"tiles"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	API      APIConfig      `yaml:"api"`
}

// TileConfig names one recognized location group and the directory its
// IOC configs are written to.
type TileConfig struct {
	Name      string `yaml:"name"`
	Directory string `yaml:"directory"`
}

// DatabaseConfig selects the metadata store. URL takes precedence when
// both are set.
type DatabaseConfig struct {
	URL  string `yaml:"url"`  // Postgres connection string
	Path string `yaml:"path"` // JSON device-db file
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type APIConfig struct {
	Addr string `yaml:"addr"`
}

// ErrUnknownTile marks a requested location group that is not declared
// in the configuration. Nothing is generated for unknown tiles.
var ErrUnknownTile = errors.New("unrecognized tile")

// Load reads the YAML file at path and applies environment overrides
// (DATABASE_URL, DEVICE_DB_PATH, LOG_LEVEL, HTTP_ADDR).
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.Database.URL = envOr("DATABASE_URL", cfg.Database.URL)
	cfg.Database.Path = envOr("DEVICE_DB_PATH", cfg.Database.Path)
	cfg.Logging.Level = envOr("LOG_LEVEL", cfg.Logging.Level)
	cfg.API.Addr = envOr("HTTP_ADDR", cfg.API.Addr)

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.API.Addr == "" {
		cfg.API.Addr = ":8081"
	}

	return &cfg, nil
}

// Tile looks up a declared tile by name.
func (c *Config) Tile(name string) (TileConfig, error) {
	for _, t := range c.Tiles {
		if t.Name == name {
			return t, nil
		}
	}
	return TileConfig{}, fmt.Errorf("%w: %q", ErrUnknownTile, name)
}

// Validate checks a loaded Config for semantic errors beyond what Load
// catches. Returns one human-readable string per issue.
func Validate(cfg *Config) []string {
	var errs []string

	if len(cfg.Tiles) == 0 {
		errs = append(errs, "tiles: at least one tile must be declared")
	}
	seen := make(map[string]bool)
	for i, t := range cfg.Tiles {
		if t.Name == "" {
			errs = append(errs, fmt.Sprintf("tiles[%d].name: required field is empty", i))
		} else if seen[t.Name] {
			errs = append(errs, fmt.Sprintf("tiles[%d].name: duplicate tile name %q", i, t.Name))
		} else {
			seen[t.Name] = true
		}

		if t.Directory == "" {
			errs = append(errs, fmt.Sprintf("tiles[%d].directory: required field is empty", i))
		}
	}

	if cfg.Database.URL == "" && cfg.Database.Path == "" {
		errs = append(errs, "database: set either url or path")
	}

	return errs
}

func envOr(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
