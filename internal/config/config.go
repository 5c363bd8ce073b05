// Package config loads the per-project configuration file.
//
// The file lives at <data root>/config.yaml and is optional: every field
// has a usable default, so a project works with no config at all. The
// data root itself defaults to .loam/ under the current directory and
// can be overridden by flag or environment.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/loamdev/loam/internal/apperr"
)

// DefaultRootDir is the data root relative to the project root.
const DefaultRootDir = ".loam"

// EnvRoot overrides the data root when set.
const EnvRoot = "LOAM_ROOT"

// Config is the full configuration surface.
type Config struct {
	// Author is stamped on every event this machine appends. Defaults to
	// $USER when empty.
	Author string `yaml:"author"`

	// Index is the symbol indexing configuration.
	Index IndexConfig `yaml:"index"`
}

// IndexConfig controls the symbol indexer.
type IndexConfig struct {
	// Paths is the indexing whitelist: files and doublestar globs,
	// relative to the project root. The indexer never walks outside it.
	Paths []string `yaml:"paths"`

	// Ignore holds doublestar globs subtracted from the whitelist, for
	// carving vendored or generated files out of a broad pattern.
	Ignore []string `yaml:"ignore"`

	// CacheFile is the SQLite cache location relative to the data root.
	CacheFile string `yaml:"cache_file"`
}

// Default returns the zero-config defaults.
func Default() Config {
	return Config{
		Author: envOr("USER", "unknown"),
		Index: IndexConfig{
			CacheFile: "symbols.db",
		},
	}
}

// ResolveRoot picks the data root: explicit flag value, then the
// environment, then the default directory under cwd.
func ResolveRoot(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(EnvRoot); env != "" {
		return env
	}
	return DefaultRootDir
}

// Load reads <root>/config.yaml, filling unset fields from Default.
// A missing file is not an error.
func Load(root string) (Config, error) {
	cfg := Default()

	path := filepath.Join(root, "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, apperr.Wrap(apperr.CodeStoreUnavailable, path, err, "read config")
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, apperr.Wrap(apperr.CodeIntegrity, path, err, "parse config")
	}
	if cfg.Author == "" {
		cfg.Author = Default().Author
	}
	if cfg.Index.CacheFile == "" {
		cfg.Index.CacheFile = Default().Index.CacheFile
	}
	return cfg, nil
}

// CachePath returns the absolute symbol-cache path for a data root.
func (c Config) CachePath(root string) string {
	if filepath.IsAbs(c.Index.CacheFile) {
		return c.Index.CacheFile
	}
	return filepath.Join(root, c.Index.CacheFile)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
