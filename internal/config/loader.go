package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

const (
	// DefaultConfigFileName is the standard configuration file name.
	DefaultConfigFileName = "gourmet.toml"

	// AppDir names the gourmet directory under the XDG config and data homes.
	AppDir = "gourmet"

	// EnvPrefix prefixes every environment override, e.g. GOURMET_DATABASE_DSN.
	EnvPrefix = "GOURMET"
)

// ErrNoConfig is returned by Load when no file exists and createDefault is off.
var ErrNoConfig = errors.New("no configuration file found")

// LoadError represents an error that occurred while loading configuration.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading config from %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads the first configuration file that exists: the explicit path
// when one is given (it must exist), else the XDG config file, else
// ./gourmet.toml. With none found and createDefault set, the defaults are
// written to the first writable candidate and used. GOURMET_* variables are
// applied on top and the result is validated. The returned path is empty
// when the defaults could not be written anywhere.
func Load(explicitPath string, createDefault bool) (*Config, string, error) {
	if explicitPath != "" {
		cfg, err := loadFromFile(explicitPath)
		if err != nil {
			return nil, "", &LoadError{Path: explicitPath, Err: err}
		}
		return cfg, explicitPath, nil
	}

	candidates := searchPaths()
	for _, path := range candidates {
		if !fileExists(path) {
			continue
		}
		cfg, err := loadFromFile(path)
		if err != nil {
			return nil, "", &LoadError{Path: path, Err: err}
		}
		return cfg, path, nil
	}

	if !createDefault {
		return nil, "", fmt.Errorf("%w; searched %s", ErrNoConfig, strings.Join(candidates, ", "))
	}

	// Defaults are written before env overrides so secrets from the
	// environment never reach disk.
	cfg := Default()
	written := ""
	for _, path := range candidates {
		if err := Save(cfg, path); err == nil {
			written = path
			break
		}
	}

	if err := finalize(cfg); err != nil {
		return nil, "", err
	}
	return cfg, written, nil
}

// searchPaths lists config file candidates in lookup order.
func searchPaths() []string {
	var paths []string
	if dir := xdgHome("XDG_CONFIG_HOME", ".config"); dir != "" {
		paths = append(paths, filepath.Join(dir, AppDir, DefaultConfigFileName))
	}
	return append(paths, filepath.Join(".", DefaultConfigFileName))
}

// loadFromFile decodes path over the defaults. Keys that match no setting
// are rejected so a misspelt policy does not silently fall back.
func loadFromFile(path string) (*Config, error) {
	cfg := Default()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}

	if err := finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finalize applies environment overrides and validates the result.
func finalize(cfg *Config) error {
	if err := ApplyEnv(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}

// ApplyEnv overlays GOURMET_* environment variables onto cfg. Unset
// variables leave the existing value in place.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("applying environment overrides: %w", err)
	}
	return nil
}

const configHeader = `# Gourmet configuration
# Restaurant inventory and recipe costing.
#
# Any key can be overridden from the environment, e.g.
#   GOURMET_ENGINE_MISSING_RECIPE=strict
#   GOURMET_ENGINE_STOCK_FLOOR=reject
#   GOURMET_DATABASE_DSN=postgres://...

`

// Save writes cfg to path as commented TOML, creating the directory.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0640)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(configHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding TOML: %w", err)
	}
	return nil
}

// xdgHome returns $env, else $HOME/fallback, else "".
func xdgHome(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, fallback)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// dataDir is where a relative database path and the backups live: the XDG
// data home, or the working directory when there is none.
func dataDir() string {
	if dir := xdgHome("XDG_DATA_HOME", filepath.Join(".local", "share")); dir != "" {
		return filepath.Join(dir, AppDir)
	}
	return "."
}

// EnsureDataDir resolves the sqlite file path and creates its directory.
// Absolute paths are used as they are; relative ones land in dataDir.
func EnsureDataDir(cfg *Config) (string, error) {
	path := cfg.Database.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(dataDir(), path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", fmt.Errorf("creating database directory: %w", err)
	}
	return path, nil
}

// EnsureLogDir creates the log file's directory. An empty path disables file
// logging and returns "".
func EnsureLogDir(cfg *Config) (string, error) {
	path := cfg.Logging.File
	if path == "" {
		return "", nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", fmt.Errorf("creating log directory: %w", err)
	}
	return path, nil
}

// BackupDir returns the backup directory, creating it: "backups" next to an
// absolute database path, else under dataDir.
func BackupDir(cfg *Config) (string, error) {
	dir := filepath.Join(dataDir(), "backups")
	if filepath.IsAbs(cfg.Database.Path) {
		dir = filepath.Join(filepath.Dir(cfg.Database.Path), "backups")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}
	return dir, nil
}
