package config

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir   string `toml:"state_dir"`
	PhotosDir  string `toml:"photos_dir"`
	PublishDir string `toml:"publish_dir"`
	ArchiveDir string `toml:"archive_dir"`
}

// Optimize contains the byte budget, dimension cap, and quality search range.
type Optimize struct {
	MaxSizeKB    int      `toml:"max_size_kb"`
	MaxDimension int      `toml:"max_dimension"`
	StartQuality int      `toml:"start_quality"`
	FloorQuality int      `toml:"floor_quality"`
	Step         int      `toml:"step"`
	Extensions   []string `toml:"extensions"`
	WebPMethod   int      `toml:"webp_method"`
}

// Convert contains settings for migrating legacy formats to the target format.
type Convert struct {
	Enabled      bool     `toml:"enabled"`
	TargetFormat string   `toml:"target_format"`
	Quality      int      `toml:"quality"`
	Background   string   `toml:"background"`
	Extensions   []string `toml:"extensions"`
}

// Variants contains the bounding boxes for responsive copies.
type Variants struct {
	Small  int `toml:"small"`
	Medium int `toml:"medium"`
	Large  int `toml:"large"`
}

// Watch contains settings for the directory watcher.
type Watch struct {
	DebounceMS int `toml:"debounce_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for sitepix.
//
// Configuration sections by subsystem:
//   - Paths: state directory (run lock) and default photo/publish/archive dirs
//   - Optimize: size policy for the quality search
//   - Convert: legacy format migration
//   - Variants: responsive copy boxes
//   - Watch: watcher debounce
//   - Logging: log format, level, and optional file
type Config struct {
	Paths    Paths    `toml:"paths"`
	Optimize Optimize `toml:"optimize"`
	Convert  Convert  `toml:"convert"`
	Variants Variants `toml:"variants"`
	Watch    Watch    `toml:"watch"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPathString)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("%w: %w", ErrConfigParse, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPathString)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// LockPath returns the file guarding against concurrent runs over dir. Runs
// over different image directories use different lock files. The state
// directory is created by whoever takes the lock.
func (c *Config) LockPath(dir string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(dir)))
	return filepath.Join(c.Paths.StateDir, "locks", hex.EncodeToString(sum[:8])+".lock")
}

// VariantBoxes returns the responsive variant names and boxes, smallest first.
func (c *Config) VariantBoxes() []VariantBox {
	return []VariantBox{
		{Name: "small", Size: c.Variants.Small},
		{Name: "medium", Size: c.Variants.Medium},
		{Name: "large", Size: c.Variants.Large},
	}
}

// VariantBox names one responsive size.
type VariantBox struct {
	Name string
	Size int
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}
