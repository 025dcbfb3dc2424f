package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"sitepix/internal/imagecodec"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOptimize()
	c.normalizeConvert()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.PhotosDir == "" {
		if value, ok := os.LookupEnv("SITEPIX_PHOTOS_DIR"); ok {
			c.Paths.PhotosDir = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.PhotosDir, err = expandPath(strings.TrimSpace(c.Paths.PhotosDir)); err != nil {
		return fmt.Errorf("paths.photos_dir: %w", err)
	}
	if c.Paths.PublishDir, err = expandPath(strings.TrimSpace(c.Paths.PublishDir)); err != nil {
		return fmt.Errorf("paths.publish_dir: %w", err)
	}
	if c.Paths.ArchiveDir, err = expandPath(strings.TrimSpace(c.Paths.ArchiveDir)); err != nil {
		return fmt.Errorf("paths.archive_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOptimize() {
	c.Optimize.Extensions = normalizeExtensions(c.Optimize.Extensions)
	if len(c.Optimize.Extensions) == 0 {
		c.Optimize.Extensions = append([]string(nil), defaultOptimizeExtensions...)
	}
}

func (c *Config) normalizeConvert() {
	c.Convert.TargetFormat = strings.ToLower(strings.TrimSpace(c.Convert.TargetFormat))
	if c.Convert.TargetFormat == "" {
		c.Convert.TargetFormat = defaultTargetFormat
	}
	c.Convert.Background = strings.TrimSpace(c.Convert.Background)
	if c.Convert.Background == "" {
		c.Convert.Background = defaultBackground
	}
	c.Convert.Extensions = normalizeExtensions(c.Convert.Extensions)
	if len(c.Convert.Extensions) == 0 {
		c.Convert.Extensions = append([]string(nil), defaultConvertExtensions...)
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("SITEPIX_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if file := strings.TrimSpace(c.Logging.File); file != "" {
		if expanded, err := expandPath(file); err == nil {
			c.Logging.File = expanded
		}
	}
}

func normalizeExtensions(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		ext := imagecodec.NormalizeExt(value)
		if ext == "" || slices.Contains(out, ext) {
			continue
		}
		out = append(out, ext)
	}
	return out
}
