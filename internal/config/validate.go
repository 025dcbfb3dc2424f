package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"sitepix/internal/imagecodec"
)

var (
	// ErrConfigParse is returned when the TOML file cannot be decoded.
	ErrConfigParse = errors.New("parse config")
	// ErrInvalid wraps every validation failure.
	ErrInvalid = errors.New("invalid config")
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.validateOptimize,
		c.validateConvert,
		c.validateVariants,
		c.validateWatch,
		c.validateLogging,
	} {
		if err := check(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	return nil
}

func (c *Config) validateOptimize() error {
	o := c.Optimize
	if err := ensurePositiveMap(map[string]int{
		"optimize.max_size_kb":   o.MaxSizeKB,
		"optimize.max_dimension": o.MaxDimension,
		"optimize.step":          o.Step,
	}); err != nil {
		return err
	}
	if err := ensureQuality("optimize.start_quality", o.StartQuality); err != nil {
		return err
	}
	if err := ensureQuality("optimize.floor_quality", o.FloorQuality); err != nil {
		return err
	}
	if o.FloorQuality > o.StartQuality {
		return errors.New("optimize.floor_quality must not exceed optimize.start_quality")
	}
	if o.WebPMethod < 0 || o.WebPMethod > 6 {
		return errors.New("optimize.webp_method must be between 0 and 6")
	}
	for _, ext := range o.Extensions {
		format, err := imagecodec.ParseFormat(ext)
		if err != nil {
			return fmt.Errorf("optimize.extensions: %w", err)
		}
		if !format.SupportsQuality() {
			return fmt.Errorf("optimize.extensions: %s has no quality setting to search", ext)
		}
	}
	return nil
}

func (c *Config) validateConvert() error {
	target, err := imagecodec.ParseFormat(c.Convert.TargetFormat)
	if err != nil {
		return fmt.Errorf("convert.target_format: %w", err)
	}
	if err := ensureQuality("convert.quality", c.Convert.Quality); err != nil {
		return err
	}
	if _, ok := imagecodec.ParseHexColor(c.Convert.Background); !ok {
		return fmt.Errorf("convert.background %q must be a #rrggbb colour", c.Convert.Background)
	}
	for _, ext := range c.Convert.Extensions {
		if format, err := imagecodec.ParseFormat(ext); err == nil && format == target {
			return fmt.Errorf("convert.extensions must not include the target format (%s)", ext)
		}
	}
	return nil
}

func (c *Config) validateVariants() error {
	return ensurePositiveMap(map[string]int{
		"variants.small":  c.Variants.Small,
		"variants.medium": c.Variants.Medium,
		"variants.large":  c.Variants.Large,
	})
}

func (c *Config) validateWatch() error {
	if c.Watch.DebounceMS < 0 {
		return errors.New("watch.debounce_ms must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains([]string{"console", "json"}, c.Logging.Format) {
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}

func ensureQuality(name string, value int) error {
	if value < 1 || value > 100 {
		return fmt.Errorf("%s must be between 1 and 100", name)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	var problems []string
	for _, key := range keys {
		if values[key] <= 0 {
			problems = append(problems, key)
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s must be positive", strings.Join(problems, ", "))
	}
	return nil
}
