package config

const (
	defaultStateDir         = "~/.local/share/sitepix"
	defaultMaxSizeKB        = 100
	defaultMaxDimension     = 800
	defaultStartQuality     = 80
	defaultFloorQuality     = 40
	defaultQualityStep      = 10
	defaultWebPMethod       = 6
	defaultTargetFormat     = "webp"
	defaultConvertQuality   = 85
	defaultBackground       = "#ffffff"
	defaultVariantSmall     = 480
	defaultVariantMedium    = 768
	defaultVariantLarge     = 1200
	defaultWatchDebounceMS  = 500
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultConfigPathString = "~/.config/sitepix/config.toml"
	projectConfigName       = "sitepix.toml"
)

var (
	defaultOptimizeExtensions = []string{".webp"}
	defaultConvertExtensions  = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Optimize: Optimize{
			MaxSizeKB:    defaultMaxSizeKB,
			MaxDimension: defaultMaxDimension,
			StartQuality: defaultStartQuality,
			FloorQuality: defaultFloorQuality,
			Step:         defaultQualityStep,
			Extensions:   append([]string(nil), defaultOptimizeExtensions...),
			WebPMethod:   defaultWebPMethod,
		},
		Convert: Convert{
			Enabled:      true,
			TargetFormat: defaultTargetFormat,
			Quality:      defaultConvertQuality,
			Background:   defaultBackground,
			Extensions:   append([]string(nil), defaultConvertExtensions...),
		},
		Variants: Variants{
			Small:  defaultVariantSmall,
			Medium: defaultVariantMedium,
			Large:  defaultVariantLarge,
		},
		Watch: Watch{
			DebounceMS: defaultWatchDebounceMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
