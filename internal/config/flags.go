package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagCache    = flag.String("cache", "", "Path to the asset cache directory")
	flagAmbient  = flag.Int("ambient", -1, "Ambient light level (0-255)")
	flagContrast = flag.Int("contrast", -1, "Light attenuation contrast")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagCache != "" {
		cfg.Cache.Path = *flagCache
	}
	if *flagAmbient >= 0 {
		cfg.Light.Ambient = *flagAmbient
	}
	if *flagContrast >= 0 {
		cfg.Light.Contrast = *flagContrast
	}
}
