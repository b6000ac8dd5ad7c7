// Package config handles previewer configuration loading and management.
package config

// Config holds all previewer settings.
type Config struct {
	Cache   CacheConfig   `yaml:"cache"`
	Light   LightConfig   `yaml:"light"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// CacheConfig locates the asset cache and names the archives read from it.
type CacheConfig struct {
	Path            string `yaml:"path"`
	ModelsArchive   int    `yaml:"models_archive"`
	SpritesArchive  int    `yaml:"sprites_archive"`
	TexturesArchive int    `yaml:"textures_archive"`
	DiscardPacked   bool   `yaml:"discard_packed"`
	DiscardUnpacked bool   `yaml:"discard_unpacked"`
}

// LightConfig holds the directional light and shading parameters applied to
// previewed models.
type LightConfig struct {
	X        int `yaml:"x"`
	Y        int `yaml:"y"`
	Z        int `yaml:"z"`
	Ambient  int `yaml:"ambient"`
	Contrast int `yaml:"contrast"`
}

// ExportConfig holds mesh export settings. Scale divides model units into
// scene units; Brightness is the gamma applied when palette colours are
// expanded to RGB.
type ExportConfig struct {
	Scale      float64 `yaml:"scale"`
	Brightness float64 `yaml:"brightness"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Path:            "cache",
			ModelsArchive:   7,
			SpritesArchive:  8,
			TexturesArchive: 9,
			DiscardPacked:   false,
			DiscardUnpacked: false,
		},
		Light: LightConfig{
			X:        -50,
			Y:        -10,
			Z:        -50,
			Ambient:  64,
			Contrast: 768,
		},
		Export: ExportConfig{
			Scale:      512,
			Brightness: 0.7,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
