package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Cache.Path != "cache" {
		t.Errorf("expected cache path 'cache', got %s", cfg.Cache.Path)
	}
	if cfg.Cache.ModelsArchive != 7 {
		t.Errorf("expected models archive 7, got %d", cfg.Cache.ModelsArchive)
	}
	if cfg.Cache.SpritesArchive != 8 {
		t.Errorf("expected sprites archive 8, got %d", cfg.Cache.SpritesArchive)
	}
	if cfg.Cache.TexturesArchive != 9 {
		t.Errorf("expected textures archive 9, got %d", cfg.Cache.TexturesArchive)
	}
	if cfg.Cache.DiscardPacked || cfg.Cache.DiscardUnpacked {
		t.Error("expected discard options to be off by default")
	}

	if cfg.Light.X != -50 || cfg.Light.Y != -10 || cfg.Light.Z != -50 {
		t.Errorf("expected light (-50, -10, -50), got (%d, %d, %d)",
			cfg.Light.X, cfg.Light.Y, cfg.Light.Z)
	}
	if cfg.Light.Ambient != 64 {
		t.Errorf("expected ambient 64, got %d", cfg.Light.Ambient)
	}
	if cfg.Light.Contrast != 768 {
		t.Errorf("expected contrast 768, got %d", cfg.Light.Contrast)
	}

	if cfg.Export.Scale != 512 {
		t.Errorf("expected export scale 512, got %v", cfg.Export.Scale)
	}
	if cfg.Export.Brightness != 0.7 {
		t.Errorf("expected export brightness 0.7, got %v", cfg.Export.Brightness)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
cache:
  path: /srv/js5/cache
  models_archive: 17
  sprites_archive: 18
  textures_archive: 19
  discard_packed: true
  discard_unpacked: true

light:
  x: -30
  y: -60
  z: -90
  ambient: 80
  contrast: 850

export:
  scale: 128
  brightness: 0.9

logging:
  level: "debug"
  log_file: "js5view.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Cache.Path != "/srv/js5/cache" {
		t.Errorf("expected cache path /srv/js5/cache, got %s", cfg.Cache.Path)
	}
	if cfg.Cache.ModelsArchive != 17 {
		t.Errorf("expected models archive 17, got %d", cfg.Cache.ModelsArchive)
	}
	if cfg.Cache.SpritesArchive != 18 {
		t.Errorf("expected sprites archive 18, got %d", cfg.Cache.SpritesArchive)
	}
	if cfg.Cache.TexturesArchive != 19 {
		t.Errorf("expected textures archive 19, got %d", cfg.Cache.TexturesArchive)
	}
	if !cfg.Cache.DiscardPacked || !cfg.Cache.DiscardUnpacked {
		t.Error("expected discard options to be loaded as true")
	}

	if cfg.Light.X != -30 || cfg.Light.Y != -60 || cfg.Light.Z != -90 {
		t.Errorf("expected light (-30, -60, -90), got (%d, %d, %d)",
			cfg.Light.X, cfg.Light.Y, cfg.Light.Z)
	}
	if cfg.Light.Ambient != 80 {
		t.Errorf("expected ambient 80, got %d", cfg.Light.Ambient)
	}
	if cfg.Light.Contrast != 850 {
		t.Errorf("expected contrast 850, got %d", cfg.Light.Contrast)
	}

	if cfg.Export.Scale != 128 {
		t.Errorf("expected export scale 128, got %v", cfg.Export.Scale)
	}
	if cfg.Export.Brightness != 0.9 {
		t.Errorf("expected export brightness 0.9, got %v", cfg.Export.Brightness)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "js5view.log" {
		t.Errorf("expected log file 'js5view.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFilePartial(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
light:
  ambient: 96
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Light.Ambient != 96 {
		t.Errorf("expected ambient 96, got %d", cfg.Light.Ambient)
	}
	// Untouched sections keep their defaults.
	if cfg.Light.Contrast != 768 {
		t.Errorf("expected contrast 768, got %d", cfg.Light.Contrast)
	}
	if cfg.Cache.ModelsArchive != 7 {
		t.Errorf("expected models archive 7, got %d", cfg.Cache.ModelsArchive)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
light:
  ambient: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := Default()
	cfg.Cache.Path = "/srv/js5/cache"
	cfg.Light.Ambient = 72

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, configPath); err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}

	if loaded.Cache.Path != "/srv/js5/cache" {
		t.Errorf("expected cache path /srv/js5/cache, got %s", loaded.Cache.Path)
	}
	if loaded.Light.Ambient != 72 {
		t.Errorf("expected ambient 72, got %d", loaded.Light.Ambient)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Actual path depends on OS; just verify the shape.
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)

	// No config file exists yet.
	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("light:\n  ambient: 80\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	path = findConfigFile()
	if path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name: "debug flag",
			setup: func() {
				*flagDebug = true
			},
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() {
				*flagDebug = false
			},
		},
		{
			name: "cache flag",
			setup: func() {
				*flagCache = "/mnt/js5"
			},
			verify: func(cfg *Config) {
				if cfg.Cache.Path != "/mnt/js5" {
					t.Errorf("expected cache path /mnt/js5, got %s", cfg.Cache.Path)
				}
			},
			teardown: func() {
				*flagCache = ""
			},
		},
		{
			name: "ambient and contrast flags",
			setup: func() {
				*flagAmbient = 100
				*flagContrast = 900
			},
			verify: func(cfg *Config) {
				if cfg.Light.Ambient != 100 {
					t.Errorf("expected ambient 100, got %d", cfg.Light.Ambient)
				}
				if cfg.Light.Contrast != 900 {
					t.Errorf("expected contrast 900, got %d", cfg.Light.Contrast)
				}
			},
			teardown: func() {
				*flagAmbient = -1
				*flagContrast = -1
			},
		},
		{
			name: "ambient zero is a valid override",
			setup: func() {
				*flagAmbient = 0
			},
			verify: func(cfg *Config) {
				if cfg.Light.Ambient != 0 {
					t.Errorf("expected ambient 0, got %d", cfg.Light.Ambient)
				}
			},
			teardown: func() {
				*flagAmbient = -1
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
light:
  ambient: 90
  contrast: 800
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagAmbient = 110
	defer func() {
		*flagConfig = ""
		*flagAmbient = -1
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Ambient comes from the flag, not the file.
	if cfg.Light.Ambient != 110 {
		t.Errorf("expected ambient 110 from flag, got %d", cfg.Light.Ambient)
	}
	// Contrast comes from the file since no flag override.
	if cfg.Light.Contrast != 800 {
		t.Errorf("expected contrast 800 from file, got %d", cfg.Light.Contrast)
	}
}
