package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mcuadros/go-defaults"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// SettingsFile is read from the configuration directory when present.
const SettingsFile = "reference.yaml"

// Settings tunes the reference engine.
type Settings struct {
	GridSize          int     `mapstructure:"grid_size" default:"16"`
	MaxImages         int     `mapstructure:"max_images" default:"16"`
	SupportSketch     bool    `mapstructure:"support_sketch"`
	DetectThreshold   float64 `mapstructure:"detect_threshold" default:"100"`
	MinRegionFraction float64 `mapstructure:"min_region_fraction" default:"0.01"`
	WorkSize          int     `mapstructure:"work_size" default:"128"`
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() *Settings {
	s := &Settings{}
	defaults.SetDefaults(s)
	return s
}

// LoadSettings reads SettingsFile from configDir over the defaults. The
// directory must exist; the file is optional.
func LoadSettings(configDir string) (*Settings, error) {
	st, err := os.Stat(configDir)
	if err != nil {
		return nil, fmt.Errorf("config directory: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("config directory %s is not a directory", configDir)
	}

	s := DefaultSettings()
	path := filepath.Join(configDir, SettingsFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Debugf("No %s in %s, using defaults", SettingsFile, configDir)
		return s, s.validate()
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return s, s.validate()
}

func (s *Settings) validate() error {
	switch {
	case s.GridSize < 2 || s.GridSize > 256:
		return fmt.Errorf("grid_size must be within 2..256, got %d", s.GridSize)
	case s.MaxImages < 1:
		return fmt.Errorf("max_images must be positive, got %d", s.MaxImages)
	case s.DetectThreshold < 0 || s.DetectThreshold > 256:
		return fmt.Errorf("detect_threshold must be within 0..256, got %g", s.DetectThreshold)
	case s.MinRegionFraction < 0 || s.MinRegionFraction > 1:
		return fmt.Errorf("min_region_fraction must be within 0..1, got %g", s.MinRegionFraction)
	case s.WorkSize < 8:
		return fmt.Errorf("work_size must be at least 8, got %d", s.WorkSize)
	}
	return nil
}
