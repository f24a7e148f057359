package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is the harness and server configuration.
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Enrollment EnrollmentConfig `mapstructure:"enrollment"`
	Harness    HarnessConfig    `mapstructure:"harness"`
	Server     ServerConfig     `mapstructure:"server"`
	MQTT       MQTTConfig       `mapstructure:"mqtt"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
	File   string `mapstructure:"file"`
	// MaxAgeDays > 0 rotates the log file daily and keeps that many days.
	MaxAgeDays int `mapstructure:"max_age_days"`
}

// EngineConfig selects the implementation under test.
type EngineConfig struct {
	Name      string `mapstructure:"name"`
	ConfigDir string `mapstructure:"config_dir"`
}

// EnrollmentConfig locates the enrollment database.
type EnrollmentConfig struct {
	Dir          string `mapstructure:"dir"`
	EDBName      string `mapstructure:"edb_name"`
	ManifestName string `mapstructure:"manifest_name"`
	GalleryType  string `mapstructure:"gallery_type"`
}

// EDBPath returns the enrollment database file path.
func (e EnrollmentConfig) EDBPath() string {
	return filepath.Join(e.Dir, e.EDBName)
}

// ManifestPath returns the manifest file path.
func (e EnrollmentConfig) ManifestPath() string {
	return filepath.Join(e.Dir, e.ManifestName)
}

// HarnessConfig tunes the driver.
type HarnessConfig struct {
	Workers             int  `mapstructure:"workers"`
	CandidateListLength int  `mapstructure:"candidate_list_length"`
	Depth               int  `mapstructure:"depth"` // bit depth images are loaded with
	CollectStats        bool `mapstructure:"collect_stats"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	MaxUploadMB int      `mapstructure:"max_upload_mb"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MQTTConfig holds settings for the progress event publisher.
type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
}

// Load reads configuration from file, environment and defaults. An empty
// or missing configPath leaves the defaults in place.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			log.Warnf("Config file %s does not exist, using defaults", configPath)
		} else {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			log.Infof("Config loaded from %s", configPath)
		}
	}

	// TATTE_HARNESS_WORKERS overrides harness.workers, and so on.
	v.SetEnvPrefix("TATTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets the default for every key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_age_days", 0)

	v.SetDefault("engine.name", "reference")
	v.SetDefault("engine.config_dir", "./config/engine")

	v.SetDefault("enrollment.dir", "./data/enroll")
	v.SetDefault("enrollment.edb_name", "enroll.edb")
	v.SetDefault("enrollment.manifest_name", "enroll.manifest")
	v.SetDefault("enrollment.gallery_type", "consolidated")

	v.SetDefault("harness.workers", 0) // 0: derived from CPU count
	v.SetDefault("harness.candidate_list_length", 20)
	v.SetDefault("harness.depth", 24)
	v.SetDefault("harness.collect_stats", true)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 32)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.client_id", "tatte-harness")
	v.SetDefault("mqtt.topic", "tatte/harness")
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Harness.Depth != 8 && c.Harness.Depth != 24 {
		return fmt.Errorf("harness.depth must be 8 or 24, got %d", c.Harness.Depth)
	}
	if c.Harness.CandidateListLength < 0 {
		return fmt.Errorf("harness.candidate_list_length must not be negative")
	}
	if c.Harness.Workers < 0 {
		return fmt.Errorf("harness.workers must not be negative")
	}
	switch c.Enrollment.GalleryType {
	case "consolidated", "unconsolidated":
	default:
		return fmt.Errorf("enrollment.gallery_type must be consolidated or unconsolidated, got %q", c.Enrollment.GalleryType)
	}
	return nil
}

// EnsureDirectories creates the enrollment and log directories.
func EnsureDirectories(cfg *Config) error {
	if cfg.Enrollment.Dir != "" {
		if err := os.MkdirAll(cfg.Enrollment.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create enrollment directory: %w", err)
		}
	}

	if cfg.Log.File != "" {
		logDir := filepath.Dir(cfg.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	return nil
}
