// Package config loads runtime settings from defaults, HANDPOINTER_
// environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variable overrides, e.g.
// HANDPOINTER_CAMERA_DEVICE_ID.
const EnvPrefix = "HANDPOINTER"

// Backend kinds.
const (
	BackendOS     = "os"
	BackendDryRun = "dry-run"
)

// Config is the complete runtime configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger"`
	Camera   CameraConfig   `mapstructure:"camera"`
	Detector DetectorConfig `mapstructure:"detector"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Preview  PreviewConfig  `mapstructure:"preview"`
	Overlay  OverlayConfig  `mapstructure:"overlay"`
	Server   ServerConfig   `mapstructure:"server"`
	Record   RecordConfig   `mapstructure:"record"`
	Tray     TrayConfig     `mapstructure:"tray"`
}

// LoggerConfig configures the zap logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level"`
	Format      string      `mapstructure:"format"`
	AddSource   bool        `mapstructure:"add_source"`
	ServiceName string      `mapstructure:"service_name"`
	LogFile     string      `mapstructure:"log_file"`
	MaxSize     int         `mapstructure:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups"`
	MaxAge      int         `mapstructure:"max_age"`
	Compress    bool        `mapstructure:"compress"`
	Colors      ColorConfig `mapstructure:"colors"`
}

// ColorConfig names the console color of each level.
type ColorConfig struct {
	Debug  string `mapstructure:"debug"`
	Info   string `mapstructure:"info"`
	Warn   string `mapstructure:"warn"`
	Error  string `mapstructure:"error"`
	DPanic string `mapstructure:"dpanic"`
	Panic  string `mapstructure:"panic"`
	Fatal  string `mapstructure:"fatal"`
}

// CameraConfig selects and sizes the capture device.
type CameraConfig struct {
	DeviceID  int     `mapstructure:"device_id"`
	Width     int     `mapstructure:"width"`
	Height    int     `mapstructure:"height"`
	Mirror    bool    `mapstructure:"mirror"`
	TargetFPS float64 `mapstructure:"target_fps"`
}

// DetectorConfig configures the landmark estimator subprocess.
type DetectorConfig struct {
	MaxHands              int     `mapstructure:"max_hands"`
	MinConfidence         float64 `mapstructure:"min_confidence"`
	MinTrackingConfidence float64 `mapstructure:"min_tracking_confidence"`
	Script                string  `mapstructure:"script"`
	Python                string  `mapstructure:"python"`
}

// BackendConfig selects the pointer backend. The screen size is only used
// by the dry-run backend; the OS backend asks the display.
type BackendConfig struct {
	Kind         string `mapstructure:"kind"`
	ScreenWidth  int    `mapstructure:"screen_width"`
	ScreenHeight int    `mapstructure:"screen_height"`
}

// PreviewConfig controls the debug window.
type PreviewConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Title   string `mapstructure:"title"`
}

// OverlayConfig controls the click ring.
type OverlayConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ServerConfig controls the debug HTTP server. An empty Addr disables it.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// RecordConfig controls landmark recording.
type RecordConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
}

// TrayConfig controls the system tray icon.
type TrayConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "handpointer")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Camera --
	v.SetDefault("camera.device_id", 0)
	v.SetDefault("camera.width", 640)
	v.SetDefault("camera.height", 480)
	v.SetDefault("camera.mirror", true)
	v.SetDefault("camera.target_fps", 60)

	// -- Detector --
	v.SetDefault("detector.max_hands", 2)
	v.SetDefault("detector.min_confidence", 0.7)
	v.SetDefault("detector.min_tracking_confidence", 0.7)
	v.SetDefault("detector.script", "")
	v.SetDefault("detector.python", "python3")

	// -- Backend --
	v.SetDefault("backend.kind", BackendOS)
	v.SetDefault("backend.screen_width", 1920)
	v.SetDefault("backend.screen_height", 1080)

	// -- Surfaces --
	v.SetDefault("preview.enabled", true)
	v.SetDefault("preview.title", "Hand Pointer")
	v.SetDefault("overlay.enabled", true)
	v.SetDefault("server.addr", "")
	v.SetDefault("record.enabled", false)
	v.SetDefault("record.db_path", "")
	v.SetDefault("tray.enabled", false)
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// NewConfigFromViper decodes and validates the configuration held by v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	var errs []error

	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		errs = append(errs, errors.New("camera.width and camera.height must be positive"))
	}
	if c.Camera.TargetFPS <= 0 {
		errs = append(errs, errors.New("camera.target_fps must be positive"))
	}
	if c.Detector.MaxHands < 1 {
		errs = append(errs, errors.New("detector.max_hands must be at least 1"))
	}
	if !unit(c.Detector.MinConfidence) || !unit(c.Detector.MinTrackingConfidence) {
		errs = append(errs, errors.New("detector confidences must be between 0.0 and 1.0"))
	}

	switch c.Backend.Kind {
	case BackendOS:
	case BackendDryRun:
		if c.Backend.ScreenWidth <= 0 || c.Backend.ScreenHeight <= 0 {
			errs = append(errs, errors.New("backend.screen_width and backend.screen_height must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("backend.kind must be %q or %q, got %q", BackendOS, BackendDryRun, c.Backend.Kind))
	}

	return errors.Join(errs...)
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}
