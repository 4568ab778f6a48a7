package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const envConfigPath = "ARTORIZE_CONFIG"

// Config represents the artorize configuration file
// (~/.config/artorize/config.yaml). Pointer fields distinguish "not set"
// from zero values.
type Config struct {
	// Overlay
	MaskSuffix   string         `yaml:"mask_suffix"`
	Opacity      *float64       `yaml:"opacity"`
	ColorMode    string         `yaml:"color_mode"`
	OverlayColor string         `yaml:"overlay_color"`
	QuietWindow  *time.Duration `yaml:"quiet_window"`
	PixelDensity *float64       `yaml:"pixel_density"`

	// Proxy
	ServerAddress string   `yaml:"server_address"`
	MasksDir      string   `yaml:"masks_dir"`
	UpstreamURL   string   `yaml:"upstream_url"`
	UpstreamRPS   *float64 `yaml:"upstream_rps"`
	CacheEntries  *int     `yaml:"cache_entries"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func configPath() string {
	if p := strings.TrimSpace(os.Getenv(envConfigPath)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "artorize", "config.yaml")
}

// LoadConfig reads the config file. Returns a zero Config if the file is
// missing or malformed.
func LoadConfig() Config {
	return loadConfigFile(configPath())
}

func loadConfigFile(path string) Config {
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyOverlayConfig applies config file defaults to the overlay flags when
// the corresponding flag was not explicitly set.
func applyOverlayConfig(c *cli.Command, cfg Config) {
	if cfg.MaskSuffix != "" && !c.IsSet("mask-suffix") {
		maskSuffix = cfg.MaskSuffix
	}
	if cfg.Opacity != nil && !c.IsSet("opacity") {
		opacity = *cfg.Opacity
	}
	if cfg.ColorMode != "" && !c.IsSet("color-mode") {
		colorMode = cfg.ColorMode
	}
	if cfg.OverlayColor != "" && !c.IsSet("overlay-color") {
		overlayColor = cfg.OverlayColor
	}
	if cfg.QuietWindow != nil && !c.IsSet("quiet-window") {
		quietWindow = *cfg.QuietWindow
	}
	if cfg.PixelDensity != nil && !c.IsSet("dpr") {
		pixelDensity = *cfg.PixelDensity
	}
}

type serveSettings struct {
	addr         string
	masksDir     string
	upstream     string
	upstreamRPS  float64
	cacheEntries int64
}

func applyServeConfig(c *cli.Command, cfg Config, s *serveSettings) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		s.addr = cfg.ServerAddress
	}
	if cfg.MasksDir != "" && !c.IsSet("masks-dir") {
		s.masksDir = cfg.MasksDir
	}
	if cfg.UpstreamURL != "" && !c.IsSet("upstream") {
		s.upstream = cfg.UpstreamURL
	}
	if cfg.UpstreamRPS != nil && !c.IsSet("upstream-rps") {
		s.upstreamRPS = *cfg.UpstreamRPS
	}
	if cfg.CacheEntries != nil && !c.IsSet("cache-entries") {
		s.cacheEntries = int64(*cfg.CacheEntries)
	}
}
