// Package app wires the image bot: configuration, collaborators, dispatcher and Telegram routes.
package app

import (
	"fmt"
	"strings"

	coreconfig "github.com/m3rciful/imgbot/core/config"
	coredatabase "github.com/m3rciful/imgbot/core/database"
)

const (
	defaultDetectionTimeoutSeconds = 30
	defaultImagesDir               = "photos"
)

// DetectionConfig points at the object detection service.
type DetectionConfig struct {
	URL            string `yaml:"url" envconfig:"DETECTION_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"DETECTION_TIMEOUT_SECONDS"`
}

// ImagesConfig controls where downloaded photos and results are stored.
type ImagesConfig struct {
	Dir string `yaml:"dir" envconfig:"IMAGES_DIR"`
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database  coredatabase.Config `yaml:"database"`
	Detection DetectionConfig     `yaml:"detection"`
	Images    ImagesConfig        `yaml:"images"`
}

// CoreConfig returns the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// LoadConfig reads path, overlays the environment and validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the bot sections and applies defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	cfg.Detection.URL = strings.TrimSpace(cfg.Detection.URL)
	if cfg.Detection.URL == "" {
		return fmt.Errorf("detection.url is required")
	}
	if !strings.HasPrefix(cfg.Detection.URL, "http://") && !strings.HasPrefix(cfg.Detection.URL, "https://") {
		return fmt.Errorf("detection.url must be an http(s) URL, got %q", cfg.Detection.URL)
	}
	if cfg.Detection.TimeoutSeconds < 0 {
		return fmt.Errorf("detection.timeout_seconds must be >= 0")
	}
	if cfg.Detection.TimeoutSeconds == 0 {
		cfg.Detection.TimeoutSeconds = defaultDetectionTimeoutSeconds
	}

	cfg.Images.Dir = strings.TrimSpace(cfg.Images.Dir)
	if cfg.Images.Dir == "" {
		cfg.Images.Dir = defaultImagesDir
	}
	return nil
}
