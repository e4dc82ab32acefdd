// Package config loads the optional sketch.yaml configuration, with
// environment-variable overrides under the SKETCH_ prefix.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved CLI configuration.
type Config struct {
	Sketch SketchConfig `mapstructure:"sketch"`
	Stats  StatsConfig  `mapstructure:"stats"`
}

// SketchConfig contains runtime settings for the sketch itself.
type SketchConfig struct {
	Name      string  `mapstructure:"name"`
	FrameRate float64 `mapstructure:"frameRate"`
}

// StatsConfig controls the diagnostics HTTP server.
type StatsConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Addr           string        `mapstructure:"addr"`
	SampleInterval time.Duration `mapstructure:"sampleInterval"`
}

// Load reads sketch.yaml from dir if present. A missing file is not an
// error; defaults and SKETCH_* environment variables still apply.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("sketch")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("SKETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("sketch.name", "sketch")
	v.SetDefault("sketch.frameRate", 60.0)
	v.SetDefault("stats.enabled", false)
	v.SetDefault("stats.addr", "127.0.0.1:9090")
	v.SetDefault("stats.sampleInterval", 5*time.Second)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read sketch.yaml: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse sketch.yaml: %w", err)
	}
	if cfg.Sketch.FrameRate <= 0 {
		return nil, fmt.Errorf("sketch.frameRate must be positive (got %v)", cfg.Sketch.FrameRate)
	}
	return &cfg, nil
}
