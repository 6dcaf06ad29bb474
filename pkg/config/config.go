// Package config loads the YAML file that configures one aegis engine
// instance: where it stores data, how it logs, and the tuning knobs for the
// planner's adaptive batching and session defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/cuemby/aegis/pkg/log"
	"github.com/cuemby/aegis/pkg/planner"
	"gopkg.in/yaml.v3"
)

// Config is the root of the aegis YAML configuration file.
type Config struct {
	DataDir string    `yaml:"dataDir"`
	Log     LogConfig `yaml:"log"`
	Planner Planner   `yaml:"planner"`
	Session Session   `yaml:"session"`
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

// Planner mirrors pkg/planner.Tuning in YAML-friendly form.
type Planner struct {
	InitialCapacity int           `yaml:"initialCapacity"`
	MinCapacity     int           `yaml:"minCapacity"`
	MaxCapacity     int           `yaml:"maxCapacity"`
	FlushInterval   time.Duration `yaml:"flushInterval"`
}

// Session holds session-token defaults.
type Session struct {
	DefaultTTL time.Duration `yaml:"defaultTTL"`
}

// Default returns the configuration aegis runs with when no file is
// supplied: data under ./aegis-data, info-level console logging, and the
// planner/session defaults spec.md documents (batch capacity 200/50/5000,
// 20ms flush deadline, 1 hour session TTL).
func Default() Config {
	return Config{
		DataDir: "./aegis-data",
		Log: LogConfig{
			Level: string(log.InfoLevel),
			JSON:  false,
		},
		Planner: Planner{
			InitialCapacity: planner.DefaultTuning.InitialCapacity,
			MinCapacity:     planner.DefaultTuning.MinCapacity,
			MaxCapacity:     planner.DefaultTuning.MaxCapacity,
			FlushInterval:   planner.DefaultTuning.FlushInterval,
		},
		Session: Session{
			DefaultTTL: time.Hour,
		},
	}
}

// Load reads and parses a YAML config file at path, filling any field left
// zero in the file with Default's value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Planner.InitialCapacity == 0 {
		c.Planner.InitialCapacity = d.Planner.InitialCapacity
	}
	if c.Planner.MinCapacity == 0 {
		c.Planner.MinCapacity = d.Planner.MinCapacity
	}
	if c.Planner.MaxCapacity == 0 {
		c.Planner.MaxCapacity = d.Planner.MaxCapacity
	}
	if c.Planner.FlushInterval == 0 {
		c.Planner.FlushInterval = d.Planner.FlushInterval
	}
	if c.Session.DefaultTTL == 0 {
		c.Session.DefaultTTL = d.Session.DefaultTTL
	}
}

// LoggerConfig converts to the pkg/log configuration shape.
func (c Config) LoggerConfig() log.Config {
	level := log.Level(c.Log.Level)
	switch level {
	case log.DebugLevel, log.InfoLevel, log.WarnLevel, log.ErrorLevel:
	default:
		level = log.InfoLevel
	}
	return log.Config{Level: level, JSONOutput: c.Log.JSON}
}

// Tuning converts to the pkg/planner tuning shape.
func (c Config) Tuning() planner.Tuning {
	return planner.Tuning{
		InitialCapacity: c.Planner.InitialCapacity,
		MinCapacity:     c.Planner.MinCapacity,
		MaxCapacity:     c.Planner.MaxCapacity,
		FlushInterval:   c.Planner.FlushInterval,
	}
}
