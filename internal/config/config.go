// Package config loads server settings from an optional YAML file with
// environment variable overrides on top.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aadah/Multiuser-Whiteboard/internal/wire"
)

// Duration wraps time.Duration so YAML values like "30s" parse.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// BoardConfig describes the board every new connection lands on.
type BoardConfig struct {
	Name   string `yaml:"name"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// RateConfig bounds how many protocol lines a client IP may send.
// A zero PerSecond disables limiting.
type RateConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// Config contains all configuration parameters required for the server to run.
type Config struct {
	TCPAddr  string `yaml:"tcp_addr"`
	HTTPAddr string `yaml:"http_addr"`

	DefaultBoard BoardConfig `yaml:"default_board"`

	OutboxBuffer int `yaml:"outbox_buffer"`
	MaxLineBytes int `yaml:"max_line_bytes"`

	// IdleTimeout disconnects clients that send nothing for this long.
	// Zero means never.
	IdleTimeout     Duration `yaml:"idle_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`

	RateLimit RateConfig `yaml:"rate_limit"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		TCPAddr:         ":4444",
		HTTPAddr:        ":8080",
		DefaultBoard:    BoardConfig{Name: "IHTFP", Width: 640, Height: 480},
		OutboxBuffer:    64,
		MaxLineBytes:    64 * 1024,
		IdleTimeout:     0,
		ShutdownTimeout: Duration(10 * time.Second),
		RateLimit:       RateConfig{PerSecond: 0, Burst: 0},
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// if path is non-empty, then WB_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	envString(&c.TCPAddr, "WB_TCP_ADDR")
	envString(&c.HTTPAddr, "WB_HTTP_ADDR")
	envString(&c.DefaultBoard.Name, "WB_BOARD_NAME")
	envString(&c.LogLevel, "WB_LOG_LEVEL")
	envString(&c.LogFormat, "WB_LOG_FORMAT")

	for _, e := range []struct {
		dst *int
		key string
	}{
		{&c.DefaultBoard.Width, "WB_BOARD_WIDTH"},
		{&c.DefaultBoard.Height, "WB_BOARD_HEIGHT"},
		{&c.OutboxBuffer, "WB_OUTBOX_BUFFER"},
		{&c.MaxLineBytes, "WB_MAX_LINE_BYTES"},
		{&c.RateLimit.Burst, "WB_RATE_BURST"},
	} {
		if err := envInt(e.dst, e.key); err != nil {
			return err
		}
	}

	if err := envFloat(&c.RateLimit.PerSecond, "WB_RATE_PER_SECOND"); err != nil {
		return err
	}
	if err := envDuration(&c.IdleTimeout, "WB_IDLE_TIMEOUT"); err != nil {
		return err
	}
	return envDuration(&c.ShutdownTimeout, "WB_SHUTDOWN_TIMEOUT")
}

func (c *Config) validate() error {
	if c.TCPAddr == "" {
		return fmt.Errorf("tcp_addr must not be empty")
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("http_addr must not be empty")
	}
	if c.DefaultBoard.Name == "" || strings.ContainsAny(c.DefaultBoard.Name, " \n") {
		return fmt.Errorf("default board name %q must be a single non-empty token", c.DefaultBoard.Name)
	}
	if c.DefaultBoard.Width < 1 || c.DefaultBoard.Width > wire.MaxBoardDim ||
		c.DefaultBoard.Height < 1 || c.DefaultBoard.Height > wire.MaxBoardDim {
		return fmt.Errorf("default board dimensions %dx%d outside 1..%d", c.DefaultBoard.Width, c.DefaultBoard.Height, wire.MaxBoardDim)
	}
	if c.OutboxBuffer < 1 {
		return fmt.Errorf("outbox_buffer %d must be at least 1", c.OutboxBuffer)
	}
	if c.MaxLineBytes < 1024 {
		return fmt.Errorf("max_line_bytes %d must be at least 1024", c.MaxLineBytes)
	}
	if c.IdleTimeout < 0 || c.ShutdownTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if c.RateLimit.PerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit values must not be negative")
	}
	if c.RateLimit.PerSecond > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit.burst must be at least 1 when a rate is set")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format %q must be console or json", c.LogFormat)
	}
	return nil
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	*dst = n
	return nil
}

func envFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	*dst = f
	return nil
}

func envDuration(dst *Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	*dst = Duration(d)
	return nil
}
