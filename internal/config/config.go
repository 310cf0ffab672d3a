package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/cmdharness/internal/serialport"
)

const (
	InputStdin  = "stdin"
	InputSerial = "serial"

	DefaultBanner = "Command line harness example\r\n"
)

var ErrInvalidConfig = errors.New("invalid harness config")

// Config drives cmd/harnessctl. The harness core itself takes no config.
type Config struct {
	Name         string        `toml:"name"`
	Input        string        `toml:"input"`
	Banner       string        `toml:"banner"`
	RawTerminal  bool          `toml:"raw_terminal"`
	MaxLineBytes int           `toml:"max_line_bytes"`
	LogLevel     string        `toml:"log_level"`
	Serial       SerialConfig  `toml:"serial"`
	Metrics      MetricsConfig `toml:"metrics"`
}

type SerialConfig struct {
	Device string `toml:"device"`
	Baud   int    `toml:"baud"`
}

// MetricsConfig enables the /metrics endpoint when Addr is set.
type MetricsConfig struct {
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins,omitempty"`
}

type fileConfig struct {
	Name         string      `toml:"name"`
	Input        string      `toml:"input"`
	Banner       string      `toml:"banner"`
	RawTerminal  bool        `toml:"raw_terminal"`
	MaxLineBytes int         `toml:"max_line_bytes"`
	LogLevel     string      `toml:"log_level"`
	Serial       fileSerial  `toml:"serial"`
	Metrics      fileMetrics `toml:"metrics"`
}

type fileSerial struct {
	Device string `toml:"device"`
	Baud   int    `toml:"baud"`
}

type fileMetrics struct {
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
}

func DefaultConfig() Config {
	return Config{
		Name:        "harness",
		Input:       InputStdin,
		Banner:      DefaultBanner,
		RawTerminal: false,
		LogLevel:    "info",
		Serial: SerialConfig{
			Device: "/dev/ttyUSB0",
			Baud:   115200,
		},
	}
}

// Load decodes path over DefaultConfig, then applies CMDHARNESS_*
// environment overrides. An empty path loads defaults and environment only.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}

	if meta.IsDefined("name") {
		cfg.Name = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("input") {
		cfg.Input = strings.ToLower(strings.TrimSpace(raw.Input))
	}
	if meta.IsDefined("banner") {
		cfg.Banner = raw.Banner
	}
	if meta.IsDefined("raw_terminal") {
		cfg.RawTerminal = raw.RawTerminal
	}
	if meta.IsDefined("max_line_bytes") {
		cfg.MaxLineBytes = raw.MaxLineBytes
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("serial", "device") {
		cfg.Serial.Device = strings.TrimSpace(raw.Serial.Device)
	}
	if meta.IsDefined("serial", "baud") {
		cfg.Serial.Baud = raw.Serial.Baud
	}
	if meta.IsDefined("metrics", "addr") {
		cfg.Metrics.Addr = strings.TrimSpace(raw.Metrics.Addr)
	}
	if meta.IsDefined("metrics", "cors_origins") {
		cfg.Metrics.CorsOrigins = normalizeList(raw.Metrics.CorsOrigins)
	}
	return nil
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	switch cfg.Input {
	case InputStdin:
	case InputSerial:
		if strings.TrimSpace(cfg.Serial.Device) == "" {
			return fmt.Errorf("%w: serial input requires serial.device", ErrInvalidConfig)
		}
		if !serialport.SupportedBaud(cfg.Serial.Baud) {
			return fmt.Errorf("%w: unsupported serial.baud %d", ErrInvalidConfig, cfg.Serial.Baud)
		}
	default:
		return fmt.Errorf("%w: unknown input %q (supported: stdin, serial)", ErrInvalidConfig, cfg.Input)
	}
	if cfg.MaxLineBytes < 0 {
		return fmt.Errorf("%w: max_line_bytes must not be negative", ErrInvalidConfig)
	}
	return nil
}

func normalizeList(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
