package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/danmuck/cmdharness/internal/logging"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	EnvName         = "CMDHARNESS_NAME"
	EnvInput        = "CMDHARNESS_INPUT"
	EnvSerialDevice = "CMDHARNESS_SERIAL_DEVICE"
	EnvSerialBaud   = "CMDHARNESS_SERIAL_BAUD"
	EnvMaxLineBytes = "CMDHARNESS_MAX_LINE_BYTES"
	EnvMetricsAddr  = "CMDHARNESS_METRICS_ADDR"
)

// LoadEnvFile loads variables from a .env file without overriding the
// process environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Debug().Str("path", path).Msg("no env file, using process environment")
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	log.Debug().Str("path", path).Msg("env file loaded")
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v, ok := lookupEnv(EnvName); ok {
		cfg.Name = v
	}
	if v, ok := lookupEnv(EnvInput); ok {
		cfg.Input = strings.ToLower(v)
	}
	if v, ok := lookupEnv(EnvSerialDevice); ok {
		cfg.Serial.Device = v
	}
	if v, ok := lookupEnv(EnvSerialBaud); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvSerialBaud, err)
		}
		cfg.Serial.Baud = n
	}
	if v, ok := lookupEnv(EnvMaxLineBytes); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvMaxLineBytes, err)
		}
		cfg.MaxLineBytes = n
	}
	if v, ok := lookupEnv(EnvMetricsAddr); ok {
		cfg.Metrics.Addr = v
	}
	if v, ok := lookupEnv(logging.EnvLogLevel); ok {
		cfg.LogLevel = v
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}
