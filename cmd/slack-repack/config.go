package main

import (
	"fmt"
	"os"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config carries the file-configurable defaults. Flags and positional
// arguments always win over file values.
type Config struct {
	// OutputZip is the default archive target when no positional output
	// path is given. Empty keeps <input-dir>/slack_export.zip.
	OutputZip string `yaml:"output_zip"`

	// Compact emits compact JSON artifacts.
	Compact bool `yaml:"compact"`

	// LogLevel is a zap level name such as debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// SchemaDir is the default output directory of the schema subcommand.
	SchemaDir string `yaml:"schema_dir"`
}

func defaultConfig() Config {
	return Config{
		LogLevel: "info",
	}
}

func (c Config) Validate() error {
	if c.LogLevel != "" {
		if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("unsupported log_level: %s", c.LogLevel)
		}
	}
	return nil
}

// loadConfig reads the YAML config file. Path resolution: the explicit flag
// first, then SLACK_REPACK_CONFIG; with neither, built-in defaults apply.
// Environment references like ${HOME} expand before parsing, and
// SLACK_REPACK_LOG_LEVEL overrides the configured level.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	path = firstNonEmpty(path, os.Getenv("SLACK_REPACK_CONFIG"))
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		expanded := os.ExpandEnv(string(b))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.LogLevel = envOrDefault("SLACK_REPACK_LOG_LEVEL", cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
