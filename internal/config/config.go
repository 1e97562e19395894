package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// BinaryEnvVar overrides the configured HandBrakeCLI path when set.
const BinaryEnvVar = "HBWRAP_HANDBRAKE_BINARY"

// HandBrake contains transcoder invocation defaults.
type HandBrake struct {
	Binary string `toml:"binary"`
	Preset string `toml:"preset"`
	Format string `toml:"format"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Dir    string `toml:"dir"`
}

// Config is the root of the hbwrap configuration file.
type Config struct {
	HandBrake HandBrake `toml:"handbrake"`
	Logging   Logging   `toml:"logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{Logging: Logging{Level: "info", Format: "text"}}
}

// DefaultPath returns the conventional configuration file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "hbwrap", "config.toml"), nil
}

// Load reads the configuration file at path, or the default location when
// path is empty. A missing file yields defaults. Returns the resolved path
// and whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, "", false, err
		}
		resolved = p
	}

	cfg := Default()
	exists := true
	raw, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		exists = false
	case err != nil:
		return nil, resolved, false, fmt.Errorf("read config: %w", err)
	default:
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return nil, resolved, true, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	if env := strings.TrimSpace(os.Getenv(BinaryEnvVar)); env != "" {
		cfg.HandBrake.Binary = env
	}
	if err := cfg.Validate(); err != nil {
		return nil, resolved, exists, err
	}
	return &cfg, resolved, exists, nil
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

// LogOutputs returns the log writer targets derived from the logging
// section: stderr, plus a log file when a directory is configured.
func (c *Config) LogOutputs() ([]string, error) {
	outputs := []string{"stderr"}
	dir := strings.TrimSpace(c.Logging.Dir)
	if dir == "" {
		return outputs, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	return append(outputs, filepath.Join(dir, "hbwrap.log")), nil
}

// Sample returns the annotated sample configuration file.
func Sample() string { return sampleConfig }
