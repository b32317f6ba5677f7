package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
	"mvdan.cc/sh/v3/shell"

	"github.com/oshokin/flatpak-runtime-updater/internal/logger"
)

// Config holds the tunables of a single run.
type Config struct {
	// FlatpakCommand is the command that runs flatpak, in shell word syntax
	// (for example "flatpak --user" or "flatpak-spawn --host flatpak").
	FlatpakCommand string `yaml:"flatpak_command"`
	// SearchTerm replaces the runtime identifier as the flatpak search query when set.
	SearchTerm string `yaml:"search_term,omitempty"`
	// Timeout bounds the flatpak invocation. Zero waits indefinitely.
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// AtomicWrite writes the manifest through a staged file and a rename.
	AtomicWrite bool `yaml:"atomic_write,omitempty"`
	// LogLevel is the minimum level of diagnostic output.
	LogLevel string `yaml:"log_level,omitempty"`
}

const (
	// DefaultFlatpakCommand runs the flatpak found on PATH.
	DefaultFlatpakCommand = "flatpak"

	// DefaultLogLevel is used when the settings do not name one.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the default file permission for settings files.
	DefaultFilePermissions = 0o600
)

var (
	// ErrInvalidCommand is returned when flatpak_command does not parse into words.
	ErrInvalidCommand = errors.New("invalid flatpak command")
	// ErrInvalidLogLevel is returned for an unknown log_level.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidTimeout is returned for a negative timeout.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
)

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		FlatpakCommand: DefaultFlatpakCommand,
		LogLevel:       DefaultLogLevel,
	}
}

// Load reads settings from path and validates them.
// An empty path returns Default.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes settings to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults and checks the settings.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.FlatpakCommand == "" {
		cfg.FlatpakCommand = DefaultFlatpakCommand
	}

	if _, err := cfg.Command(); err != nil {
		return err
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%q: %w", cfg.LogLevel, ErrInvalidLogLevel)
	}

	if cfg.Timeout < 0 {
		return fmt.Errorf("%s: %w", cfg.Timeout, ErrInvalidTimeout)
	}

	return nil
}

// Command splits FlatpakCommand into argv words. Variable references expand
// to nothing, the environment is never consulted.
func (c *Config) Command() ([]string, error) {
	words, err := shell.Fields(c.FlatpakCommand, func(string) string { return "" })
	if err != nil {
		return nil, fmt.Errorf("%q: %w: %w", c.FlatpakCommand, ErrInvalidCommand, err)
	}

	if len(words) == 0 {
		return nil, fmt.Errorf("%q: %w", c.FlatpakCommand, ErrInvalidCommand)
	}

	return words, nil
}
