package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSeparator     = 2
	DefaultCallTimeout   = 2 * time.Second
	DefaultSweepInterval = 30 * time.Second
	DefaultLogLevel      = "info"
)

// Config holds gizmotray settings loaded from config.yaml.
type Config struct {
	// Separator is the vertical gap left between stacked gizmos by align.
	Separator int `yaml:"separator"`
	// CallTimeout bounds every remote call to a gizmo. A timed-out call is
	// treated like any other failed call.
	CallTimeout time.Duration `yaml:"call_timeout"`
	// MaxConcurrency caps fan-out workers. 0 = unbounded.
	MaxConcurrency int `yaml:"max_concurrency"`
	// RegistryDir overrides the directory gizmos register their sockets in.
	RegistryDir string `yaml:"registry_dir,omitempty"`
	LogLevel    string `yaml:"log_level"`

	FrontHotkey string `yaml:"front_hotkey"`
	AlignHotkey string `yaml:"align_hotkey"`
	CloseHotkey string `yaml:"close_hotkey"`
	MenuHotkey  string `yaml:"menu_hotkey"`

	PaletteBackend string        `yaml:"palette_backend"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
}

// ValidationError points at the config key that failed validation.
type ValidationError struct {
	Path string
	File string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %v", e.File, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Separator:      DefaultSeparator,
		CallTimeout:    DefaultCallTimeout,
		MaxConcurrency: 0,
		LogLevel:       DefaultLogLevel,
		FrontHotkey:    "Mod4-Shift-f",
		AlignHotkey:    "Mod4-Shift-a",
		CloseHotkey:    "",
		MenuHotkey:     "Mod4-Shift-g",
		PaletteBackend: "auto",
		SweepInterval:  DefaultSweepInterval,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Separator < 0 {
		return &ValidationError{Path: "separator", Err: fmt.Errorf("separator must be >= 0")}
	}
	if c.CallTimeout <= 0 {
		return &ValidationError{Path: "call_timeout", Err: fmt.Errorf("call_timeout must be > 0")}
	}
	if c.MaxConcurrency < 0 {
		return &ValidationError{Path: "max_concurrency", Err: fmt.Errorf("max_concurrency must be >= 0 (0 = unbounded)")}
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	switch c.PaletteBackend {
	case "auto", "rofi", "fuzzel", "dmenu", "wofi":
	default:
		return &ValidationError{Path: "palette_backend", Err: fmt.Errorf("palette_backend must be one of: auto, rofi, fuzzel, dmenu, wofi")}
	}
	if c.SweepInterval < 0 {
		return &ValidationError{Path: "sweep_interval", Err: fmt.Errorf("sweep_interval must be >= 0 (0 disables sweeping)")}
	}
	return nil
}

// Save validates the config and writes it to the default config path.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo validates the config and writes it to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
