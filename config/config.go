// Package config loads and saves the toolchain configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config represents the toolchain configuration
type Config struct {
	// Execution settings
	Execution struct {
		MaxSteps         uint64 `toml:"max_steps"`
		OperandStackSize int    `toml:"operand_stack_size"`
		CallStackSize    int    `toml:"call_stack_size"`
	} `toml:"execution"`

	// Debugger settings
	Debugger struct {
		HistorySize   int  `toml:"history_size"`
		ShowRegisters bool `toml:"show_registers"`
		ListContext   int  `toml:"list_context"`
	} `toml:"debugger"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.MaxSteps = 1000000
	cfg.Execution.OperandStackSize = 1024
	cfg.Execution.CallStackSize = 1024

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.ShowRegisters = true
	cfg.Debugger.ListContext = 5

	return cfg
}

// GetConfigPath returns the platform-specific config file path
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "valang")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "valang")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file. A missing file
// yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
