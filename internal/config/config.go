// Package config provides JSON-file-backed configuration for cmd/nesgo.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the settings cmd/nesgo needs to run a ROM.
type Config struct {
	ROMPath            string `json:"rom_path"`
	TraceEnabled       bool   `json:"trace_enabled"`
	TracePath          string `json:"trace_path"`
	PanicOnDecodeError bool   `json:"panic_on_decode_error"`

	// Internal state
	configPath string
	loaded     bool
}

// NewConfig creates a new configuration with default values.
func NewConfig() *Config {
	return &Config{
		ROMPath:            "",
		TraceEnabled:       false,
		TracePath:          "./trace.log",
		PanicOnDecodeError: true,
		loaded:             false,
	}
}

// LoadFromFile loads configuration from a JSON file. If the file does
// not exist, it saves the current (default) configuration to path and
// returns.
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %v", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %v", err)
	}

	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %v", err)
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON file, creating its parent
// directory if needed.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %v", err)
		}
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %v", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %v", err)
	}

	c.configPath = path
	return nil
}

// Save saves the configuration to the file it was last loaded from or
// saved to.
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("no config file path set")
	}
	return c.SaveToFile(c.configPath)
}

func (c *Config) validate() error {
	if c.ROMPath == "" {
		return fmt.Errorf("rom_path must be set")
	}
	if c.TraceEnabled && c.TracePath == "" {
		c.TracePath = "./trace.log"
	}
	return nil
}

// IsLoaded reports whether the configuration was loaded from a file
// rather than constructed with defaults.
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// GetConfigPath returns the path to the config file.
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return "./config/nesgo.json"
}
