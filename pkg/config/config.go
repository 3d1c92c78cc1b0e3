// Package config handles the orbit-chat configuration file. The file lives
// at ~/.config/orbit-chat/config.yaml and is created with defaults on first
// run so the user has something to edit.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	configDirName  = "orbit-chat"
	configFileName = "config.yaml"

	DefaultURL = "http://localhost:3000"
)

type Config struct {
	// URL of the ORBIT server, with or without the /v1/chat suffix.
	URL string `yaml:"url" validate:"required,url"`

	// APIKey is optional; without it the server decides whether to allow
	// the request (local servers usually do).
	APIKey string `yaml:"apiKey,omitempty"`

	// SessionID groups exchanges into one conversation on the server. A
	// fresh one is generated per run when empty.
	SessionID string `yaml:"sessionId,omitempty"`

	Stream     bool `yaml:"stream"`
	ShowTiming bool `yaml:"showTiming,omitempty"`
	Debug      bool `yaml:"debug,omitempty"`
}

// LoadOrCreateConfig reads the config file, writing a default one first if
// none exists yet.
func LoadOrCreateConfig() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine user home directory: %w", err)
	}
	configDir := filepath.Join(homeDir, ".config", configDirName)
	configPath := filepath.Join(configDir, configFileName)

	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		defaultCfg := &Config{
			URL:    DefaultURL,
			Stream: true,
		}
		if err := saveConfig(configPath, defaultCfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return defaultCfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

func saveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ResolveAPIKey picks the API key by precedence: flag, then environment
// variable, then config file. The key is optional, so an empty result is
// not an error.
func ResolveAPIKey(flagVal, envVar, configVal string) string {
	if strings.TrimSpace(flagVal) != "" {
		return strings.TrimSpace(flagVal)
	}
	if envVal := os.Getenv(envVar); strings.TrimSpace(envVal) != "" {
		return strings.TrimSpace(envVal)
	}
	return strings.TrimSpace(configVal)
}

func (cfg *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
