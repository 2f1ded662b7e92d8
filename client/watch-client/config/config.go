package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds the application configuration
type Config struct {
	ServerURL            string `json:"server_url"`
	EventsURL            string `json:"events_url"`             // websocket endpoint for push events
	PreviewDir           string `json:"preview_dir"`            // directory for transient preview copies
	ResetDelaySeconds    int    `json:"reset_delay_seconds"`    // how long terminal results stay visible
	ServerTimeoutSeconds int    `json:"server_timeout_seconds"` // HTTP timeout for server requests (in seconds)
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file doesn't exist, create a default one
			defaultConfig := &Config{
				ServerURL:            "http://localhost:5000",
				EventsURL:            "ws://localhost:5000/events",
				PreviewDir:           "previews",
				ResetDelaySeconds:    3,
				ServerTimeoutSeconds: 0, // no client-side upload timeout
			}
			if err := saveConfig(filename, defaultConfig); err != nil {
				return nil, fmt.Errorf("failed to create default config file: %w", err)
			}
			fmt.Printf("Default config file created at %s\n", filename)
			return defaultConfig, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults for missing values
	if config.ServerURL == "" {
		config.ServerURL = "http://localhost:5000"
	}
	if config.EventsURL == "" {
		config.EventsURL = "ws://localhost:5000/events"
	}
	if config.PreviewDir == "" {
		config.PreviewDir = "previews"
	}
	if config.ResetDelaySeconds == 0 {
		config.ResetDelaySeconds = 3
	}

	return &config, nil
}

// ConfigOverrides holds potential override values for configuration
type ConfigOverrides struct {
	ServerURL *string
	EventsURL *string
}

// Override allows overriding specific configuration values using ConfigOverrides struct
func (c *Config) Override(overrides ConfigOverrides) {
	if overrides.ServerURL != nil && *overrides.ServerURL != "" {
		c.ServerURL = *overrides.ServerURL
	}
	if overrides.EventsURL != nil && *overrides.EventsURL != "" {
		c.EventsURL = *overrides.EventsURL
	}
}

// saveConfig saves a configuration to a JSON file
func saveConfig(filename string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
