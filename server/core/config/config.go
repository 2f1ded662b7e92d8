package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// TrustedProxiesConfig holds trusted proxy settings per listener
type TrustedProxiesConfig struct {
	AnalysisServer []string `json:"analysis_server"`
}

// Config holds the configuration for the analysis server
type Config struct {
	WebAddr      string `json:"web_addr"`
	WebPort      int    `json:"web_port"`
	DatabasePath string `json:"database_path"`
	UploadPath   string `json:"upload_path"`
	LogPath      string `json:"log_path"`
	LogLevel     string `json:"log_level"`

	MaxUploadMegabytes int `json:"max_upload_megabytes"`

	AnalyzerCommand        string   `json:"analyzer_command"`
	AnalyzerArgs           []string `json:"analyzer_args"`
	AnalysisQueueSize      int      `json:"analysis_queue_size"`
	AnalysisTimeoutMinutes int      `json:"analysis_timeout_minutes"`

	SessionTTLMinutes          int `json:"session_ttl_minutes"`
	LoginThrottleThreshold     int `json:"login_throttle_threshold"`
	LoginThrottleWindowMinutes int `json:"login_throttle_window_minutes"`

	CameraProbeTimeoutSeconds int `json:"camera_probe_timeout_seconds"`

	TrustedProxies *TrustedProxiesConfig `json:"trusted_proxies,omitempty"`
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {

	dataDir := "."

	homeDir, err := os.UserHomeDir()
	if err == nil && homeDir != "" {
		dataDir = filepath.Join(homeDir, "crashwatch")

		// Ensure the directory exists
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			dataDir = "."
		}
	}

	return &Config{
		WebAddr:                    "0.0.0.0",
		WebPort:                    5000,
		DatabasePath:               filepath.Join(dataDir, "crashwatch.db"),
		UploadPath:                 filepath.Join(dataDir, "uploads"),
		LogPath:                    "logs",
		LogLevel:                   "info",
		MaxUploadMegabytes:         100,
		AnalyzerCommand:            "crashwatch-detector",
		AnalysisQueueSize:          16,
		AnalysisTimeoutMinutes:     15,
		SessionTTLMinutes:          60,
		LoginThrottleThreshold:     10,
		LoginThrottleWindowMinutes: 15,
		CameraProbeTimeoutSeconds:  10,
	}
}

// LoadConfig loads the configuration from a JSON file, then applies any
// environment overrides. A .env file next to the binary is honored.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		// Missing file means defaults plus environment
	} else {
		defer file.Close()

		decoder := json.NewDecoder(file)
		if err := decoder.Decode(config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	// Missing .env is fine; real environment variables still apply.
	godotenv.Load()
	config.applyEnvOverrides()

	return config, nil
}

// applyEnvOverrides overrides select settings from the environment so
// deployments can reconfigure without editing the config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CRASHWATCH_WEB_ADDR"); v != "" {
		c.WebAddr = v
	}
	if v := os.Getenv("CRASHWATCH_WEB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.WebPort = port
		}
	}
	if v := os.Getenv("CRASHWATCH_DATABASE_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("CRASHWATCH_UPLOAD_PATH"); v != "" {
		c.UploadPath = v
	}
	if v := os.Getenv("CRASHWATCH_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("CRASHWATCH_ANALYZER_COMMAND"); v != "" {
		c.AnalyzerCommand = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.WebPort <= 0 || c.WebPort > 65535 {
		return fmt.Errorf("invalid web port: %d", c.WebPort)
	}
	if c.MaxUploadMegabytes <= 0 {
		return fmt.Errorf("invalid max upload size: %d", c.MaxUploadMegabytes)
	}
	if c.AnalysisQueueSize <= 0 {
		return fmt.Errorf("invalid analysis queue size: %d", c.AnalysisQueueSize)
	}
	if c.AnalyzerCommand == "" {
		return fmt.Errorf("analyzer command must be set")
	}
	return nil
}

// SaveConfig saves the configuration to a JSON file
func (c *Config) SaveConfig(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config file: %w", err)
	}

	return nil
}
