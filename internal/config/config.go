package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all panel host configuration.
type Config struct {
	Server  ServerConfig
	Panel   PanelConfig
	Content ContentConfig
	Inbound InboundConfig
	Logging LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// PanelConfig holds per-panel behavior configuration.
type PanelConfig struct {
	// FocusDelayMS is the debounce window for focus handoff attempts.
	FocusDelayMS int `envconfig:"PANEL_FOCUS_DELAY_MS" default:"50"`
	// EndpointTemplate maps a panel id to its content endpoint. The
	// literal "{{id}}" is replaced with the panel id.
	EndpointTemplate string `envconfig:"PANEL_ENDPOINT_TEMPLATE" default:"http://localhost:8000/content/{{id}}"`
}

// ContentConfig holds content-serving configuration.
type ContentConfig struct {
	RootDir string `envconfig:"CONTENT_ROOT_DIR" default:"./content"`
}

// InboundConfig rate-limits envelopes arriving from panel content.
type InboundConfig struct {
	MessagesPerSecond float64 `envconfig:"PANEL_INBOUND_RPS" default:"200"`
	Burst             int     `envconfig:"PANEL_INBOUND_BURST" default:"400"`
	Enabled           bool    `envconfig:"PANEL_INBOUND_LIMIT_ENABLED" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// FocusDelay returns the focus debounce window as a duration.
func (p PanelConfig) FocusDelay() time.Duration {
	return time.Duration(p.FocusDelayMS) * time.Millisecond
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Panel: PanelConfig{
			FocusDelayMS:     50,
			EndpointTemplate: "http://localhost:8000/content/{{id}}",
		},
		Content: ContentConfig{
			RootDir: "./content",
		},
		Inbound: InboundConfig{
			MessagesPerSecond: 200,
			Burst:             400,
			Enabled:           true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
