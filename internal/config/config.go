package config

import (
	"fmt"
)

// Config holds all application configuration for the status demo and the
// default link parameters used when a target doesn't override them.
type Config struct {
	Server  ServerConfig
	Link    LinkConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	CORSOrigins        []string
	TargetRegistryPath string // path to targets.yaml
}

type LinkConfig struct {
	// Defaults applied to a target when it doesn't specify its own.
	DefaultAddress string // e.g. "udp:0.0.0.0:14550"
	DefaultRateHz  int
	AwaitParams    bool
}

type LoggingConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json", "text"
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			CORSOrigins: []string{
				"http://localhost:5173",
				"http://localhost:3000",
			},
			TargetRegistryPath: "./data/config/targets.yaml",
		},
		Link: LinkConfig{
			DefaultAddress: "udp:0.0.0.0:14550",
			DefaultRateHz:  4,
			AwaitParams:    false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Link.DefaultRateHz < 0 {
		return fmt.Errorf("invalid link rate: %d", c.Link.DefaultRateHz)
	}

	return nil
}

// ServerAddr returns the status server address as host:port.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
