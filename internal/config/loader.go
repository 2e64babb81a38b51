package config

import (
	"log"
	"os"
	"strconv"
)

// Load loads configuration from environment variables.
// Falls back to defaults for any missing values.
func Load() *Config {
	cfg := Default()

	if port := os.Getenv("MAVGCS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	if host := os.Getenv("MAVGCS_HOST"); host != "" {
		cfg.Server.Host = host
	}

	if logLevel := os.Getenv("MAVGCS_LOG_LEVEL"); logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if addr := os.Getenv("MAVGCS_LINK_ADDRESS"); addr != "" {
		cfg.Link.DefaultAddress = addr
	}

	if rate := os.Getenv("MAVGCS_LINK_RATE_HZ"); rate != "" {
		if r, err := strconv.Atoi(rate); err == nil {
			cfg.Link.DefaultRateHz = r
		}
	}

	if await := os.Getenv("MAVGCS_AWAIT_PARAMS"); await != "" {
		cfg.Link.AwaitParams = await == "1" || await == "true"
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg
}
