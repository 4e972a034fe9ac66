package config

import (
	"os"
	"time"
)

// Default values for configuration.
const (
	DefaultEncoding       = "utf-8"
	DefaultFrameIDMask    = 0xFFFFFFFF
	DefaultOutputFormat   = "text"
	DefaultWebhookTimeout = 10 * time.Second
)

// Environment variable names.
const (
	EnvDatabaseEncoding = "CANPLOT_DATABASE_ENCODING"
	EnvOutput           = "CANPLOT_OUTPUT"
)

// OutputFormats lists the accepted output.format values.
var OutputFormats = []string{"text", "json", "chart"}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Encoding:    DefaultEncoding,
			FrameIDMask: DefaultFrameIDMask,
			Strict:      true,
		},
		DecodeChoices: true,
		Output: OutputConfig{
			Format: DefaultOutputFormat,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if enc := os.Getenv(EnvDatabaseEncoding); enc != "" {
		c.Database.Encoding = enc
	}
	if format := os.Getenv(EnvOutput); format != "" {
		c.Output.Format = format
	}
}
