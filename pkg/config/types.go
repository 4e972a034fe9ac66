// Package config provides the optional YAML run configuration for canplot.
package config

import "time"

// Config is the root configuration structure loaded from YAML. Every field
// has a command line flag that overrides it when set.
type Config struct {
	Database      DatabaseConfig  `yaml:"database"`
	Signals       []string        `yaml:"signals,omitempty"`
	DecodeChoices bool            `yaml:"decode_choices"`
	Markers       MarkersConfig   `yaml:"markers"`
	Inputs        []string        `yaml:"inputs,omitempty"`
	Output        OutputConfig    `yaml:"output"`
	Webhooks      []WebhookConfig `yaml:"webhooks,omitempty"`
}

// DatabaseConfig describes how to load the frame database.
type DatabaseConfig struct {
	// Path is the frame database file. The positional argument wins.
	Path string `yaml:"path,omitempty"`

	// Encoding is the text encoding of the file, by WHATWG label.
	Encoding string `yaml:"encoding,omitempty"`

	// FrameIDMask is ANDed with live frame ids before lookup.
	FrameIDMask uint32 `yaml:"frame_id_mask,omitempty"`

	// Strict enables signal bounds, overlap and duplicate checks.
	Strict bool `yaml:"strict"`
}

// MarkersConfig selects which failure categories keep their line numbers.
type MarkersConfig struct {
	InvalidSyntax bool `yaml:"invalid_syntax"`
	UnknownFrames bool `yaml:"unknown_frames"`
	InvalidData   bool `yaml:"invalid_data"`
}

// OutputConfig selects the render sink.
type OutputConfig struct {
	// Format is text, json or chart.
	Format string `yaml:"format,omitempty"`

	// Width is the chart width in columns; zero follows the terminal.
	Width int `yaml:"width,omitempty"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnFailures fires only when some line failed (default).
	WebhookTriggerOnFailures WebhookTrigger = "on_failures"
	// WebhookTriggerAlways fires after every run.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending run reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token; ${VAR} and $VAR are expanded.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_failures" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// ShouldFire reports whether the webhook fires for a run.
func (w *WebhookConfig) ShouldFire(hasFailures bool) bool {
	switch w.Trigger {
	case WebhookTriggerAlways:
		return true
	case WebhookTriggerNever:
		return false
	default:
		return hasFailures
	}
}
