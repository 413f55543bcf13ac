package config

import (
	"time"
)

const (
	defaultListen = ":8080"

	// DefaultEnvPrefix is the configurable namespace prefix probed before the
	// fixed OAUTH2_CLIENTS fallback when resolving per-client env overrides.
	DefaultEnvPrefix = "OAUTH_CLIENT"
)

// Config represents the main configuration structure
type Config struct {
	Listen    string `json:"listen" mapstructure:"listen"`
	DataDir   string `json:"data_dir" mapstructure:"data-dir"`
	EnvPrefix string `json:"env_prefix" mapstructure:"env-prefix"`

	// APIKey protects the admin client-management API. Empty disables the
	// admin surface entirely rather than exposing it unauthenticated.
	APIKey string `json:"api_key,omitempty" mapstructure:"api-key"`

	// Clients registered at startup, before any persisted dynamic clients.
	Clients []*ClientConfig `json:"clients" mapstructure:"clients"`

	// Logging configuration
	Logging *LogConfig `json:"logging,omitempty" mapstructure:"logging"`

	// Tracing configuration (optional, disabled by default)
	Tracing *TracingConfig `json:"tracing,omitempty" mapstructure:"tracing"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level         string `json:"level" mapstructure:"level"`
	EnableFile    bool   `json:"enable_file" mapstructure:"enable-file"`
	EnableConsole bool   `json:"enable_console" mapstructure:"enable-console"`
	Filename      string `json:"filename" mapstructure:"filename"`
	LogDir        string `json:"log_dir,omitempty" mapstructure:"log-dir"`
	MaxSize       int    `json:"max_size" mapstructure:"max-size"`       // MB
	MaxBackups    int    `json:"max_backups" mapstructure:"max-backups"` // number of backup files
	MaxAge        int    `json:"max_age" mapstructure:"max-age"`         // days
	Compress      bool   `json:"compress" mapstructure:"compress"`
	JSONFormat    bool   `json:"json_format" mapstructure:"json-format"`
}

// TracingConfig holds configuration for OpenTelemetry tracing
type TracingConfig struct {
	Enabled        bool    `json:"enabled" mapstructure:"enabled"`
	ServiceName    string  `json:"service_name" mapstructure:"service-name"`
	ServiceVersion string  `json:"service_version" mapstructure:"service-version"`
	OTLPEndpoint   string  `json:"otlp_endpoint" mapstructure:"otlp-endpoint"`
	SampleRate     float64 `json:"sample_rate" mapstructure:"sample-rate"`
}

// ClientConfig describes one downstream OAuth integration. Name is the unique
// registry key and is never overridden by environment variables; every other
// field may be, see the clientenv package.
type ClientConfig struct {
	Name           string    `json:"name" mapstructure:"name"`
	TokenEndpoint  string    `json:"token_endpoint" mapstructure:"token-endpoint"`
	ClientID       string    `json:"client_id" mapstructure:"client-id"`
	ClientSecret   string    `json:"client_secret" mapstructure:"client-secret"`
	Scope          string    `json:"scope,omitempty" mapstructure:"scope"`
	Audience       string    `json:"audience,omitempty" mapstructure:"audience"`
	ServiceBaseURL string    `json:"service_base_url" mapstructure:"service-base-url"`
	Created        time.Time `json:"created,omitempty" mapstructure:"created"`
	Updated        time.Time `json:"updated,omitempty" mapstructure:"updated"`
}

// Clone returns a deep copy of the client configuration.
func (c *ClientConfig) Clone() *ClientConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Listen:    defaultListen,
		EnvPrefix: DefaultEnvPrefix,
		Clients:   []*ClientConfig{},
		Logging: &LogConfig{
			Level:         "info",
			EnableFile:    false,
			EnableConsole: true,
			Filename:      "main.log",
			MaxSize:       10,
			MaxBackups:    5,
			MaxAge:        30,
			Compress:      true,
			JSONFormat:    false,
		},
		Tracing: &TracingConfig{
			Enabled:      false,
			ServiceName:  "oauthbff",
			OTLPEndpoint: "localhost:4318",
			SampleRate:   0.1,
		},
	}
}
