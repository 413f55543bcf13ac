package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a single configuration problem
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates all problems found in one pass
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for problems. All client entries are
// checked so a single pass reports every issue.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if c.Listen == "" {
		errs = append(errs, ValidationError{Field: "listen", Message: "listen address must not be empty"})
	}

	seen := make(map[string]bool, len(c.Clients))
	for i, client := range c.Clients {
		field := fmt.Sprintf("clients[%d]", i)
		if client == nil {
			errs = append(errs, ValidationError{Field: field, Message: "client entry must not be null"})
			continue
		}
		if client.Name == "" {
			errs = append(errs, ValidationError{Field: field + ".name", Message: "client name is required"})
			continue
		}
		if seen[client.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate client name %q", client.Name),
			})
		}
		seen[client.Name] = true
	}

	if c.Logging != nil {
		switch c.Logging.Level {
		case "", "trace", "debug", "info", "warn", "error":
		default:
			errs = append(errs, ValidationError{
				Field:   "logging.level",
				Message: fmt.Sprintf("unknown log level %q", c.Logging.Level),
			})
		}
	}

	if c.Tracing != nil && c.Tracing.Enabled {
		if c.Tracing.OTLPEndpoint == "" {
			errs = append(errs, ValidationError{Field: "tracing.otlp_endpoint", Message: "required when tracing is enabled"})
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			errs = append(errs, ValidationError{Field: "tracing.sample_rate", Message: "must be between 0 and 1"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
