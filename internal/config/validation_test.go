package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidateEmptyListen(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Listen = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")
}

func TestValidateClients(t *testing.T) {
	tests := []struct {
		name    string
		clients []*ClientConfig
		wantErr string
	}{
		{
			name:    "nil entry",
			clients: []*ClientConfig{nil},
			wantErr: "must not be null",
		},
		{
			name:    "missing name",
			clients: []*ClientConfig{{ClientID: "x"}},
			wantErr: "client name is required",
		},
		{
			name: "duplicate name",
			clients: []*ClientConfig{
				{Name: "svc"},
				{Name: "svc"},
			},
			wantErr: "duplicate client name",
		},
		{
			name: "valid",
			clients: []*ClientConfig{
				{Name: "a"},
				{Name: "b"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Clients = tt.clients

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging = &LogConfig{Level: "verbose"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log level")
}

func TestValidateTracing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tracing = &TracingConfig{Enabled: true, SampleRate: 2}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tracing.otlp_endpoint")
	assert.Contains(t, err.Error(), "sample_rate")
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Listen = ""
	cfg.Clients = []*ClientConfig{{}}

	err := cfg.Validate()
	require.Error(t, err)

	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Len(t, errs, 2)
}
