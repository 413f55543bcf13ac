package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{
			name:  "long token truncated to first 10 chars",
			token: "eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9",
			want:  "eyJhbGciOi...",
		},
		{
			name:  "exactly 10 chars unchanged",
			token: "0123456789",
			want:  "0123456789",
		},
		{
			name:  "short token unchanged",
			token: "abc",
			want:  "abc",
		},
		{
			name:  "empty token",
			token: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskToken(tt.token))
		})
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   string
	}{
		{
			name:   "long secret shows first 3 and last 4",
			secret: "abc123456789xyz9",
			want:   "abc***xyz9",
		},
		{
			name:   "short secret fully masked",
			secret: "12345678",
			want:   "***",
		},
		{
			name:   "empty secret fully masked",
			secret: "",
			want:   "***",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskSecret(tt.secret))
		})
	}
}
