package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTargetURI(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		path  string
		query string
		want  string
	}{
		{
			name: "trailing and leading slash collapse to one",
			base: "https://api.example.com/",
			path: "/v1/users",
			want: "https://api.example.com/v1/users",
		},
		{
			name: "neither slash inserts one",
			base: "https://api.example.com",
			path: "v1/users",
			want: "https://api.example.com/v1/users",
		},
		{
			name: "only base trailing slash concatenates exactly",
			base: "https://api.example.com/",
			path: "v1/users",
			want: "https://api.example.com/v1/users",
		},
		{
			name: "only path leading slash concatenates exactly",
			base: "https://api.example.com",
			path: "/v1/users",
			want: "https://api.example.com/v1/users",
		},
		{
			name: "missing scheme defaults to https",
			base: "api.example.com",
			path: "/v1/users",
			want: "https://api.example.com/v1/users",
		},
		{
			name: "explicit http scheme preserved",
			base: "http://api.example.com",
			path: "/v1",
			want: "http://api.example.com/v1",
		},
		{
			name:  "query appended with single question mark",
			base:  "https://api.example.com",
			path:  "/users",
			query: "id=5",
			want:  "https://api.example.com/users?id=5",
		},
		{
			name: "empty path against bare base",
			base: "https://api.example.com",
			path: "",
			want: "https://api.example.com/",
		},
		{
			name:  "empty query appends nothing",
			base:  "https://api.example.com",
			path:  "/users",
			query: "",
			want:  "https://api.example.com/users",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildTargetURI(tt.base, tt.path, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildTargetURIMalformed(t *testing.T) {
	_, err := BuildTargetURI("https://exa mple.com", "/users", "")
	assert.Error(t, err)
}
