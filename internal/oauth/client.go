package oauth

import (
	"context"

	"oauthbff-go/internal/clientenv"
)

// Client couples one registered client's resolved settings view with the
// token acquirer. A single Client is created per registration and reused for
// every request against that client name; its settings accessors re-resolve
// environment overrides on each call.
type Client struct {
	settings *clientenv.Resolver
	acquirer TokenAcquirer
}

// NewClient creates a client handle around a settings resolver.
func NewClient(settings *clientenv.Resolver, acquirer TokenAcquirer) *Client {
	return &Client{
		settings: settings,
		acquirer: acquirer,
	}
}

// Name returns the client's registry key.
func (c *Client) Name() string {
	return c.settings.Name()
}

// ServiceBaseURL returns the effective downstream base URL.
func (c *Client) ServiceBaseURL() string {
	return c.settings.ServiceBaseURL()
}

// Settings returns the live settings resolver.
func (c *Client) Settings() *clientenv.Resolver {
	return c.settings
}

// AccessToken acquires a bearer token using the client's effective
// credentials as resolved at this instant.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	return c.acquirer.AccessToken(ctx, Credentials{
		TokenEndpoint: c.settings.TokenEndpoint(),
		ClientID:      c.settings.ClientID(),
		ClientSecret:  c.settings.ClientSecret(),
		Scope:         c.settings.Scope(),
		Audience:      c.settings.Audience(),
	})
}
