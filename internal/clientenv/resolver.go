// Package clientenv resolves effective client settings, letting environment
// variables override statically configured values per field. Resolution is
// recomputed on every read so environment changes take effect on the next
// request without re-registration.
package clientenv

import (
	"os"
	"regexp"
	"strings"

	"oauthbff-go/internal/config"
)

// Environment variable suffixes, one per overridable field. The client name
// itself is the registry key and is never overridden.
const (
	SuffixAudience       = "AUDIENCE"
	SuffixClientID       = "CLIENT_ID"
	SuffixClientSecret   = "CLIENT_SECRET"
	SuffixScope          = "SCOPE"
	SuffixServiceBaseURL = "SERVICE_BASE_URL"
	SuffixTokenEndpoint  = "TOKEN_ENDPOINT"
)

// FallbackEnvPrefix is always probed after the configured namespace prefix.
const FallbackEnvPrefix = "OAUTH2_CLIENTS"

var envUnsafe = regexp.MustCompile(`[^A-Z0-9_]+`)

// NormalizeForEnv converts a client name into an environment-variable-safe
// token: uppercased, with any run of characters outside [A-Z0-9_] collapsed
// to a single underscore.
func NormalizeForEnv(name string) string {
	return envUnsafe.ReplaceAllString(strings.ToUpper(name), "_")
}

// Resolver wraps a static ClientConfig and produces its effective view.
// One resolver is created per registered client and reused for every request
// against it; each accessor re-probes the environment.
type Resolver struct {
	static   *config.ClientConfig
	prefixes []string
}

// NewResolver creates a resolver probing the namespace prefix first, then the
// fixed OAUTH2_CLIENTS fallback. An empty namespace prefix leaves only the
// fallback.
func NewResolver(static *config.ClientConfig, namespacePrefix string) *Resolver {
	var prefixes []string
	if namespacePrefix != "" {
		prefixes = append(prefixes, NormalizeForEnv(namespacePrefix))
	}
	prefixes = append(prefixes, FallbackEnvPrefix)

	return &Resolver{
		static:   static,
		prefixes: prefixes,
	}
}

// Name returns the client name. It is the only field that cannot be
// overridden by an environment variable.
func (r *Resolver) Name() string {
	return r.static.Name
}

func (r *Resolver) TokenEndpoint() string {
	return r.resolve(SuffixTokenEndpoint, r.static.TokenEndpoint)
}

func (r *Resolver) ClientID() string {
	return r.resolve(SuffixClientID, r.static.ClientID)
}

func (r *Resolver) ClientSecret() string {
	return r.resolve(SuffixClientSecret, r.static.ClientSecret)
}

func (r *Resolver) Scope() string {
	return r.resolve(SuffixScope, r.static.Scope)
}

func (r *Resolver) Audience() string {
	return r.resolve(SuffixAudience, r.static.Audience)
}

func (r *Resolver) ServiceBaseURL() string {
	return r.resolve(SuffixServiceBaseURL, r.static.ServiceBaseURL)
}

// Static returns the wrapped static configuration.
func (r *Resolver) Static() *config.ClientConfig {
	return r.static
}

// Effective materializes the current effective view as a ClientConfig.
// Intended for display; request processing reads individual fields so each
// access observes the live environment.
func (r *Resolver) Effective() *config.ClientConfig {
	return &config.ClientConfig{
		Name:           r.Name(),
		TokenEndpoint:  r.TokenEndpoint(),
		ClientID:       r.ClientID(),
		ClientSecret:   r.ClientSecret(),
		Scope:          r.Scope(),
		Audience:       r.Audience(),
		ServiceBaseURL: r.ServiceBaseURL(),
		Created:        r.static.Created,
		Updated:        r.static.Updated,
	}
}

// resolve probes {PREFIX}_{NORMALIZED_NAME}_{suffix} for each prefix in
// order; the first defined variable wins, else the static value is returned.
// A variable set to the empty string counts as defined.
func (r *Resolver) resolve(suffix, staticValue string) string {
	name := NormalizeForEnv(r.static.Name)
	for _, prefix := range r.prefixes {
		if value, ok := os.LookupEnv(prefix + "_" + name + "_" + suffix); ok {
			return value
		}
	}
	return staticValue
}
