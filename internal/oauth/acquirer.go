package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Credentials carries the resolved settings needed for one token request.
type Credentials struct {
	TokenEndpoint string
	ClientID      string
	ClientSecret  string
	Scope         string
	Audience      string
}

// TokenAcquirer exchanges client credentials for a bearer token.
type TokenAcquirer interface {
	AccessToken(ctx context.Context, creds Credentials) (string, error)
}

// ClientCredentialsAcquirer implements TokenAcquirer with the OAuth 2.0
// client-credentials grant. Each call builds a fresh token source; the proxy
// deliberately does no token caching or refresh-ahead.
type ClientCredentialsAcquirer struct {
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

// NewClientCredentialsAcquirer creates an acquirer. A nil httpClient falls
// back to http.DefaultClient for token endpoint calls.
func NewClientCredentialsAcquirer(httpClient *http.Client, logger *zap.SugaredLogger) *ClientCredentialsAcquirer {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ClientCredentialsAcquirer{
		httpClient: httpClient,
		logger:     logger,
	}
}

// AccessToken requests a token from the configured endpoint. The audience,
// when set, is passed as an endpoint parameter the way Auth0-style issuers
// expect it.
func (a *ClientCredentialsAcquirer) AccessToken(ctx context.Context, creds Credentials) (string, error) {
	conf := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     creds.TokenEndpoint,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	if creds.Scope != "" {
		conf.Scopes = []string{creds.Scope}
	}
	if creds.Audience != "" {
		conf.EndpointParams = url.Values{"audience": []string{creds.Audience}}
	}

	// Route the token request through our transport so timeouts and tracing
	// apply to the token endpoint call as well.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)

	token, err := conf.TokenSource(ctx).Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenAcquisition, err)
	}
	if token.AccessToken == "" {
		return "", ErrEmptyToken
	}

	a.logTokenIssued(creds, token.AccessToken)

	return token.AccessToken, nil
}

// logTokenIssued logs a truncated token and, when the token is a JWT, its
// expiry claim. The claims are parsed unverified; they are used for logging
// only, never for validation.
func (a *ClientCredentialsAcquirer) logTokenIssued(creds Credentials, accessToken string) {
	if a.logger == nil {
		return
	}

	fields := []interface{}{
		"client_id", MaskSecret(creds.ClientID),
		"token", MaskToken(accessToken),
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err == nil && claims.ExpiresAt != nil {
		fields = append(fields, "expires_at", claims.ExpiresAt.Time)
	}

	a.logger.Debugw("Access token issued", fields...)
}
