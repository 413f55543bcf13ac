// Package oauth provides the token-acquisition boundary: it exchanges client
// credentials for bearer tokens used when proxying downstream calls.
package oauth

import "errors"

// OAuth-specific sentinel errors for consistent error handling across the codebase.
var (
	// ErrTokenAcquisition indicates the token endpoint could not issue a token.
	// The proxy surfaces this as a 500 without retrying; retrying the whole
	// request is the caller's responsibility.
	ErrTokenAcquisition = errors.New("failed to obtain OAuth access token")

	// ErrEmptyToken indicates the token endpoint answered but the response
	// carried no access token.
	ErrEmptyToken = errors.New("token endpoint returned an empty access token")
)
