// Package proxy implements the per-request execution pipeline: client lookup,
// token acquisition, target URI construction, downstream call and
// response/error mapping.
package proxy

import "errors"

var (
	// ErrIncompleteContext is returned by the context builder when required
	// fields are missing. This fails fast, before any downstream interaction.
	ErrIncompleteContext = errors.New("client name and method handler must be set")

	// ErrUnsupportedMethod indicates a verb outside the closed method set
	// reached dispatch. This is a defect in the inbound routing layer, not an
	// expected per-request condition.
	ErrUnsupportedMethod = errors.New("unsupported HTTP method")
)
