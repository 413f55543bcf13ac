package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Method is one of the closed set of verbs the proxy forwards. Each variant
// carries its own body policy: GET never sends a body, POST and PUT send the
// given body, DELETE sends a body only when one is present.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodDelete Method = http.MethodDelete
)

// ParseMethod maps a verb string onto the closed set, case-insensitively.
func ParseMethod(verb string) (Method, bool) {
	switch Method(strings.ToUpper(verb)) {
	case MethodGet:
		return MethodGet, true
	case MethodPost:
		return MethodPost, true
	case MethodPut:
		return MethodPut, true
	case MethodDelete:
		return MethodDelete, true
	default:
		return "", false
	}
}

// String returns the verb as sent on the wire.
func (m Method) String() string {
	return string(m)
}

// newRequest builds the downstream request applying the method's body policy.
// Verbs outside the closed set fail with ErrUnsupportedMethod.
func (m Method) newRequest(ctx context.Context, targetURL, body string) (*http.Request, error) {
	var reader io.Reader

	switch m {
	case MethodGet:
		// GET ignores any body entity.
	case MethodPost, MethodPut, MethodDelete:
		if body != "" {
			reader = strings.NewReader(body)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, string(m))
	}

	return http.NewRequestWithContext(ctx, string(m), targetURL, reader)
}
