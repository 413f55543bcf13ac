package proxy

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildTargetURI combines the effective service base URL with the request
// path and query string:
//
//   - a base without a scheme delimiter gets "https://" prepended;
//   - base and path are joined with exactly one slash at the seam;
//   - a non-empty query string is appended with a single "?".
//
// A malformed result is a configuration error for this request.
func BuildTargetURI(baseURL, path, queryString string) (string, error) {
	if !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}

	switch {
	case strings.HasSuffix(baseURL, "/") && strings.HasPrefix(path, "/"):
		path = path[1:]
	case !strings.HasSuffix(baseURL, "/") && !strings.HasPrefix(path, "/"):
		path = "/" + path
	}

	target := baseURL + path
	if queryString != "" {
		target += "?" + queryString
	}

	if _, err := url.ParseRequestURI(target); err != nil {
		return "", fmt.Errorf("invalid target URI %q: %w", target, err)
	}

	return target, nil
}
