package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"oauthbff-go/internal/oauth"
	"oauthbff-go/internal/registry"
)

const contentTypeJSON = "application/json"

// hop-by-hop headers never replayed to the caller; the proxy's own transport
// re-encodes the body.
var droppedResponseHeaders = []string{"Transfer-Encoding", "Content-Encoding"}

// Result is the outbound mapping of a completed pipeline run. Failures are
// mapped into a Result too; callers never see raw internal errors.
type Result struct {
	StatusCode  int
	Body        string
	ContentType string
	Header      http.Header
}

// Orchestrator runs the proxy pipeline. One instance serves all requests;
// each request runs independently on its caller's goroutine.
type Orchestrator struct {
	registry *registry.Registry
	logger   *zap.SugaredLogger

	// newTransport yields a dedicated handle per downstream call. The handle
	// is released on every exit path; pooling is a transport-layer concern
	// outside the pipeline's contract.
	newTransport func() *http.Client
}

// NewOrchestrator creates the pipeline around a client registry.
func NewOrchestrator(reg *registry.Registry, logger *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{
		registry:     reg,
		logger:       logger,
		newTransport: defaultTransportFactory,
	}
}

func defaultTransportFactory() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
		},
	}
}

// Execute runs the pipeline for one request context: registry lookup, token
// acquisition, target URI construction, downstream call, response mapping.
// Steps are strictly sequential; three failure exits map to 404 or 500.
func (o *Orchestrator) Execute(ctx context.Context, rc *RequestContext) *Result {
	client, ok := o.registry.Lookup(rc.ClientName())
	if !ok {
		// A miss is an expected outcome, not an error.
		o.logger.Debugw("Client not registered", "client", rc.ClientName())
		return notFoundResult(rc.ClientName())
	}

	token, err := client.AccessToken(ctx)
	if err != nil {
		o.logger.Errorw("Error retrieving token",
			"client", rc.ClientName(),
			"error", err)
		return &Result{
			StatusCode:  http.StatusInternalServerError,
			Body:        fmt.Sprintf("Error retrieving token for client %s: %s", rc.ClientName(), err.Error()),
			ContentType: "text/plain",
		}
	}

	target, err := BuildTargetURI(client.ServiceBaseURL(), rc.Path(), rc.QueryString())
	if err != nil {
		return o.proxyFailure(rc, err)
	}

	o.logger.Debugw("Proxying request",
		"method", rc.Method().String(),
		"target", target,
		"authorization", "Bearer "+oauth.MaskToken(token))

	result, err := o.callDownstream(ctx, rc, target, token)
	if err != nil {
		return o.proxyFailure(rc, err)
	}

	return result
}

// TokenResult resolves a client and returns its raw access token, mapped the
// same way the proxy pipeline maps lookup and token failures. Backs the
// GET /{clientName}/token endpoint.
func (o *Orchestrator) TokenResult(ctx context.Context, clientName string) *Result {
	client, ok := o.registry.Lookup(clientName)
	if !ok {
		return notFoundResult(clientName)
	}

	token, err := client.AccessToken(ctx)
	if err != nil {
		o.logger.Errorw("Error retrieving token",
			"client", clientName,
			"error", err)
		return &Result{
			StatusCode:  http.StatusInternalServerError,
			Body:        fmt.Sprintf("Error retrieving token for client %s: %s", clientName, err.Error()),
			ContentType: "text/plain",
		}
	}

	return &Result{
		StatusCode:  http.StatusOK,
		Body:        token,
		ContentType: "text/plain",
	}
}

// callDownstream executes the downstream call with a dedicated transport
// handle and maps the response. The handle and the response body are released
// on every exit path.
func (o *Orchestrator) callDownstream(ctx context.Context, rc *RequestContext, target, token string) (*Result, error) {
	req, err := rc.Method().newRequest(ctx, target, rc.Body())
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token)

	if rc.HasBody() && rc.Method() != MethodGet {
		req.Header.Set("Content-Type", contentTypeJSON)
	} else if rc.Method() == MethodGet || rc.Method() == MethodDelete {
		// Some downstream gateways reject a Content-Type on bodyless
		// GET/DELETE; force omission rather than trusting defaults.
		req.Header.Del("Content-Type")
	}

	client := o.newTransport()
	defer client.CloseIdleConnections()

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Result{
		StatusCode:  resp.StatusCode,
		Body:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		Header:      copyResponseHeaders(resp.Header),
	}, nil
}

// copyResponseHeaders copies every downstream header except the hop-by-hop
// set, preserving duplicated names with multiple values.
func copyResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for name, values := range src {
		if isDroppedHeader(name) {
			continue
		}
		for _, value := range values {
			dst.Add(name, value)
		}
	}
	return dst
}

func isDroppedHeader(name string) bool {
	for _, dropped := range droppedResponseHeaders {
		if strings.EqualFold(name, dropped) {
			return true
		}
	}
	return false
}

func notFoundResult(clientName string) *Result {
	return &Result{
		StatusCode:  http.StatusNotFound,
		Body:        "OAuth client configuration not found for: " + clientName,
		ContentType: "text/plain",
	}
}

// proxyFailure is the generic fallback for failures after token acquisition:
// malformed target URIs, transport errors, response mapping errors.
func (o *Orchestrator) proxyFailure(rc *RequestContext, err error) *Result {
	o.logger.Errorw("Error proxying request",
		"method", rc.Method().String(),
		"client", rc.ClientName(),
		"error", err)
	return &Result{
		StatusCode:  http.StatusInternalServerError,
		Body:        "Error proxying request: " + err.Error(),
		ContentType: "text/plain",
	}
}
