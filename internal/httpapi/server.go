// Package httpapi exposes the proxy surface and the admin client-management
// API over a chi router.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"oauthbff-go/internal/clientenv"
	"oauthbff-go/internal/config"
	"oauthbff-go/internal/contracts"
	"oauthbff-go/internal/logs"
	"oauthbff-go/internal/oauth"
	"oauthbff-go/internal/observability"
	"oauthbff-go/internal/proxy"
	"oauthbff-go/internal/registry"
	"oauthbff-go/internal/reqcontext"
	"oauthbff-go/internal/storage"
)

// Server routes inbound requests to the proxy pipeline and serves the admin
// API. The storage, sanitizer and observability dependencies are optional;
// nil disables persistence, secret masking registration and metrics
// respectively.
type Server struct {
	cfg          *config.Config
	registry     *registry.Registry
	orchestrator *proxy.Orchestrator
	acquirer     oauth.TokenAcquirer
	store        *storage.BoltDB
	sanitizer    *logs.SecretSanitizer
	obs          *observability.Manager
	logger       *zap.SugaredLogger
	router       *chi.Mux
}

// NewServer creates the HTTP server around an already populated registry.
func NewServer(
	cfg *config.Config,
	reg *registry.Registry,
	orchestrator *proxy.Orchestrator,
	acquirer oauth.TokenAcquirer,
	store *storage.BoltDB,
	sanitizer *logs.SecretSanitizer,
	obs *observability.Manager,
	logger *zap.SugaredLogger,
) *Server {
	s := &Server{
		cfg:          cfg,
		registry:     reg,
		orchestrator: orchestrator,
		acquirer:     acquirer,
		store:        store,
		sanitizer:    sanitizer,
		obs:          obs,
		logger:       logger,
		router:       chi.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	if s.obs != nil {
		s.router.Use(s.obs.HTTPMiddleware())
	}
	s.router.Use(httpLoggingMiddleware(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)

	s.router.Get("/ready", s.handleReady)

	if s.obs != nil {
		s.router.Handle("/metrics", s.obs.Metrics().Handler())
	}

	// Admin client management, protected by API key.
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(correlationIDMiddleware(reqcontext.SourceAdminAPI))
		r.Use(s.apiKeyAuthMiddleware())

		r.Get("/clients", s.handleListClients)
		r.Post("/clients", s.handleRegisterClient)
		r.Delete("/clients/{name}", s.handleDeleteClient)
	})

	// Proxy surface. Static routes above take precedence over the
	// clientName parameter.
	s.router.Group(func(r chi.Router) {
		r.Use(correlationIDMiddleware(reqcontext.SourceProxy))

		r.Get("/{clientName}/token", s.handleToken)

		for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
			r.MethodFunc(method, "/{clientName}/proxy", s.handleProxy)
			r.MethodFunc(method, "/{clientName}/proxy/*", s.handleProxy)
		}
	})
}

// handleReady reports process liveness with a fixed plain-text body.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Ready"))
}

// handleProxy forwards one request through the pipeline and replays the
// mapped result to the caller.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	clientName := chi.URLParam(r, "clientName")

	method, ok := proxy.ParseMethod(r.Method)
	if !ok {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Errorw("Failed to read request body", "client", clientName, "error", err)
		s.writePlain(w, http.StatusInternalServerError, "Error proxying request: "+err.Error())
		return
	}

	rc, err := proxy.NewContextBuilder().
		ClientName(clientName).
		Method(method).
		Path(chi.URLParam(r, "*")).
		QueryString(r.URL.RawQuery).
		Body(string(body)).
		Build()
	if err != nil {
		s.writePlain(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx := r.Context()
	if s.obs != nil {
		var span oteltrace.Span
		ctx, span = s.obs.Tracing().TraceProxyCall(ctx, clientName, method.String())
		defer span.End()
	}

	start := time.Now()
	result := s.orchestrator.Execute(ctx, rc)

	if s.obs != nil {
		s.obs.Metrics().RecordProxyRequest(clientName, method.String(), result.StatusCode, time.Since(start))
		if result.StatusCode >= http.StatusInternalServerError {
			s.obs.Tracing().SetSpanError(ctx, errors.New(result.Body))
		}
	}

	s.writeResult(w, result)
}

// handleToken returns the raw access token for a registered client.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	clientName := chi.URLParam(r, "clientName")

	ctx := r.Context()
	if s.obs != nil {
		var span oteltrace.Span
		ctx, span = s.obs.Tracing().TraceTokenRequest(ctx, clientName)
		defer span.End()
	}

	result := s.orchestrator.TokenResult(ctx, clientName)

	if s.obs != nil {
		s.obs.Metrics().RecordTokenRequest(clientName, result.StatusCode == http.StatusOK)
		if result.StatusCode >= http.StatusInternalServerError {
			s.obs.Tracing().SetSpanError(ctx, errors.New(result.Body))
		}
	}

	s.writeResult(w, result)
}

// Admin API handlers

func (s *Server) handleListClients(w http.ResponseWriter, _ *http.Request) {
	names := s.registry.Names()
	sort.Strings(names)

	summaries := make([]contracts.ClientSummary, 0, len(names))
	for _, name := range names {
		client, ok := s.registry.Lookup(name)
		if !ok {
			continue
		}
		summaries = append(summaries, clientSummary(client))
	}

	s.writeSuccess(w, summaries)
}

func (s *Server) handleRegisterClient(w http.ResponseWriter, r *http.Request) {
	var req contracts.RegisterClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "client name is required")
		return
	}

	cc := &config.ClientConfig{
		Name:           req.Name,
		TokenEndpoint:  req.TokenEndpoint,
		ClientID:       req.ClientID,
		ClientSecret:   req.ClientSecret,
		Scope:          req.Scope,
		Audience:       req.Audience,
		ServiceBaseURL: req.ServiceBaseURL,
	}

	if s.store != nil {
		// Re-registering an existing name keeps its original Created stamp.
		if prev, err := s.store.GetClient(cc.Name); err == nil && prev != nil {
			cc.Created = prev.Created
		}
		if err := s.store.SaveClient(cc); err != nil {
			s.logger.Errorw("Failed to persist client", "client", cc.Name, "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to persist client")
			return
		}
	}

	client := s.registerClient(cc)

	s.logger.Infow("Client registered",
		"client", cc.Name,
		"service_base_url", cc.ServiceBaseURL,
		"source", string(reqcontext.GetRequestSource(r.Context())))

	s.writeJSON(w, http.StatusCreated, contracts.NewSuccessResponse(clientSummary(client)))
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	removed, ok := s.registry.Remove(name)
	if !ok {
		s.writeError(w, http.StatusNotFound, "client not found: "+name)
		return
	}

	if s.store != nil {
		if _, err := s.store.DeleteClient(name); err != nil {
			s.logger.Warnw("Failed to delete persisted client", "client", name, "error", err)
		}
	}

	if s.sanitizer != nil {
		if secret := removed.Settings().Static().ClientSecret; secret != "" {
			s.sanitizer.UnregisterResolvedSecret(secret)
		}
	}

	s.updateClientGauge()

	s.logger.Infow("Client unregistered",
		"client", name,
		"source", string(reqcontext.GetRequestSource(r.Context())))

	s.writeSuccess(w, map[string]interface{}{"name": name, "removed": true})
}

// registerClient builds the resolver and client for a configuration and adds
// it to the registry, replacing any previous registration under the name.
func (s *Server) registerClient(cc *config.ClientConfig) *oauth.Client {
	resolver := clientenv.NewResolver(cc, s.cfg.EnvPrefix)
	client := oauth.NewClient(resolver, s.acquirer)
	s.registry.Register(client)

	if s.sanitizer != nil && cc.ClientSecret != "" {
		s.sanitizer.RegisterResolvedSecret(cc.ClientSecret)
	}

	s.updateClientGauge()
	return client
}

func (s *Server) updateClientGauge() {
	if s.obs != nil {
		s.obs.Metrics().SetClientsRegistered(s.registry.Len())
	}
}

// apiKeyAuthMiddleware guards the admin API. With no API key configured the
// admin surface stays closed rather than open.
func (s *Server) apiKeyAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.cfg.APIKey == "" {
				s.logger.Warnw("Admin API request rejected, no API key configured",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr)
				s.writeError(w, http.StatusUnauthorized, "API key authentication required but not configured")
				return
			}

			if !validateAPIKey(r, s.cfg.APIKey) {
				s.logger.Warnw("Admin API request with invalid API key",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr)
				s.writeError(w, http.StatusUnauthorized, "Invalid or missing API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// validateAPIKey checks the X-API-Key header, then the apikey query parameter.
func validateAPIKey(r *http.Request, expectedKey string) bool {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key == expectedKey
	}

	if key := r.URL.Query().Get("apikey"); key != "" {
		return key == expectedKey
	}

	return false
}

// clientSummary maps a registered client to its external view with the
// environment overrides applied and the secret masked.
func clientSummary(client *oauth.Client) contracts.ClientSummary {
	eff := client.Settings().Effective()
	return contracts.ClientSummary{
		Name:           eff.Name,
		TokenEndpoint:  eff.TokenEndpoint,
		ClientID:       eff.ClientID,
		ClientSecret:   oauth.MaskSecret(eff.ClientSecret),
		Scope:          eff.Scope,
		Audience:       eff.Audience,
		ServiceBaseURL: eff.ServiceBaseURL,
		Created:        eff.Created,
		Updated:        eff.Updated,
	}
}

// Response helpers

// writeResult replays a pipeline result: downstream headers minus the
// hop-by-hop set, then status and body verbatim.
func (s *Server) writeResult(w http.ResponseWriter, result *proxy.Result) {
	header := w.Header()
	for name, values := range result.Header {
		for _, value := range values {
			header.Add(name, value)
		}
	}
	if header.Get("Content-Type") == "" && result.ContentType != "" {
		header.Set("Content-Type", result.ContentType)
	}

	w.WriteHeader(result.StatusCode)
	_, _ = w.Write([]byte(result.Body))
}

func (s *Server) writePlain(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorw("Failed to encode JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, contracts.NewErrorResponse(message))
}

func (s *Server) writeSuccess(w http.ResponseWriter, data interface{}) {
	s.writeJSON(w, http.StatusOK, contracts.NewSuccessResponse(data))
}
