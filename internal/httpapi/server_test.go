package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"oauthbff-go/internal/clientenv"
	"oauthbff-go/internal/config"
	"oauthbff-go/internal/contracts"
	"oauthbff-go/internal/oauth"
	"oauthbff-go/internal/observability"
	"oauthbff-go/internal/proxy"
	"oauthbff-go/internal/registry"
	"oauthbff-go/internal/storage"
)

type stubAcquirer struct {
	token string
	err   error
}

func (a *stubAcquirer) AccessToken(_ context.Context, _ oauth.Credentials) (string, error) {
	return a.token, a.err
}

type testEnv struct {
	server *Server
	reg    *registry.Registry
	cfg    *config.Config
}

func newTestEnv(t *testing.T, apiKey string) *testEnv {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.APIKey = apiKey

	reg := registry.New()
	logger := zap.NewNop().Sugar()
	acquirer := &stubAcquirer{token: "test-access-token-value"}
	orch := proxy.NewOrchestrator(reg, logger)

	return &testEnv{
		server: NewServer(cfg, reg, orch, acquirer, nil, nil, nil, logger),
		reg:    reg,
		cfg:    cfg,
	}
}

func newTestEnvWithDeps(t *testing.T, apiKey string, store *storage.BoltDB, obs *observability.Manager) *testEnv {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.APIKey = apiKey

	reg := registry.New()
	logger := zap.NewNop().Sugar()
	acquirer := &stubAcquirer{token: "test-access-token-value"}
	orch := proxy.NewOrchestrator(reg, logger)

	return &testEnv{
		server: NewServer(cfg, reg, orch, acquirer, store, nil, obs, logger),
		reg:    reg,
		cfg:    cfg,
	}
}

func (e *testEnv) registerClient(cc *config.ClientConfig) {
	resolver := clientenv.NewResolver(cc, e.cfg.EnvPrefix)
	e.reg.Register(oauth.NewClient(resolver, &stubAcquirer{token: "test-access-token-value"}))
}

func TestReadyEndpoint(t *testing.T) {
	env := newTestEnv(t, "")

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ready", rec.Body.String())
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
}

func TestProxyUnknownClient(t *testing.T) {
	env := newTestEnv(t, "")

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope/proxy/anything", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "OAuth client configuration not found for: nope", rec.Body.String())
}

func TestProxyForwardsGet(t *testing.T) {
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/items", r.URL.Path)
		assert.Equal(t, "limit=5", r.URL.RawQuery)
		assert.Equal(t, "Bearer test-access-token-value", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer downstream.Close()

	env := newTestEnv(t, "")
	env.registerClient(&config.ClientConfig{Name: "svc", ServiceBaseURL: downstream.URL})

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/svc/proxy/api/items?limit=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"items":[]}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestProxyForwardsPostBody(t *testing.T) {
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"name":"x"}`, string(body))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.WriteHeader(http.StatusCreated)
	}))
	defer downstream.Close()

	env := newTestEnv(t, "")
	env.registerClient(&config.ClientConfig{Name: "svc", ServiceBaseURL: downstream.URL})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/svc/proxy/api/items", bytes.NewBufferString(`{"name":"x"}`))
	env.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestProxyReplaysDownstreamStatus(t *testing.T) {
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Add("X-Multi", "a")
		w.Header().Add("X-Multi", "b")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	defer downstream.Close()

	env := newTestEnv(t, "")
	env.registerClient(&config.ClientConfig{Name: "svc", ServiceBaseURL: downstream.URL})

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/svc/proxy/teapot", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
	assert.Equal(t, []string{"a", "b"}, rec.Header().Values("X-Multi"))
}

func TestTokenEndpoint(t *testing.T) {
	env := newTestEnv(t, "")
	env.registerClient(&config.ClientConfig{Name: "svc", ServiceBaseURL: "https://unused.example.com"})

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/svc/token", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test-access-token-value", rec.Body.String())
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
}

func TestTokenEndpointUnknownClient(t *testing.T) {
	env := newTestEnv(t, "")

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope/token", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "OAuth client configuration not found for: nope", rec.Body.String())
}

func TestAdminRejectedWithoutConfiguredKey(t *testing.T) {
	env := newTestEnv(t, "")

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRejectsInvalidKey(t *testing.T) {
	env := newTestEnv(t, "secret-key")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	req.Header.Set("X-API-Key", "wrong")

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAcceptsQueryParamKey(t *testing.T) {
	env := newTestEnv(t, "secret-key")

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/clients?apikey=secret-key", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRegisterListDelete(t *testing.T) {
	env := newTestEnv(t, "secret-key")

	body, err := json.Marshal(contracts.RegisterClientRequest{
		Name:           "billing",
		TokenEndpoint:  "https://idp.example.com/token",
		ClientID:       "billing-client",
		ClientSecret:   "super-secret-value",
		ServiceBaseURL: "https://billing.example.com",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clients", bytes.NewReader(body))
	req.Header.Set("X-API-Key", "secret-key")

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	_, ok := env.reg.Lookup("billing")
	assert.True(t, ok)

	// List shows the client with a masked secret.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	req.Header.Set("X-API-Key", "secret-key")

	rec = httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var listResp struct {
		Success bool                      `json:"success"`
		Data    []contracts.ClientSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	require.Len(t, listResp.Data, 1)
	assert.Equal(t, "billing", listResp.Data[0].Name)
	assert.NotEqual(t, "super-secret-value", listResp.Data[0].ClientSecret)
	assert.Contains(t, listResp.Data[0].ClientSecret, "***")

	// Delete removes the registration.
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/clients/billing", nil)
	req.Header.Set("X-API-Key", "secret-key")

	rec = httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	_, ok = env.reg.Lookup("billing")
	assert.False(t, ok)
}

func TestAdminRegisterRequiresName(t *testing.T) {
	env := newTestEnv(t, "secret-key")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clients", bytes.NewBufferString(`{"client_id":"x"}`))
	req.Header.Set("X-API-Key", "secret-key")

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminDeleteUnknownClient(t *testing.T) {
	env := newTestEnv(t, "secret-key")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/clients/nope", nil)
	req.Header.Set("X-API-Key", "secret-key")

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProxyRecordsMetricsAndSpans(t *testing.T) {
	obs, err := observability.NewManager(zap.NewNop().Sugar(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = obs.Close(context.Background()) })

	env := newTestEnvWithDeps(t, "", nil, obs)

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope/proxy/anything", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	env.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope/token", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	env.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `oauthbff_proxy_requests_total{client="nope",method="GET",status="404"} 1`)
	assert.Contains(t, body, `oauthbff_token_requests_total{client="nope",outcome="error"} 1`)
}

func TestAdminReRegisterPreservesCreated(t *testing.T) {
	store, err := storage.NewBoltDB(t.TempDir(), zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	env := newTestEnvWithDeps(t, "secret-key", store, nil)

	register := func(clientID string) {
		body, err := json.Marshal(contracts.RegisterClientRequest{
			Name:           "billing",
			ClientID:       clientID,
			ClientSecret:   "super-secret-value",
			ServiceBaseURL: "https://billing.example.com",
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/clients", bytes.NewReader(body))
		req.Header.Set("X-API-Key", "secret-key")

		rec := httptest.NewRecorder()
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	register("first-id")
	first, err := store.GetClient("billing")
	require.NoError(t, err)
	require.NotNil(t, first)

	register("second-id")
	second, err := store.GetClient("billing")
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, "second-id", second.ClientID)
	assert.True(t, second.Created.Equal(first.Created))
}

func TestProxyDeleteWithBody(t *testing.T) {
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"reason":"cleanup"}`, string(body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer downstream.Close()

	env := newTestEnv(t, "")
	env.registerClient(&config.ClientConfig{Name: "svc", ServiceBaseURL: downstream.URL})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/svc/proxy/items/42", bytes.NewBufferString(`{"reason":"cleanup"}`))
	env.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
}
