package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"oauthbff-go/internal/clientenv"
	"oauthbff-go/internal/config"
	"oauthbff-go/internal/httpapi"
	"oauthbff-go/internal/logs"
	"oauthbff-go/internal/oauth"
	"oauthbff-go/internal/observability"
	"oauthbff-go/internal/proxy"
	"oauthbff-go/internal/registry"
	"oauthbff-go/internal/storage"
)

var (
	configFile string
	dataDir    string
	listen     string
	envPrefix  string
	apiKey     string
	logLevel   string
	logToFile  bool
	logDir     string

	tracingEnabled  bool
	tracingEndpoint string

	version = "v0.1.0" // This will be injected by -ldflags during build
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "oauthbff",
		Short:   "OAuth BFF - token-injecting reverse proxy for OAuth 2.0 client-credentials services",
		Version: version,
		RunE:    runServer,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Data directory path (default: ~/.oauthbff)")
	rootCmd.PersistentFlags().StringVarP(&listen, "listen", "l", "", "Listen address (default: :8080)")
	rootCmd.PersistentFlags().StringVar(&envPrefix, "env-prefix", "", "Namespace prefix for per-client environment overrides (default: OAUTH_CLIENT)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key protecting the admin client-management API (empty disables it)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logToFile, "log-to-file", true, "Enable logging to file in standard OS location")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Custom log directory path (overrides standard OS location)")
	rootCmd.PersistentFlags().BoolVar(&tracingEnabled, "tracing", false, "Enable OpenTelemetry tracing")
	rootCmd.PersistentFlags().StringVar(&tracingEndpoint, "otlp-endpoint", "", "OTLP HTTP endpoint for trace export")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.Logging == nil {
		cfg.Logging = logs.DefaultLogConfig()
	}
	cfg.Logging.Level = logLevel
	cfg.Logging.EnableFile = logToFile
	if logDir != "" {
		cfg.Logging.LogDir = logDir
	}

	logger, sanitizer, err := logs.SetupLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("Starting oauthbff",
		zap.String("version", version),
		zap.String("listen", cfg.Listen),
		zap.String("log_level", logLevel))

	sugar := logger.Sugar()

	obs, err := observability.NewManager(sugar, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("failed to setup observability: %w", err)
	}

	store, err := storage.NewBoltDB(cfg.DataDir, sugar)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	acquirer := oauth.NewClientCredentialsAcquirer(&http.Client{Timeout: 30 * time.Second}, sugar)
	reg := registry.New()

	registerClients(cfg, reg, acquirer, sanitizer, sugar)

	if err := replayPersistedClients(store, cfg, reg, acquirer, sanitizer, sugar); err != nil {
		return fmt.Errorf("failed to load persisted clients: %w", err)
	}

	obs.Metrics().SetClientsRegistered(reg.Len())

	orchestrator := proxy.NewOrchestrator(reg, sugar)
	apiServer := httpapi.NewServer(cfg, reg, orchestrator, acquirer, store, sanitizer, obs, sugar)

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           apiServer,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Listen))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during HTTP server shutdown", zap.Error(err))
	}
	if err := obs.Close(shutdownCtx); err != nil {
		logger.Error("Error during observability shutdown", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return nil
}

// registerClients builds a resolver-backed client for every statically
// configured entry.
func registerClients(cfg *config.Config, reg *registry.Registry, acquirer oauth.TokenAcquirer, sanitizer *logs.SecretSanitizer, logger *zap.SugaredLogger) {
	for _, cc := range cfg.Clients {
		if cc == nil || cc.Name == "" {
			continue
		}
		resolver := clientenv.NewResolver(cc, cfg.EnvPrefix)
		reg.Register(oauth.NewClient(resolver, acquirer))

		if sanitizer != nil && cc.ClientSecret != "" {
			sanitizer.RegisterResolvedSecret(cc.ClientSecret)
		}

		logger.Infow("Registered client", "client", cc.Name, "service_base_url", cc.ServiceBaseURL)
	}
}

// replayPersistedClients restores clients registered through the admin API in
// previous runs. Static configuration wins over a persisted entry with the
// same name.
func replayPersistedClients(store *storage.BoltDB, cfg *config.Config, reg *registry.Registry, acquirer oauth.TokenAcquirer, sanitizer *logs.SecretSanitizer, logger *zap.SugaredLogger) error {
	persisted, err := store.ListClients()
	if err != nil {
		return err
	}

	for _, cc := range persisted {
		if _, exists := reg.Lookup(cc.Name); exists {
			logger.Debugw("Skipping persisted client shadowed by static configuration", "client", cc.Name)
			continue
		}
		resolver := clientenv.NewResolver(cc, cfg.EnvPrefix)
		reg.Register(oauth.NewClient(resolver, acquirer))

		if sanitizer != nil && cc.ClientSecret != "" {
			sanitizer.RegisterResolvedSecret(cc.ClientSecret)
		}

		logger.Infow("Restored persisted client", "client", cc.Name, "service_base_url", cc.ServiceBaseURL)
	}

	return nil
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	// Override with command line flags if provided
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if listen != "" {
		cfg.Listen = listen
	}
	if envPrefix != "" {
		cfg.EnvPrefix = envPrefix
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	if cfg.Tracing == nil {
		cfg.Tracing = &config.TracingConfig{}
	}
	if tracingEnabled {
		cfg.Tracing.Enabled = true
	}
	if tracingEndpoint != "" {
		cfg.Tracing.OTLPEndpoint = tracingEndpoint
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "oauthbff"
	}
	if cfg.Tracing.ServiceVersion == "" {
		cfg.Tracing.ServiceVersion = version
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
