package observability

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"oauthbff-go/internal/config"
)

// Manager coordinates metrics and tracing
type Manager struct {
	logger  *zap.SugaredLogger
	metrics *MetricsManager
	tracing *TracingManager

	startTime time.Time
	done      chan struct{}
}

// NewManager creates a new observability manager
func NewManager(logger *zap.SugaredLogger, tracingCfg *config.TracingConfig) (*Manager, error) {
	manager := &Manager{
		logger:    logger,
		metrics:   NewMetricsManager(logger),
		startTime: time.Now(),
		done:      make(chan struct{}),
	}

	cfg := config.TracingConfig{}
	if tracingCfg != nil {
		cfg = *tracingCfg
	}

	tracing, err := NewTracingManager(logger, cfg)
	if err != nil {
		return nil, err
	}
	manager.tracing = tracing

	go manager.uptimeLoop()

	return manager, nil
}

// Metrics returns the metrics manager
func (m *Manager) Metrics() *MetricsManager {
	return m.metrics
}

// Tracing returns the tracing manager
func (m *Manager) Tracing() *TracingManager {
	return m.tracing
}

// HTTPMiddleware returns combined HTTP middleware for observability
func (m *Manager) HTTPMiddleware() func(http.Handler) http.Handler {
	metricsmw := m.metrics.HTTPMiddleware()
	tracingmw := m.tracing.HTTPMiddleware()

	return func(next http.Handler) http.Handler {
		return metricsmw(tracingmw(next))
	}
}

func (m *Manager) uptimeLoop() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	m.metrics.SetUptime(m.startTime)
	for {
		select {
		case <-ticker.C:
			m.metrics.SetUptime(m.startTime)
		case <-m.done:
			return
		}
	}
}

// Close gracefully shuts down observability components
func (m *Manager) Close(ctx context.Context) error {
	close(m.done)
	if err := m.tracing.Close(ctx); err != nil {
		m.logger.Errorw("Failed to close tracing manager", "error", err)
		return err
	}
	return nil
}
