package httpapi

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"oauthbff-go/internal/reqcontext"
)

// CorrelationIDHeader carries the correlation ID on requests and responses.
const CorrelationIDHeader = "X-Correlation-ID"

// correlationIDMiddleware injects a correlation ID and the request source into
// the context. A caller-provided X-Correlation-ID is honored; otherwise a new
// one is generated.
func correlationIDMiddleware(source reqcontext.RequestSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			correlationID := r.Header.Get(CorrelationIDHeader)
			if correlationID == "" {
				correlationID = reqcontext.GenerateCorrelationID()
			}

			ctx := reqcontext.WithCorrelationID(r.Context(), correlationID)
			ctx = reqcontext.WithRequestSource(ctx, source)

			w.Header().Set(CorrelationIDHeader, correlationID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// httpLoggingMiddleware logs one line per completed request.
func httpLoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(ww, r)

			logger.Infow("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"duration", time.Since(start),
				"remote_addr", r.RemoteAddr,
				"correlation_id", reqcontext.GetCorrelationID(r.Context()))
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.statusCode = code
	sw.ResponseWriter.WriteHeader(code)
}
