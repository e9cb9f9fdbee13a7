package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDFromContext returns the request id attached by RequestID, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// RequestID attaches a request id to the context, honoring an incoming
// X-Request-ID header and generating one otherwise.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// Recovery converts panics into 500 responses instead of tearing down the server.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", appendLoggerFields(r.Context(),
						"path", r.URL.Path,
						"panic", rec,
						"stack", string(debug.Stack()),
					)...)
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// Logging logs one line per request with duration and payload size tracking.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			logger.Info("request started", appendLoggerFields(r.Context(),
				"method", r.Method,
				"path", r.URL.Path,
				"peer", r.RemoteAddr,
				"request_size_bytes", r.ContentLength,
			)...)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			duration := time.Since(start)
			if rec.status >= http.StatusInternalServerError {
				logger.Error("request failed", appendLoggerFields(r.Context(),
					"method", r.Method,
					"path", r.URL.Path,
					"status", rec.status,
					"duration", duration.String(),
					"duration_ms", duration.Milliseconds(),
					"response_size_bytes", rec.bytes,
				)...)
			} else {
				logger.Info("request completed", appendLoggerFields(r.Context(),
					"method", r.Method,
					"path", r.URL.Path,
					"status", rec.status,
					"duration", duration.String(),
					"duration_ms", duration.Milliseconds(),
					"response_size_bytes", rec.bytes,
				)...)
			}
		})
	}
}

// RateLimit rejects requests beyond the configured rate with 429.
func RateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Chain applies middlewares to h in reverse order, so the first listed
// middleware is the outermost.
func Chain(h http.Handler, mw ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

func appendLoggerFields(ctx context.Context, base ...any) []any {
	if requestID, ok := RequestIDFromContext(ctx); ok && requestID != "" {
		base = append(base, "request_id", requestID)
	}
	return base
}
