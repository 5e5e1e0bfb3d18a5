package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
)

// Decorator wraps a router handle, e.g. a rate limiter.
type Decorator func(httprouter.Handle) httprouter.Handle

// Chain applies decorators so the first one listed runs first.
func Chain(decorators ...Decorator) Decorator {
	return func(h httprouter.Handle) httprouter.Handle {
		for i := len(decorators) - 1; i >= 0; i-- {
			h = decorators[i](h)
		}
		return h
	}
}

// SecurityHeaders applies a set of recommended HTTP security headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestObserver is told about every finished request.
type RequestObserver func(method string, status int, elapsed time.Duration)

// Logging attaches a request scoped logger (with a request id) to the
// context and logs one line per request.
func Logging(base zerolog.Logger, observe RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = uuid.New().String()
			}
			w.Header().Set("X-Request-ID", reqID)

			logger := base.With().Str("request_id", reqID).Logger()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(logger.WithContext(r.Context())))

			elapsed := time.Since(start)
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Str("remote", r.RemoteAddr).
				Dur("duration", elapsed).
				Msg("request")
			if observe != nil {
				observe(r.Method, rec.status, elapsed)
			}
		})
	}
}
