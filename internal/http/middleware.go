package apihttp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/example/prereqkit/internal/auth"
	"github.com/example/prereqkit/internal/metrics"
	"github.com/example/prereqkit/internal/rate"
	"github.com/example/prereqkit/pkg/jsonutil"
	"github.com/go-chi/chi/v5"
)

type ctxKey string

const ctxKeyRequestID ctxKey = "req_id"

// RequestID injects a random request id into the context and the
// X-Request-ID response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var b [8]byte
		_, _ = rand.Read(b[:])
		reqID := hex.EncodeToString(b[:])
		r = r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, reqID))
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}

// Logger logs one line per request and counts it by route pattern.
func Logger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rw.status)).Inc()

			reqID, _ := r.Context().Value(ctxKeyRequestID).(string)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.status,
				"dur_ms", time.Since(start).Milliseconds(),
				"ip", rate.IPFromRequest(r),
				"req_id", reqID,
				"api", rw.apiHP,
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
	apiHP  string
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// CORS allows cross-origin calls from browser tooling.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, X-Admin-Token")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit enforces per-IP rate limiting.
func RateLimit(lm *rate.LimiterMap) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lm.Allow(rate.IPFromRequest(r)) {
				jsonutil.Error(w, http.StatusTooManyRequests, "rate limited")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Auth validates the X-API-Key header against store.
func Auth(store auth.APIKeyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil {
				jsonutil.Error(w, http.StatusServiceUnavailable, "api keys unavailable")
				return
			}
			key := r.Header.Get("X-API-Key")
			if key == "" {
				jsonutil.Error(w, http.StatusUnauthorized, "missing api key")
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			ok, err := store.Validate(ctx, key)
			if err != nil || !ok {
				jsonutil.Error(w, http.StatusForbidden, "invalid or inactive api key")
				return
			}
			// surfaced in the request log line
			if sw, ok := w.(*statusWriter); ok {
				sw.apiHP = auth.HashPrefix(key)
			}
			next.ServeHTTP(w, r)
		})
	}
}
