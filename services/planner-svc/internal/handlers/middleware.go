// services/planner-svc/internal/handlers/middleware.go
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"transit/pkg/apperror"
	"transit/pkg/logger"
	"transit/pkg/metrics"
	"transit/pkg/passhash"
)

type contextKey string

const claimsKey contextKey = "auth_claims"

// ClaimsFromContext возвращает claims аутентифицированного оператора
func ClaimsFromContext(ctx context.Context) (*passhash.OperatorClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*passhash.OperatorClaims)
	return claims, ok
}

// requestLogger логирует каждый запрос со статусом и длительностью
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Log.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"bytes", ww.BytesWritten(),
			"request_id", chimw.GetReqID(r.Context()),
			"remote", r.RemoteAddr,
		)
	})
}

// httpMetrics записывает метрики обработанных запросов
func (h *Handler) httpMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		m := metrics.Get()
		if m == nil {
			return
		}

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		m.RecordHTTPRequest(r.Method, route, strconv.Itoa(ww.Status()), time.Since(start))
	})
}

// rateLimit ограничивает частоту запросов по ключу клиента
func (h *Handler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := h.keyFn(r)

		allowed, err := h.limiter.Allow(r.Context(), key)
		if err != nil {
			// Лимитер недоступен, пропускаем запрос
			logger.Log.Warn("Rate limiter check failed", "error", err, "key", key)
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			if info, err := h.limiter.GetInfo(r.Context(), key); err == nil && info != nil {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
				if info.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(info.RetryAfter.Seconds())+1))
				}
			}
			writeError(w, apperror.New(apperror.CodeRateLimited, "rate limit exceeded"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authenticate проверяет Bearer-токен и кладёт claims в контекст
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, apperror.New(apperror.CodeUnauthenticated, "missing authorization header"))
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(w, apperror.New(apperror.CodeUnauthenticated, "invalid authorization header"))
			return
		}

		claims, err := h.jwt.ValidateAccessToken(token)
		if err != nil {
			writeError(w, apperror.Wrap(err, apperror.CodeUnauthenticated, "invalid token"))
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cors выставляет CORS-заголовки согласно конфигурации
func (h *Handler) cors() func(http.Handler) http.Handler {
	cfg := h.cfg.HTTP.CORS
	allowedMethods := strings.Join(cfg.AllowedMethods, ", ")
	allowedHeaders := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := fmt.Sprintf("%d", cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowedOrigin := ""
			for _, o := range cfg.AllowedOrigins {
				if o == "*" {
					allowedOrigin = "*"
					break
				}
				if o == origin {
					allowedOrigin = origin
					break
				}
			}

			if allowedOrigin != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			}
			if allowedMethods != "" {
				w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
			}
			if allowedHeaders != "" {
				w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
			}
			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			// Preflight
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
