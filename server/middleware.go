package server

import (
	"net/http"
	"strings"
	"time"

	"JNChoral/core/auth"
	"JNChoral/logger"
)

// SessionCookie carries the session token for browser pages.
const SessionCookie = "jnc_session"

const loginPath = "/auth/login"

// sessionMiddleware attaches the principal of a valid Bearer token or session cookie.
// Requests without one, or with an invalid one, continue anonymously.
func (h *Handler) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			if c, err := r.Cookie(SessionCookie); err == nil {
				raw = c.Value
			}
		}
		if raw != "" {
			p, err := h.tokens.ParseToken(raw)
			if err != nil {
				logger.Debug("ignoring invalid session token", logger.ErrorField(err))
			} else {
				r = r.WithContext(auth.WithPrincipal(r.Context(), p))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// requireUser rejects anonymous API calls with 401.
func requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if auth.FromContext(r.Context()) == nil {
			writeFailure(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r)
	}
}

// requirePage sends anonymous browsers to the login page, returning them here afterwards.
func requirePage(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if auth.FromContext(r.Context()) == nil {
			callback := strings.ReplaceAll(r.URL.EscapedPath(), "&", "%26")
			http.Redirect(w, r, loginPath+"?callbackUrl="+callback, http.StatusFound)
			return
		}
		next(w, r)
	}
}

// requireAction guards an admin route with the authorization policy.
func (h *Handler) requireAction(action auth.Action, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := auth.FromContext(r.Context())
		if err := h.policy.Authorize(p, action); err != nil {
			logger.Warn("admin access denied",
				logger.String("path", r.URL.Path),
				logger.String("action", string(action)))
			writeFailure(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
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

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.status),
			logger.Duration("duration", time.Since(start)),
			logger.String("remoteAddr", r.RemoteAddr))
	})
}
