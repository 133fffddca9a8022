package middlewares

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/metrics"
	"github.com/mbolis/quick-forms/model"
)

type ctxKey struct{ name string }

var userCtxKey = &ctxKey{"user"}

// UserFromContext returns the user authenticated by TokenAuth, or nil.
func UserFromContext(ctx context.Context) *model.User {
	u, _ := ctx.Value(userCtxKey).(*model.User)
	return u
}

func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userCtxKey, u)
}

// TokenAuth requires an "Authorization: Token <key>" header naming a live
// token of an active user, and stores that user in the request context.
func TokenAuth(creds *httpx.Credentials) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.Fields(r.Header.Get("Authorization"))
			if len(parts) == 0 || !strings.EqualFold(parts[0], "token") {
				unauthorized(w, r, "auth.token.missing", httpx.DetailNoCreds)
				return
			}
			if len(parts) == 1 {
				unauthorized(w, r, "auth.token.empty", "Invalid token header. No credentials provided.")
				return
			}
			if len(parts) > 2 {
				unauthorized(w, r, "auth.token.spaces", "Invalid token header. Token string should not contain spaces.")
				return
			}

			user, err := creds.UserForToken(r.Context(), parts[1])
			switch {
			case errors.Is(err, httpx.ErrInvalidToken),
				errors.Is(err, httpx.ErrUserInactive),
				errors.Is(err, httpx.ErrTokenExpired):
				unauthorized(w, r, "auth.token.rejected", err.Error())
				return
			case err != nil:
				httpx.LogInternalError(w, r, "auth.token", err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, code, detail string) {
	w.Header().Set("WWW-Authenticate", "Token")
	httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, code, detail)
}

// RequestLogger logs one structured line per request once it completes.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			entry := log.WithFields(log.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   status,
				"bytes":    ww.BytesWritten(),
				"duration": time.Since(start).String(),
				"remote":   ClientIP(r),
			})
			if id := middleware.GetReqID(r.Context()); id != "" {
				entry = entry.WithField("request_id", id)
			}
			if status >= http.StatusInternalServerError {
				entry.Error("request")
			} else {
				entry.Info("request")
			}
		}()
		next.ServeHTTP(ww, r)
	})
}

// Measure records request counts and latency per route pattern.
func Measure(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			var route string
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveRequest(r.Method, route, status, time.Since(start))
		})
	}
}

// ClientIP returns the first X-Forwarded-For hop, else X-Real-IP, else the
// host part of the remote address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
