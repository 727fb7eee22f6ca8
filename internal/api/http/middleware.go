package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"assetrent-backend/internal/config"
	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/logger"
	"assetrent-backend/internal/security"

	"github.com/gorilla/mux"
)

type capabilityKey struct{}

// CapabilityFromContext returns the capability the auth middleware attached.
func CapabilityFromContext(ctx context.Context) (domain.Capability, bool) {
	c, ok := ctx.Value(capabilityKey{}).(domain.Capability)
	return c, ok
}

func withCapability(ctx context.Context, c domain.Capability) context.Context {
	return context.WithValue(ctx, capabilityKey{}, c)
}

// AuthMiddleware enforces the security level configured for the matched
// route and attaches the caller's capability to the request context.
type AuthMiddleware struct {
	tokens security.TokenManager
	roles  *security.RoleProvider
	log    *logger.Logger
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}
		level := config.GetSecurityLevel(name)

		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "authorization token is not provided")
			return
		}
		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			m.log.Debug().Err(err).Str("route", name).Msg("Rejected token")
			writeMessage(w, http.StatusUnauthorized, "invalid token: "+err.Error())
			return
		}

		capability := m.roles.Capability(claims)
		if level == config.SecurityPrivileged && !capability.Privileged() {
			writeMessage(w, http.StatusForbidden, domain.ErrForbidden.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(withCapability(r.Context(), capability)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		header = header[7:]
	}
	header = strings.TrimSpace(header)
	return header, header != ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Dur("elapsed", time.Since(start)).
				Msg("Request handled")
		})
	}
}
