package authz

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/simtunkin/simtunkin/internal/shared"
)

// DecisionRecorder receives the outcome of every middleware decision,
// typically backed by prometheus counters.
type DecisionRecorder interface {
	RecordDecision(outcome string, code Code)
}

// Middleware wires identity extraction and authorization checks into the
// HTTP pipeline. Within one request the order is fixed: the credential
// is verified before permissions are resolved, and permissions are
// resolved before the decision.
type Middleware struct {
	Engine   *Engine
	Verifier *TokenVerifier
	Logger   *slog.Logger
	Metrics  DecisionRecorder
}

// Authenticate verifies the bearer credential and attaches the identity.
// The token comes from the Authorization header, or for browser clients
// from the server-side session.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if sess := shared.SessionFromContext(r.Context()); sess != nil {
				token = sess.Token()
			}
		}
		if token == "" {
			m.deny(w, r, ErrAuthenticationRequired(nil))
			return
		}
		id, err := m.Verifier.VerifyAccess(token)
		if err != nil {
			m.deny(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
	})
}

// RequirePermission gates a route on a single permission.
func (m Middleware) RequirePermission(perm string) func(http.Handler) http.Handler {
	return m.require(func(r *http.Request, id Identity) error {
		return m.Engine.RequirePermission(r.Context(), id, perm)
	})
}

// RequireAny gates a route on at least one of the permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return m.require(func(r *http.Request, id Identity) error {
		return m.Engine.RequireAnyPermission(r.Context(), id, perms)
	})
}

// RequireAll gates a route on every one of the permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return m.require(func(r *http.Request, id Identity) error {
		return m.Engine.RequireAllPermissions(r.Context(), id, perms)
	})
}

// RequireCategory gates a route on the encoded category digit.
//
// Deprecated: declare the expanded permission instead.
func (m Middleware) RequireCategory(c Category) func(http.Handler) http.Handler {
	return m.require(func(r *http.Request, id Identity) error {
		ok, err := m.Engine.IsCategory(r.Context(), id, c)
		if err != nil {
			return err
		}
		if !ok {
			return ErrDenied()
		}
		return nil
	})
}

// RequireRoleLevel gates a route on the raw integer role.
//
// Deprecated: kept for routes not yet migrated to permissions.
func (m Middleware) RequireRoleLevel(level RoleLevel) func(http.Handler) http.Handler {
	return m.require(func(r *http.Request, id Identity) error {
		return m.Engine.RequireRoleLevel(r.Context(), id, level)
	})
}

func (m Middleware) require(check func(*http.Request, Identity) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				m.deny(w, r, ErrAuthenticationRequired(nil))
				return
			}
			if err := check(r, id); err != nil {
				m.deny(w, r, err)
				return
			}
			if m.Metrics != nil {
				m.Metrics.RecordDecision("allow", "")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// deny logs the specific reason server-side, records the decision and
// responds with a generic message. The missing permission names never
// reach the client.
func (m Middleware) deny(w http.ResponseWriter, r *http.Request, err error) {
	code, _ := CodeOf(err)
	if code == "" {
		code = CodeAuthorizationDenied
	}
	if m.Logger != nil {
		id, _ := IdentityFromContext(r.Context())
		level := slog.LevelWarn
		if code == CodeAuthorizationUnavailable {
			level = slog.LevelError
		}
		m.Logger.Log(r.Context(), level, "authorization denied",
			slog.String("code", string(code)),
			slog.Int64("user_id", id.UserID),
			slog.String("path", r.URL.Path),
			slog.String("method", r.Method),
			slog.Any("error", err))
	}
	if m.Metrics != nil {
		m.Metrics.RecordDecision("deny", code)
	}
	writeDenial(w, code)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func writeDenial(w http.ResponseWriter, code Code) {
	var status int
	var message string
	switch code {
	case CodeAuthenticationRequired:
		status = http.StatusUnauthorized
		message = "Autentikasi diperlukan"
	case CodeAuthorizationUnavailable:
		status = http.StatusServiceUnavailable
		message = "Otorisasi tidak tersedia, coba lagi"
	case CodeConfigurationError:
		status = http.StatusInternalServerError
		message = "Kesalahan konfigurasi server"
	default:
		status = http.StatusForbidden
		message = "Akses ditolak"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"success":false,"message":"` + message + `","code":"` + string(code) + `"}`))
}
