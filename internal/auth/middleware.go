package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/chessmeet/chessmeet/internal/apperror"
	"github.com/chessmeet/chessmeet/internal/model"
)

// contextKey is unexported so no other package can read or shadow the value.
type contextKey string

const userKey contextKey = "user"

// TokenFromRequest extracts the session token. The cookie wins; the
// "Authorization: Bearer <token>" header is the fallback for non-browser
// clients. Returns "" when neither is present.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// Middleware resolves the session on every request it wraps. There is no
// session cache: each request hits the store.
type Middleware struct {
	sessions   *SessionManager
	cookieName string
	logger     *slog.Logger
}

func NewMiddleware(sessions *SessionManager, cookieName string, logger *slog.Logger) *Middleware {
	return &Middleware{sessions: sessions, cookieName: cookieName, logger: logger}
}

// RequireAuth rejects the request with 401 unless it carries a valid
// session, and stores the resolved *model.User in the context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.sessions.Resolve(r.Context(), TokenFromRequest(r, m.cookieName))
		if err != nil {
			m.reject(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// OptionalAuth attaches the user when a valid session is present and lets
// anonymous requests through untouched.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := m.sessions.ResolveOptional(r.Context(), TokenFromRequest(r, m.cookieName)); user != nil {
			r = r.WithContext(WithUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusUnauthorized
	body := map[string]string{
		"error":   apperror.CodeUnauthenticated,
		"message": "Not authenticated",
	}

	var appErr *apperror.AppError
	switch {
	case errors.Is(err, apperror.ErrUnauthenticated) && errors.As(err, &appErr):
		body["message"] = appErr.Message
		m.logger.Warn("rejected request", "path", r.URL.Path, "reason", appErr.Message)
	default:
		status = http.StatusInternalServerError
		body["error"] = "internal_error"
		body["message"] = "internal server error"
		m.logger.Error("session lookup failed", "path", r.URL.Path, "error", err)
	}
	body["detail"] = body["message"]

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user, or (nil, false) for an
// anonymous request.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}
