package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		header string
		want   string
	}{
		{"cookie only", "session_c", "", "session_c"},
		{"bearer only", "", "Bearer session_b", "session_b"},
		{"cookie wins over bearer", "session_c", "Bearer session_b", "session_c"},
		{"non-bearer scheme ignored", "", "Basic abc", ""},
		{"nothing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: "session_token", Value: tt.cookie})
			}
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, TokenFromRequest(r, "session_token"))
		})
	}
}

func TestRequireAuth(t *testing.T) {
	m, _, _, u := newTestManager(t)
	s, err := m.Create(context.Background(), u.ID)
	require.NoError(t, err)

	mw := NewMiddleware(m, "session_token", discardLogger())
	var seen string
	h := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		require.True(t, ok)
		seen = user.ID
	}))

	t.Run("valid bearer", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		r.Header.Set("Authorization", "Bearer "+s.Token)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, u.ID, seen)
	})

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "unauthenticated", body["error"])
		assert.NotEmpty(t, body["detail"])
	})

	t.Run("bad cookie does not fall back to bearer", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		r.AddCookie(&http.Cookie{Name: "session_token", Value: "session_bogus"})
		r.Header.Set("Authorization", "Bearer "+s.Token)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestOptionalAuth(t *testing.T) {
	m, _, _, u := newTestManager(t)
	s, err := m.Create(context.Background(), u.ID)
	require.NoError(t, err)

	mw := NewMiddleware(m, "session_token", discardLogger())
	var authed bool
	h := mw.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, authed = UserFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/events/x", nil)
	r.AddCookie(&http.Cookie{Name: "session_token", Value: s.Token})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, authed)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, authed)
}

func TestCookieWriter(t *testing.T) {
	cw := CookieWriter{Name: "session_token", Secure: true, MaxAge: 7 * 24 * time.Hour}

	w := httptest.NewRecorder()
	cw.Set(w, "session_abc")
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "session_abc", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteNoneMode, c.SameSite)
	assert.Equal(t, 604800, c.MaxAge)
	assert.Equal(t, "/", c.Path)

	w = httptest.NewRecorder()
	cw.Clear(w)
	cookies = w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
