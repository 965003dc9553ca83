package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/calebmoura/lumiere-gateway/internal/auth"
	"github.com/calebmoura/lumiere-gateway/pkg/config"
	pkgerrors "github.com/calebmoura/lumiere-gateway/pkg/errors"
	"github.com/calebmoura/lumiere-gateway/pkg/upstream"
)

type stubAuthService struct {
	sessions map[string]*auth.Session
}

func (s *stubAuthService) Create(ctx context.Context) (*auth.Session, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubAuthService) Get(ctx context.Context, sessionID string) (*auth.Session, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown or expired session")
	}
	return sess, nil
}

func (s *stubAuthService) Login(ctx context.Context, sessionID, email, password string) (*auth.Session, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubAuthService) Logout(ctx context.Context, sessionID string) error {
	return nil
}

func (s *stubAuthService) Profile(ctx context.Context, sess *auth.Session) (*upstream.User, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubAuthService) ValidToken(ctx context.Context, sess *auth.Session) (string, error) {
	if !sess.Authenticated() {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return sess.Token, nil
}

func (s *stubAuthService) ClearToken(ctx context.Context, sessionID string) error {
	return nil
}

var sessionCfg = config.SessionConfig{CookieName: "lumiere_session"}

func sessionEcho(t *testing.T, captured **auth.Session) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = auth.SessionFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestSessionResolvesHeader(t *testing.T) {
	authSvc := &stubAuthService{sessions: map[string]*auth.Session{
		"sess-1": {ID: "sess-1", UserID: "user-1", Token: "jwt"},
	}}

	var captured *auth.Session
	handler := Session(authSvc, sessionCfg, nil)(sessionEcho(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Session-Id", "sess-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if captured == nil || captured.ID != "sess-1" {
		t.Fatalf("session not seeded: %+v", captured)
	}
}

func TestSessionResolvesCookie(t *testing.T) {
	authSvc := &stubAuthService{sessions: map[string]*auth.Session{
		"sess-2": {ID: "sess-2"},
	}}

	var captured *auth.Session
	handler := Session(authSvc, sessionCfg, nil)(sessionEcho(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: "lumiere_session", Value: "sess-2"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if captured == nil || captured.ID != "sess-2" {
		t.Fatalf("session not seeded: %+v", captured)
	}
}

func TestSessionHeaderWinsOverCookie(t *testing.T) {
	authSvc := &stubAuthService{sessions: map[string]*auth.Session{
		"sess-1": {ID: "sess-1"},
		"sess-2": {ID: "sess-2"},
	}}

	var captured *auth.Session
	handler := Session(authSvc, sessionCfg, nil)(sessionEcho(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Session-Id", "sess-1")
	req.AddCookie(&http.Cookie{Name: "lumiere_session", Value: "sess-2"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if captured == nil || captured.ID != "sess-1" {
		t.Fatalf("header should win: %+v", captured)
	}
}

func TestSessionMissing(t *testing.T) {
	handler := Session(&stubAuthService{}, sessionCfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a session")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestSessionUnknown(t *testing.T) {
	handler := Session(&stubAuthService{sessions: map[string]*auth.Session{}}, sessionCfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for an unknown session")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Session-Id", "nope")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	// guest session
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req = req.WithContext(auth.ContextWithSession(req.Context(), &auth.Session{ID: "sess-1"}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("guest should be rejected, status %d", rec.Code)
	}

	// authenticated session
	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req = req.WithContext(auth.ContextWithSession(req.Context(), &auth.Session{ID: "sess-1", Token: "jwt"}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("authenticated session rejected, status %d", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		sess   *auth.Session
		status int
	}{
		{"no session", nil, http.StatusUnauthorized},
		{"guest", &auth.Session{ID: "s"}, http.StatusUnauthorized},
		{"customer", &auth.Session{ID: "s", Token: "jwt", Role: "customer"}, http.StatusForbidden},
		{"admin", &auth.Session{ID: "s", Token: "jwt", Role: auth.RoleAdmin}, http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
		if tc.sess != nil {
			req = req.WithContext(auth.ContextWithSession(req.Context(), tc.sess))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Fatalf("%s: unexpected status %d, want %d", tc.name, rec.Code, tc.status)
		}
	}
}
