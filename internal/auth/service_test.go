package auth

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/calebmoura/lumiere-gateway/pkg/config"
	pkgerrors "github.com/calebmoura/lumiere-gateway/pkg/errors"
	pkgredis "github.com/calebmoura/lumiere-gateway/pkg/redis"
	"github.com/calebmoura/lumiere-gateway/pkg/upstream"
)

type fakeStore struct {
	records map[string]string
	setErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]string{}}
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.records[key] = value.(string)
	return nil
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	raw, ok := f.records[key]
	if !ok {
		return "", pkgredis.ErrNotFound
	}
	return raw, nil
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.records, key)
	}
	return nil
}

func (f *fakeStore) SessionKey(sessionID string) string {
	return "session:" + sessionID
}

type fakeExchanger struct {
	loginFn   func(ctx context.Context, email, password string) (*upstream.LoginResult, error)
	profileFn func(ctx context.Context, token string) (*upstream.User, error)
}

func (f *fakeExchanger) Login(ctx context.Context, email, password string) (*upstream.LoginResult, error) {
	if f.loginFn != nil {
		return f.loginFn(ctx, email, password)
	}
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}

func (f *fakeExchanger) Profile(ctx context.Context, token string) (*upstream.User, error) {
	if f.profileFn != nil {
		return f.profileFn(ctx, token)
	}
	return &upstream.User{ID: "user-1"}, nil
}

func newTestService(t *testing.T, store *fakeStore, exchanger *fakeExchanger) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Store:    store,
		Upstream: exchanger,
		Config:   config.SessionConfig{TTL: time.Hour},
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("signing token failed: %v", err)
	}
	return token
}

func TestCreateAndGetSession(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, &fakeExchanger{})

	created, err := svc.Create(context.Background())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a session id")
	}
	if created.Authenticated() {
		t.Fatal("fresh session must be anonymous")
	}

	loaded, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if loaded.ID != created.ID {
		t.Fatalf("unexpected session %+v", loaded)
	}
}

func TestGetUnknownSession(t *testing.T) {
	svc := newTestService(t, newFakeStore(), &fakeExchanger{})

	_, err := svc.Get(context.Background(), "missing")
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("unexpected error %v", err)
	}

	_, err = svc.Get(context.Background(), "")
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestLoginAttachesToken(t *testing.T) {
	store := newFakeStore()
	exchanger := &fakeExchanger{
		loginFn: func(ctx context.Context, email, password string) (*upstream.LoginResult, error) {
			if email != "ana@example.com" || password != "secret" {
				return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
			}
			return &upstream.LoginResult{
				Token: "jwt-token",
				User:  upstream.User{ID: "user-1", Email: email, Name: "Ana", Role: "customer"},
			}, nil
		},
	}
	svc := newTestService(t, store, exchanger)

	created, err := svc.Create(context.Background())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	sess, err := svc.Login(context.Background(), created.ID, "ana@example.com", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !sess.Authenticated() || sess.Token != "jwt-token" {
		t.Fatalf("unexpected session %+v", sess)
	}
	if sess.UserID != "user-1" || sess.Role != "customer" {
		t.Fatalf("profile not captured: %+v", sess)
	}

	var persisted Session
	if err := json.Unmarshal([]byte(store.records["session:"+created.ID]), &persisted); err != nil {
		t.Fatalf("decoding stored session failed: %v", err)
	}
	if persisted.Token != "jwt-token" {
		t.Fatalf("token not persisted: %+v", persisted)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, &fakeExchanger{})

	created, err := svc.Create(context.Background())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = svc.Login(context.Background(), created.ID, "ana@example.com", "wrong")
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("unexpected error %v", err)
	}

	sess, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sess.Authenticated() {
		t.Fatal("failed login must not attach a token")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, &fakeExchanger{})

	created, err := svc.Create(context.Background())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.Logout(context.Background(), created.ID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := svc.Get(context.Background(), created.ID); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("unexpected error %v", err)
	}

	// logging out an already-gone session is fine
	if err := svc.Logout(context.Background(), ""); err != nil {
		t.Fatalf("Logout of empty id failed: %v", err)
	}
}

func TestValidTokenAnonymous(t *testing.T) {
	svc := newTestService(t, newFakeStore(), &fakeExchanger{})

	_, err := svc.ValidToken(context.Background(), &Session{ID: "sess-1"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("unexpected error %v", err)
	}
	_, err = svc.ValidToken(context.Background(), nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestValidTokenExpiredClearsToken(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, &fakeExchanger{})

	expired := signedToken(t, time.Now().Add(-time.Hour))
	sess := &Session{ID: "sess-1", Token: expired, UserID: "user-1"}
	raw, _ := json.Marshal(sess)
	store.records["session:sess-1"] = string(raw)

	_, err := svc.ValidToken(context.Background(), sess)
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("unexpected error %v", err)
	}
	if sess.Token != "" {
		t.Fatal("expired token should be cleared in memory")
	}

	var persisted Session
	if err := json.Unmarshal([]byte(store.records["session:sess-1"]), &persisted); err != nil {
		t.Fatalf("decoding stored session failed: %v", err)
	}
	if persisted.Token != "" {
		t.Fatal("expired token should be cleared in storage")
	}
	if persisted.UserID != "user-1" {
		t.Fatal("clearing the token must keep the session")
	}
}

func TestValidTokenFreshToken(t *testing.T) {
	svc := newTestService(t, newFakeStore(), &fakeExchanger{})

	fresh := signedToken(t, time.Now().Add(time.Hour))
	token, err := svc.ValidToken(context.Background(), &Session{ID: "sess-1", Token: fresh})
	if err != nil {
		t.Fatalf("ValidToken failed: %v", err)
	}
	if token != fresh {
		t.Fatalf("unexpected token %q", token)
	}
}

func TestValidTokenOpaqueTokenPassesThrough(t *testing.T) {
	svc := newTestService(t, newFakeStore(), &fakeExchanger{})

	// not a JWT; expiry cannot be peeked so the upstream decides
	token, err := svc.ValidToken(context.Background(), &Session{ID: "sess-1", Token: "opaque-token"})
	if err != nil {
		t.Fatalf("ValidToken failed: %v", err)
	}
	if token != "opaque-token" {
		t.Fatalf("unexpected token %q", token)
	}
}

func TestClearTokenKeepsSession(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, &fakeExchanger{})

	sess := &Session{ID: "sess-1", Token: "jwt", Email: "ana@example.com"}
	raw, _ := json.Marshal(sess)
	store.records["session:sess-1"] = string(raw)

	if err := svc.ClearToken(context.Background(), "sess-1"); err != nil {
		t.Fatalf("ClearToken failed: %v", err)
	}

	loaded, err := svc.Get(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if loaded.Authenticated() {
		t.Fatal("token should be gone")
	}
	if loaded.Email != "ana@example.com" {
		t.Fatalf("session fields lost: %+v", loaded)
	}

	// idempotent on an already-cleared session
	if err := svc.ClearToken(context.Background(), "sess-1"); err != nil {
		t.Fatalf("second ClearToken failed: %v", err)
	}
}

func TestProfileUsesValidToken(t *testing.T) {
	exchanger := &fakeExchanger{
		profileFn: func(ctx context.Context, token string) (*upstream.User, error) {
			if token != "opaque-token" {
				t.Fatalf("unexpected token %q", token)
			}
			return &upstream.User{ID: "user-1", Name: "Ana"}, nil
		},
	}
	svc := newTestService(t, newFakeStore(), exchanger)

	user, err := svc.Profile(context.Background(), &Session{ID: "sess-1", Token: "opaque-token"})
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if user.Name != "Ana" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	if tokenExpired(signedToken(t, now.Add(time.Hour)), now) {
		t.Fatal("future exp flagged as expired")
	}
	if !tokenExpired(signedToken(t, now.Add(-time.Minute)), now) {
		t.Fatal("past exp not flagged")
	}
	if tokenExpired("not-a-jwt", now) {
		t.Fatal("unparseable token must pass through")
	}
}
