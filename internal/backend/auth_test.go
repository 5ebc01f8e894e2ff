package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jeremykhd/mycoaching/internal/domain"
)

type fakeAuthServer struct {
	mu       sync.Mutex
	hits     map[string]int
	bodies   map[string][]byte
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
}

func newFakeAuthServer(t *testing.T) (*fakeAuthServer, *httptest.Server) {
	t.Helper()
	f := &fakeAuthServer{
		hits:     map[string]int{},
		bodies:   map[string][]byte{},
		handlers: map[string]func(w http.ResponseWriter, r *http.Request){},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path
		if grant := r.URL.Query().Get("grant_type"); grant != "" {
			route += "?" + grant
		}
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.hits[route]++
		f.bodies[route] = body
		h := f.handlers[route]
		f.mu.Unlock()
		if h == nil {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"msg":"not found"}`))
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAuthServer) on(route string, status int, response string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[route] = func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}
}

func (f *fakeAuthServer) count(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[route]
}

func (f *fakeAuthServer) body(route string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out map[string]any
	_ = json.Unmarshal(f.bodies[route], &out)
	return out
}

const sessionJSON = `{"access_token":"at-1","refresh_token":"rt-1","token_type":"bearer","expires_in":3600,"user":{"id":"u1","email":"user@example.com"}}`

func TestSignInWithPasswordStoresSession(t *testing.T) {
	f, srv := newFakeAuthServer(t)
	f.on("POST /auth/v1/token?password", http.StatusOK, sessionJSON)
	c := newTestClient(t, srv.URL)
	fixed := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return fixed }

	session, err := c.Auth().SignInWithPassword(context.Background(), "sid-1", "user@example.com", "secret")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if session.User == nil || session.User.ID != "u1" {
		t.Fatalf("expected identity u1, got %+v", session.User)
	}
	if session.ExpiresAt != fixed.Unix()+3600 {
		t.Fatalf("expected expires_at computed from expires_in, got %d", session.ExpiresAt)
	}
	body := f.body("POST /auth/v1/token?password")
	if body["email"] != "user@example.com" || body["password"] != "secret" {
		t.Fatalf("unexpected body %+v", body)
	}

	stored, err := c.storage.Load(context.Background(), "sid-1")
	if err != nil || stored == nil || stored.AccessToken != "at-1" {
		t.Fatalf("expected stored session, got %+v, %v", stored, err)
	}
}

func TestSignInWithPasswordRejected(t *testing.T) {
	f, srv := newFakeAuthServer(t)
	f.on("POST /auth/v1/token?password", http.StatusBadRequest, `{"error_code":"invalid_credentials","msg":"Invalid login credentials"}`)
	c := newTestClient(t, srv.URL)

	_, err := c.Auth().SignInWithPassword(context.Background(), "sid-1", "user@example.com", "bad")
	var be *Error
	if !errors.As(err, &be) || be.Message != "Invalid login credentials" {
		t.Fatalf("expected backend rejection, got %v", err)
	}
	stored, _ := c.storage.Load(context.Background(), "sid-1")
	if stored != nil {
		t.Fatalf("expected nothing stored after rejection")
	}
}

func TestGetSession(t *testing.T) {
	t.Run("no stored tokens", func(t *testing.T) {
		_, srv := newFakeAuthServer(t)
		c := newTestClient(t, srv.URL)

		session, err := c.Auth().GetSession(context.Background(), "sid-1")
		if err != nil || session != nil {
			t.Fatalf("expected nil,nil; got %+v,%v", session, err)
		}
	})

	t.Run("valid stored session makes no call", func(t *testing.T) {
		f, srv := newFakeAuthServer(t)
		c := newTestClient(t, srv.URL)
		now := time.Unix(1_700_000_000, 0)
		c.now = func() time.Time { return now }
		_ = c.storage.Save(context.Background(), "sid-1", domain.Session{
			AccessToken:  "at-1",
			RefreshToken: "rt-1",
			ExpiresAt:    now.Add(time.Hour).Unix(),
			User:         &domain.Identity{ID: "u1"},
		})

		session, err := c.Auth().GetSession(context.Background(), "sid-1")
		if err != nil || session == nil || session.AccessToken != "at-1" {
			t.Fatalf("expected stored session, got %+v,%v", session, err)
		}
		if len(f.hits) != 0 {
			t.Fatalf("expected no backend calls, got %v", f.hits)
		}
	})

	t.Run("expired session is refreshed", func(t *testing.T) {
		f, srv := newFakeAuthServer(t)
		f.on("POST /auth/v1/token?refresh_token", http.StatusOK,
			`{"access_token":"at-2","refresh_token":"rt-2","expires_in":3600,"user":{"id":"u1"}}`)
		c := newTestClient(t, srv.URL)
		now := time.Unix(1_700_000_000, 0)
		c.now = func() time.Time { return now }
		_ = c.storage.Save(context.Background(), "sid-1", domain.Session{
			AccessToken:  "at-1",
			RefreshToken: "rt-1",
			ExpiresAt:    now.Add(-time.Minute).Unix(),
		})

		session, err := c.Auth().GetSession(context.Background(), "sid-1")
		if err != nil {
			t.Fatalf("get session: %v", err)
		}
		if session.AccessToken != "at-2" {
			t.Fatalf("expected refreshed token, got %q", session.AccessToken)
		}
		if got := f.body("POST /auth/v1/token?refresh_token")["refresh_token"]; got != "rt-1" {
			t.Fatalf("expected refresh with rt-1, got %v", got)
		}
		stored, _ := c.storage.Load(context.Background(), "sid-1")
		if stored == nil || stored.RefreshToken != "rt-2" {
			t.Fatalf("expected rotated refresh token stored, got %+v", stored)
		}
	})

	t.Run("rejected refresh clears storage", func(t *testing.T) {
		f, srv := newFakeAuthServer(t)
		f.on("POST /auth/v1/token?refresh_token", http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Invalid Refresh Token"}`)
		c := newTestClient(t, srv.URL)
		now := time.Unix(1_700_000_000, 0)
		c.now = func() time.Time { return now }
		_ = c.storage.Save(context.Background(), "sid-1", domain.Session{
			AccessToken:  "at-1",
			RefreshToken: "rt-1",
			ExpiresAt:    now.Add(-time.Minute).Unix(),
		})

		if _, err := c.Auth().GetSession(context.Background(), "sid-1"); !IsRejected(err) {
			t.Fatalf("expected rejection, got %v", err)
		}
		stored, _ := c.storage.Load(context.Background(), "sid-1")
		if stored != nil {
			t.Fatalf("expected storage cleared, got %+v", stored)
		}
	})

	t.Run("missing user is fetched", func(t *testing.T) {
		f, srv := newFakeAuthServer(t)
		f.on("GET /auth/v1/user", http.StatusOK, `{"id":"u9","email":"nine@example.com"}`)
		c := newTestClient(t, srv.URL)
		_ = c.storage.Save(context.Background(), "sid-1", domain.Session{AccessToken: "at-1", RefreshToken: "rt-1"})

		session, err := c.Auth().GetSession(context.Background(), "sid-1")
		if err != nil {
			t.Fatalf("get session: %v", err)
		}
		if session.User == nil || session.User.ID != "u9" {
			t.Fatalf("expected user u9, got %+v", session.User)
		}
		if f.count("GET /auth/v1/user") != 1 {
			t.Fatalf("expected one user lookup")
		}
	})
}

func TestSignInWithOTP(t *testing.T) {
	f, srv := newFakeAuthServer(t)
	f.on("POST /auth/v1/otp", http.StatusOK, `{}`)
	c := newTestClient(t, srv.URL)

	if err := c.Auth().SignInWithOTP(context.Background(), "user@example.com", false); err != nil {
		t.Fatalf("otp: %v", err)
	}
	body := f.body("POST /auth/v1/otp")
	if body["email"] != "user@example.com" || body["create_user"] != false {
		t.Fatalf("unexpected otp body %+v", body)
	}
}

func TestVerifyOTP(t *testing.T) {
	f, srv := newFakeAuthServer(t)
	f.on("POST /auth/v1/verify", http.StatusOK, sessionJSON)
	c := newTestClient(t, srv.URL)

	session, err := c.Auth().VerifyOTP(context.Background(), "sid-1", "user@example.com", "123456", OTPTypeEmail)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if session.User == nil || session.User.Email != "user@example.com" {
		t.Fatalf("unexpected session %+v", session)
	}
	body := f.body("POST /auth/v1/verify")
	if body["token"] != "123456" || body["type"] != "email" {
		t.Fatalf("unexpected verify body %+v", body)
	}
	if stored, _ := c.storage.Load(context.Background(), "sid-1"); stored == nil {
		t.Fatalf("expected session stored")
	}
}

func TestSignOutAlwaysClearsStorage(t *testing.T) {
	f, srv := newFakeAuthServer(t)
	f.on("POST /auth/v1/logout", http.StatusInternalServerError, `{"msg":"boom"}`)
	c := newTestClient(t, srv.URL)
	_ = c.storage.Save(context.Background(), "sid-1", domain.Session{AccessToken: "at-1"})

	err := c.Auth().SignOut(context.Background(), "sid-1")
	if !IsRejected(err) {
		t.Fatalf("expected logout rejection to surface, got %v", err)
	}
	if f.count("POST /auth/v1/logout") != 1 {
		t.Fatalf("expected one logout call")
	}
	if stored, _ := c.storage.Load(context.Background(), "sid-1"); stored != nil {
		t.Fatalf("expected storage cleared, got %+v", stored)
	}
}

func TestSignOutWithoutSession(t *testing.T) {
	f, srv := newFakeAuthServer(t)
	c := newTestClient(t, srv.URL)

	if err := c.Auth().SignOut(context.Background(), "sid-1"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if f.count("POST /auth/v1/logout") != 0 {
		t.Fatalf("expected no logout call without tokens")
	}
}
