package goConsole

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/MrEthical07/goConsole/permission"
	"github.com/MrEthical07/goConsole/session"
)

const aliceLogin = `{"accessToken":"A1","refreshToken":"R1","tokenType":"Bearer","expiresIn":900,` +
	`"userId":7,"username":"alice","fullName":"Alice Nguyen","email":"alice@example.com",` +
	`"role":"STAFF","unitId":3,"unitName":"Operations","permissions":["user:read","unit:read"]}`

type fakeAuthority struct {
	server *httptest.Server

	mu       sync.Mutex
	calls    map[string]int
	bearer   map[string]string
	handlers map[string]http.HandlerFunc
}

func newFakeAuthority(t *testing.T) *fakeAuthority {
	t.Helper()
	fa := &fakeAuthority{
		calls:    map[string]int{},
		bearer:   map[string]string{},
		handlers: map[string]http.HandlerFunc{},
	}
	fa.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fa.mu.Lock()
		fa.calls[r.URL.Path]++
		fa.bearer[r.URL.Path] = r.Header.Get("Authorization")
		h := fa.handlers[r.URL.Path]
		fa.mu.Unlock()

		if h == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h(w, r)
	}))
	t.Cleanup(fa.server.Close)
	return fa
}

func (f *fakeAuthority) handle(path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[path] = h
}

func (f *fakeAuthority) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *fakeAuthority) authorization(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bearer[path]
}

func respondJSON(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.Transport.BaseURL = baseURL
	return cfg
}

func buildTestConsole(t *testing.T, cfg Config, backend session.Backend, opts ...func(*Builder)) *Console {
	t.Helper()
	b := New().WithConfig(cfg).WithBackend(backend)
	for _, opt := range opts {
		opt(b)
	}
	c, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func initTestConsole(t *testing.T, c *Console) {
	t.Helper()
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
}

func seedAlice(t testing.TB, backend session.Backend) {
	t.Helper()
	store := session.NewStore(backend, nil)
	err := store.Write(context.Background(), &session.Session{
		AccessToken:  "A1",
		RefreshToken: "R1",
		User: &session.User{
			ID:          7,
			Username:    "alice",
			Role:        session.RoleStaff,
			Permissions: permission.NewSet(permission.UserRead),
			IsActive:    true,
		},
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
}

func storedSession(t *testing.T, backend session.Backend) (*session.Session, bool) {
	t.Helper()
	return session.NewStore(backend, nil).Read(context.Background())
}
