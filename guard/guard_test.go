package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/permission"
	"github.com/MrEthical07/goConsole/session"
)

type fakeSource struct {
	loading bool
	sess    *session.Session
	denials []string
}

func (f *fakeSource) Loading() bool { return f.loading }

func (f *fakeSource) IsAuthenticated(context.Context) bool { return f.sess.Complete() }

func (f *fakeSource) HasPermission(_ context.Context, token string) bool {
	return f.sess.Complete() && f.sess.User.Permissions.Has(token)
}

func (f *fakeSource) HasRole(_ context.Context, role session.Role) bool {
	return f.sess.Complete() && role != "" && f.sess.User.Role == role
}

func (f *fakeSource) RecordDenial(_ context.Context, reason string) {
	f.denials = append(f.denials, reason)
}

func alice() *session.Session {
	return &session.Session{
		AccessToken:  "A1",
		RefreshToken: "R1",
		User: &session.User{
			ID:          7,
			Username:    "alice",
			Role:        session.RoleStaff,
			Permissions: permission.NewSet(permission.UserRead, permission.UnitRead),
		},
	}
}

func TestDecideOrder(t *testing.T) {
	tests := []struct {
		name    string
		src     *fakeSource
		req     Requirement
		want    Outcome
		missing string
	}{
		{name: "loading wins over everything", src: &fakeSource{loading: true, sess: alice()}, req: Requirement{Permission: permission.UnitDelete}, want: OutcomePending},
		{name: "signed out", src: &fakeSource{}, want: OutcomeEntry},
		{name: "signed out with requirement", src: &fakeSource{}, req: Requirement{Role: session.RoleAdmin}, want: OutcomeEntry},
		{name: "no requirement", src: &fakeSource{sess: alice()}, want: OutcomeAllow},
		{name: "permission held", src: &fakeSource{sess: alice()}, req: Requirement{Permission: permission.UserRead}, want: OutcomeAllow},
		{name: "permission missing", src: &fakeSource{sess: alice()}, req: Requirement{Permission: permission.UnitDelete}, want: OutcomeDenied, missing: permission.UnitDelete},
		{name: "role missing", src: &fakeSource{sess: alice()}, req: Requirement{Role: session.RoleAdmin}, want: OutcomeDenied, missing: string(session.RoleAdmin)},
		{name: "permission checked before role", src: &fakeSource{sess: alice()}, req: Requirement{Permission: permission.UnitDelete, Role: session.RoleAdmin}, want: OutcomeDenied, missing: permission.UnitDelete},
		{name: "both held", src: &fakeSource{sess: alice()}, req: Requirement{Permission: permission.UnitRead, Role: session.RoleStaff}, want: OutcomeAllow},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := Decide(context.Background(), tc.src, tc.req)
			if d.Outcome != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, d.Outcome)
			}
			if tc.want != OutcomeDenied {
				if d.Reason() != "" {
					t.Fatalf("expected no reason, got %q", d.Reason())
				}
				if len(tc.src.denials) != 0 {
					t.Fatal("expected no recorded denial")
				}
				return
			}
			if !strings.Contains(d.Reason(), tc.missing) {
				t.Fatalf("expected reason naming %q, got %q", tc.missing, d.Reason())
			}
			if len(tc.src.denials) != 1 {
				t.Fatalf("expected one recorded denial, got %d", len(tc.src.denials))
			}
		})
	}
}

func TestDecideNilSourceIsPending(t *testing.T) {
	if d := Decide(context.Background(), nil, Requirement{}); d.Outcome != OutcomePending {
		t.Fatalf("expected pending, got %v", d.Outcome)
	}
}

func TestMiddlewareStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		src    *fakeSource
		req    Requirement
		status int
	}{
		{name: "pending", src: &fakeSource{loading: true}, status: http.StatusServiceUnavailable},
		{name: "entry", src: &fakeSource{}, status: http.StatusUnauthorized},
		{name: "denied", src: &fakeSource{sess: alice()}, req: Requirement{Permission: permission.UnitDelete}, status: http.StatusForbidden},
		{name: "allow", src: &fakeSource{sess: alice()}, req: Requirement{Permission: permission.UserRead}, status: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reached := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				if d, ok := DecisionFromContext(r.Context()); !ok || d.Outcome != OutcomeAllow {
					t.Fatalf("expected allow decision in context, got %+v", d)
				}
				w.WriteHeader(http.StatusOK)
			})

			rec := httptest.NewRecorder()
			Middleware(tc.src, tc.req, Surfaces{})(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/units", nil))

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if reached != (tc.status == http.StatusOK) {
				t.Fatalf("protected handler reached=%v for status %d", reached, tc.status)
			}
			if tc.status == http.StatusServiceUnavailable && rec.Header().Get("Retry-After") != "1" {
				t.Fatalf("expected Retry-After 1, got %q", rec.Header().Get("Retry-After"))
			}
			if tc.status == http.StatusForbidden && !strings.Contains(rec.Body.String(), permission.UnitDelete) {
				t.Fatalf("expected denial naming the permission, got %q", rec.Body.String())
			}
		})
	}
}

func TestMiddlewareCustomSurfaces(t *testing.T) {
	entry := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})
	h := Middleware(&fakeSource{}, Requirement{}, Surfaces{Entry: entry})(http.NotFoundHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestConsoleAsSource(t *testing.T) {
	backend := session.NewMemoryBackend()
	if err := session.NewStore(backend, nil).Write(context.Background(), alice()); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	c, err := goConsole.New().WithBackend(backend).WithMetricsEnabled(true).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	req := Requirement{Permission: permission.UnitDelete}
	if d := Decide(ctx, c, req); d.Outcome != OutcomePending {
		t.Fatalf("expected pending before Init, got %v", d.Outcome)
	}
	if err := c.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if !c.IsAuthenticated(ctx) {
		t.Fatal("expected authenticated")
	}
	if d := Decide(ctx, c, req); d.Outcome != OutcomeDenied {
		t.Fatalf("expected denied, got %v", d.Outcome)
	}
	if got := c.MetricsSnapshot().Counters[goConsole.MetricGuardDenied]; got != 1 {
		t.Fatalf("expected one denial counted, got %d", got)
	}
}
