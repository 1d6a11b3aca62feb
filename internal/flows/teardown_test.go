package flows

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/MrEthical07/goConsole/permission"
	"github.com/MrEthical07/goConsole/session"
	"github.com/MrEthical07/goConsole/transport"
)

// deadlineBackend fails every call made on a finished context, the way a
// network-backed store does.
type deadlineBackend struct {
	session.Backend
}

func (b deadlineBackend) Put(ctx context.Context, slots session.Slots) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.Backend.Put(ctx, slots)
}

func (b deadlineBackend) Get(ctx context.Context) (session.Slots, error) {
	if err := ctx.Err(); err != nil {
		return session.Slots{}, err
	}
	return b.Backend.Get(ctx)
}

func (b deadlineBackend) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.Backend.Delete(ctx)
}

func newDeadlineStore() *session.Store {
	return session.NewStore(deadlineBackend{Backend: session.NewMemoryBackend()}, nil)
}

// hang blocks until the caller gives up or the test ends.
func hang(t *testing.T) http.HandlerFunc {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}
}

func TestRunLogoutClearsWhenAuthorityUnreachable(t *testing.T) {
	client, err := transport.NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	store := newStore()
	seedAlice(t, store)

	res := RunLogout(context.Background(), NewDeps(client, store, testPaths).Logout)
	if res.RemoteErr == nil {
		t.Fatal("expected remote error to be reported")
	}
	if res.StoreErr != nil {
		t.Fatalf("store error: %v", res.StoreErr)
	}
	if _, ok := store.Read(context.Background()); ok {
		t.Fatal("store must be cleared")
	}
}

func TestRunLogoutClearsAfterCallerDeadline(t *testing.T) {
	fa, client := newFakeAuthority(t)
	fa.handle(testPaths.Logout, hang(t))
	store := newDeadlineStore()
	seedAlice(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res := RunLogout(ctx, NewDeps(client, store, testPaths).Logout)
	if !res.Notified || res.RemoteErr == nil {
		t.Fatalf("expected timed out notification, got notified=%v err=%v", res.Notified, res.RemoteErr)
	}
	if ctx.Err() == nil {
		t.Fatal("expected caller context to be done")
	}
	if res.StoreErr != nil {
		t.Fatalf("store error: %v", res.StoreErr)
	}
	if _, ok := store.Read(context.Background()); ok {
		t.Fatal("store must be cleared after the caller deadline")
	}
}

func TestRunLogoutClearsWithCanceledContext(t *testing.T) {
	fa, client := newFakeAuthority(t)
	fa.handle(testPaths.Logout, respondJSON(http.StatusOK, ``))
	store := newDeadlineStore()
	seedAlice(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := RunLogout(ctx, NewDeps(client, store, testPaths).Logout)
	if res.StoreErr != nil {
		t.Fatalf("store error: %v", res.StoreErr)
	}
	if _, ok := store.Read(context.Background()); ok {
		t.Fatal("store must be cleared")
	}
}

func TestRunRefreshClearsAfterCallerDeadline(t *testing.T) {
	fa, client := newFakeAuthority(t)
	fa.handle(testPaths.Refresh, hang(t))
	store := newDeadlineStore()
	seedAlice(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res := RunRefresh(ctx, NewDeps(client, store, testPaths).Refresh)
	if res.Failure != FailureSessionExpired {
		t.Fatalf("Failure = %v, want FailureSessionExpired", res.Failure)
	}
	if res.StoreErr != nil {
		t.Fatalf("store error: %v", res.StoreErr)
	}
	if _, ok := store.Read(context.Background()); ok {
		t.Fatal("store must be cleared after a timed out refresh")
	}
}

func TestRunReloadProfileRoleChangeEndsSession(t *testing.T) {
	store := newDeadlineStore()
	seedAlice(t, store)

	res := RunReloadProfile(context.Background(), ProfileDeps{
		Store: store,
		Path:  testPaths.Profile,
		Fetch: func(context.Context, string) ([]byte, error) {
			return []byte(`{"id":7,"username":"alice","role":"ADMIN","permissions":["user:read","user:delete"],"isActive":true}`), nil
		},
	})
	if res.Failure != FailureSessionExpired || !errors.Is(res.Err, ErrRoleChanged) {
		t.Fatalf("unexpected result: failure=%v err=%v", res.Failure, res.Err)
	}
	if res.Session != nil || res.StoreErr != nil {
		t.Fatalf("expected no session and no store error, got %+v", res)
	}
	if _, ok := store.Read(context.Background()); ok {
		t.Fatal("session must end when the role changes")
	}
}

func TestRunReloadProfileSameRoleKeepsSession(t *testing.T) {
	store := newStore()
	seedAlice(t, store)

	res := RunReloadProfile(context.Background(), ProfileDeps{
		Store: store,
		Path:  testPaths.Profile,
		Fetch: func(context.Context, string) ([]byte, error) {
			return []byte(`{"id":7,"username":"alice","role":"STAFF","permissions":["user:read","user:update"],"isActive":true}`), nil
		},
	})
	if res.Failure != FailureNone {
		t.Fatalf("unexpected failure %v: %v", res.Failure, res.Err)
	}
	stored, ok := store.Read(context.Background())
	if !ok || stored.User.Role != session.RoleStaff || !stored.User.Permissions.Has(permission.UserUpdate) {
		t.Fatalf("expected STAFF session with refreshed permissions, got %+v", stored)
	}
}
