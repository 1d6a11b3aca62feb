package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisBackendTest(t *testing.T, ttl time.Duration) (*RedisBackend, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	backend, err := NewRedisBackend(rdb, "gc", ttl)
	if err != nil {
		t.Fatalf("new redis backend: %v", err)
	}
	return backend, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestRedisBackendSurvivesNewStore(t *testing.T) {
	backend, _, done := newRedisBackendTest(t, 0)
	defer done()
	ctx := context.Background()

	if err := NewStore(backend, nil).Write(ctx, testSession()); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, ok := NewStore(backend, nil).Read(ctx)
	if !ok {
		t.Fatal("expected session after restart")
	}
	if got.User.Username != "alice" {
		t.Fatalf("Username = %q, want alice", got.User.Username)
	}
}

func TestRedisBackendKeysAndTTL(t *testing.T) {
	backend, mr, done := newRedisBackendTest(t, time.Hour)
	defer done()
	ctx := context.Background()

	if err := NewStore(backend, nil).Write(ctx, testSession()); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, slot := range []string{SlotAccessToken, SlotRefreshToken, SlotUser} {
		key := "gc:" + slot
		if !mr.Exists(key) {
			t.Fatalf("expected key %s", key)
		}
		if ttl := mr.TTL(key); ttl != time.Hour {
			t.Fatalf("TTL(%s) = %v, want 1h", key, ttl)
		}
	}
	if v, _ := mr.Get("gc:accessToken"); v != "A1" {
		t.Fatalf("accessToken = %q, want A1", v)
	}
}

func TestRedisBackendMissingKeyReadsAbsent(t *testing.T) {
	backend, mr, done := newRedisBackendTest(t, 0)
	defer done()
	ctx := context.Background()
	store := NewStore(backend, nil)

	if err := store.Write(ctx, testSession()); err != nil {
		t.Fatalf("write: %v", err)
	}
	mr.Del("gc:refreshToken")

	if _, ok := store.Read(ctx); ok {
		t.Fatal("session with a missing slot must read as absent")
	}
}

func TestRedisBackendClearIdempotent(t *testing.T) {
	backend, mr, done := newRedisBackendTest(t, 0)
	defer done()
	ctx := context.Background()
	store := NewStore(backend, nil)

	if err := store.Write(ctx, testSession()); err != nil {
		t.Fatalf("write: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := store.Clear(ctx); err != nil {
			t.Fatalf("clear %d: %v", i, err)
		}
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("expected no keys, got %v", mr.Keys())
	}
}

func TestRedisBackendUnavailable(t *testing.T) {
	backend, mr, done := newRedisBackendTest(t, 0)
	defer done()
	ctx := context.Background()
	store := NewStore(backend, nil)

	mr.Close()

	if err := store.Write(ctx, testSession()); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if _, ok := store.Read(ctx); ok {
		t.Fatal("unreachable redis must read as absent")
	}
}

func TestNewRedisBackendValidation(t *testing.T) {
	if _, err := NewRedisBackend(nil, "x", 0); err == nil {
		t.Fatal("expected error for nil client")
	}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()
	if _, err := NewRedisBackend(rdb, "x", -time.Second); err == nil {
		t.Fatal("expected error for negative ttl")
	}
}

func TestFileBackendSurvivesNewStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	backend, err := NewFileBackend(path)
	if err != nil {
		t.Fatalf("new file backend: %v", err)
	}
	ctx := context.Background()

	if err := NewStore(backend, nil).Write(ctx, testSession()); err != nil {
		t.Fatalf("write: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != fileMode {
		t.Fatalf("mode = %o, want %o", perm, fileMode)
	}

	reopened, err := NewFileBackend(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok := NewStore(reopened, nil).Read(ctx)
	if !ok || got.RefreshToken != "R1" {
		t.Fatalf("expected persisted session, got %+v ok=%v", got, ok)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the session document, got %d entries", len(entries))
	}
}

func TestFileBackendCorruptDocumentReadsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{truncated"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	backend, _ := NewFileBackend(path)

	if _, ok := NewStore(backend, nil).Read(context.Background()); ok {
		t.Fatal("corrupt document must read as absent")
	}
}

func TestFileBackendClearMissingFile(t *testing.T) {
	backend, _ := NewFileBackend(filepath.Join(t.TempDir(), "absent.json"))
	if err := backend.Delete(context.Background()); err != nil {
		t.Fatalf("delete missing file: %v", err)
	}
	if _, err := NewFileBackend(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
