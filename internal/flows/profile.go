package flows

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrEthical07/goConsole/session"
	"github.com/MrEthical07/goConsole/transport"
)

// ProfileDeps captures profile reload dependencies. Fetch performs the
// authenticated GET and returns the raw body; Lock guards the final
// read-modify-write of the store. Authority and LogoutPath are only used to
// revoke the session when the role changed.
type ProfileDeps struct {
	Authority        Authority
	Store            SessionStore
	Path             string
	LogoutPath       string
	Fetch            func(ctx context.Context, path string) ([]byte, error)
	IsSessionExpired func(error) bool
	Lock             sync.Locker
}

// ProfileResult carries the updated session or failure metadata.
type ProfileResult struct {
	Failure FailureKind
	Err     error
	Message string
	Session *session.Session
	// RemoteErr and StoreErr report the teardown after a role change.
	RemoteErr error
	StoreErr  error
}

// RunReloadProfile fetches the current user and replaces the stored snapshot.
// Tokens are untouched. A session that disappeared during the fetch is not
// recreated. The role is fixed for the life of a session: when the authority
// reports a different one the session is revoked (best effort), cleared, and
// FailureSessionExpired is returned with ErrRoleChanged. The new role applies
// after signing in again.
func RunReloadProfile(ctx context.Context, deps ProfileDeps) ProfileResult {
	if _, ok := deps.Store.Read(ctx); !ok {
		return ProfileResult{Failure: FailureNoSession}
	}

	body, err := deps.Fetch(ctx, deps.Path)
	if err != nil {
		return ProfileResult{
			Failure: classifyProfile(err, deps.IsSessionExpired),
			Err:     err,
			Message: transport.Message(err),
		}
	}

	user, err := session.DecodeUserBytes(body)
	if err != nil {
		return ProfileResult{Failure: FailureServer, Err: err}
	}
	if !hasIdentity(user) {
		return ProfileResult{Failure: FailureServer, Err: errMissingIdentity}
	}

	if deps.Lock != nil {
		deps.Lock.Lock()
		defer deps.Lock.Unlock()
	}

	current, ok := deps.Store.Read(ctx)
	if !ok {
		return ProfileResult{Failure: FailureNoSession}
	}

	if current.User != nil && user.Role != current.User.Role {
		return ProfileResult{
			Failure:   FailureSessionExpired,
			Err:       fmt.Errorf("%w: %s -> %s", ErrRoleChanged, current.User.Role, user.Role),
			RemoteErr: notifyLogout(ctx, deps.Authority, deps.LogoutPath, current.AccessToken),
			StoreErr:  clearStore(ctx, deps.Store),
		}
	}

	next := current.WithUser(user)
	if err := deps.Store.Write(ctx, next); err != nil {
		return ProfileResult{Failure: FailureStore, Err: err}
	}
	return ProfileResult{Session: next}
}

func classifyProfile(err error, expired func(error) bool) FailureKind {
	if expired != nil && expired(err) {
		return FailureSessionExpired
	}
	return classify(err, FailureServer)
}
