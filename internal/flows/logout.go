package flows

import (
	"context"
	"net/http"

	"github.com/MrEthical07/goConsole/session"
	"github.com/MrEthical07/goConsole/transport"
)

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Authority Authority
	Store     SessionStore
	Path      string
}

// LogoutResult reports what happened during logout. RemoteErr is informational.
type LogoutResult struct {
	User      *session.User
	Notified  bool
	RemoteErr error
	StoreErr  error
}

// RunLogout notifies the authority (best effort) and clears the store
// regardless of how the notification went. The clear ignores ctx cancellation
// so a caller deadline spent on the remote call still ends the local session.
func RunLogout(ctx context.Context, deps LogoutDeps) LogoutResult {
	var result LogoutResult

	if sess, ok := deps.Store.Read(ctx); ok {
		result.User = sess.User
		result.Notified = true
		result.RemoteErr = notifyLogout(ctx, deps.Authority, deps.Path, sess.AccessToken)
	}

	result.StoreErr = clearStore(ctx, deps.Store)
	return result
}

// clearStore removes the stored session on a context detached from ctx's
// cancellation. Teardown must complete even when the caller has given up.
func clearStore(ctx context.Context, store SessionStore) error {
	return store.Clear(context.WithoutCancel(ctx))
}

func notifyLogout(ctx context.Context, authority Authority, path, accessToken string) error {
	if authority == nil || path == "" {
		return nil
	}
	return authority.DoJSON(ctx, http.MethodPost, path, nil, nil, transport.WithBearer(accessToken))
}
