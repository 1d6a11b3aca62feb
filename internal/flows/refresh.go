package flows

import (
	"context"
	"fmt"
	"net/http"

	"github.com/MrEthical07/goConsole/session"
	"github.com/MrEthical07/goConsole/transport"
)

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Authority  Authority
	Store      SessionStore
	Path       string
	LogoutPath string
}

// RefreshResult carries the renewed session or failure metadata. Cause holds
// the underlying classification when Failure is FailureSessionExpired.
type RefreshResult struct {
	Failure   FailureKind
	Cause     FailureKind
	Err       error
	Message   string
	Session   *session.Session
	User      *session.User
	RemoteErr error
	StoreErr  error
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RunRefresh renews the access token. Any failure ends the session: the
// authority is notified (best effort) and the store is cleared, even when ctx
// has already expired.
func RunRefresh(ctx context.Context, deps RefreshDeps) RefreshResult {
	current, ok := deps.Store.Read(ctx)
	if !ok || current.RefreshToken == "" {
		return RefreshResult{
			Failure:  FailureSessionExpired,
			Cause:    FailureNoSession,
			Err:      ErrNoRefreshToken,
			StoreErr: clearStore(ctx, deps.Store),
		}
	}

	var pair tokenPair
	err := deps.Authority.DoJSON(ctx, http.MethodPost, deps.Path, refreshRequest{RefreshToken: current.RefreshToken}, &pair)
	if err != nil {
		result := RefreshResult{
			Failure: FailureSessionExpired,
			Cause:   classify(err, FailureSessionExpired),
			Err:     err,
			Message: transport.Message(err),
			User:    current.User,
		}
		if result.Cause != FailureUnreachable {
			result.RemoteErr = notifyLogout(ctx, deps.Authority, deps.LogoutPath, current.AccessToken)
		}
		result.StoreErr = clearStore(ctx, deps.Store)
		return result
	}

	if pair.AccessToken == "" {
		return RefreshResult{
			Failure:   FailureSessionExpired,
			Cause:     FailureServer,
			Err:       errMissingTokens,
			User:      current.User,
			RemoteErr: notifyLogout(ctx, deps.Authority, deps.LogoutPath, current.AccessToken),
			StoreErr:  clearStore(ctx, deps.Store),
		}
	}

	next := current.WithTokens(pair.AccessToken, pair.RefreshToken)
	if err := deps.Store.Write(ctx, next); err != nil {
		return RefreshResult{
			Failure:  FailureSessionExpired,
			Cause:    FailureStore,
			Err:      fmt.Errorf("persist renewed session: %w", err),
			User:     current.User,
			StoreErr: clearStore(ctx, deps.Store),
		}
	}

	return RefreshResult{Session: next, User: next.User}
}
