package flows

import (
	"context"
	"errors"
	"net/http"

	"github.com/MrEthical07/goConsole/session"
	"github.com/MrEthical07/goConsole/transport"
)

// FailureKind classifies flow failures for root-level mapping.
type FailureKind int

const (
	FailureNone FailureKind = iota
	// FailureInvalidCredentials: the authority rejected the credentials.
	FailureInvalidCredentials
	// FailureUnreachable: no response from the authority.
	FailureUnreachable
	// FailureServer: the authority failed or answered with an unusable payload.
	FailureServer
	// FailureSessionExpired: the session could not be renewed and was cleared.
	FailureSessionExpired
	// FailureNoSession: the operation needs a stored session and there is none.
	FailureNoSession
	// FailureForbidden: the authority refused the call for this identity.
	FailureForbidden
	// FailureStore: the session store could not be written.
	FailureStore
)

var (
	errMissingTokens   = errors.New("authority response is missing a token")
	errMissingIdentity = errors.New("authority response is missing the user identity")
)

// ErrNoRefreshToken is reported by RunRefresh when nothing can be renewed.
var ErrNoRefreshToken = errors.New("no refresh token stored")

// ErrRoleChanged is reported by RunReloadProfile when the authority returns a
// role other than the one the session was opened with.
var ErrRoleChanged = errors.New("role changed since sign-in")

// Authority is the subset of the transport client used by flows.
type Authority interface {
	DoJSON(
		ctx context.Context,
		method string,
		path string,
		requestBody interface{},
		responseBody interface{},
		opts ...transport.RequestOption,
	) error
}

// SessionStore is the subset of session.Store used by flows.
type SessionStore interface {
	Read(ctx context.Context) (*session.Session, bool)
	Write(ctx context.Context, sess *session.Session) error
	Clear(ctx context.Context) error
}

// Paths locates the authority endpoints.
type Paths struct {
	Login   string
	Logout  string
	Refresh string
	Profile string
}

// Deps groups flow dependency sets. The console builds this once and delegates
// each operation to the matching flow.
type Deps struct {
	Login   LoginDeps
	Logout  LogoutDeps
	Refresh RefreshDeps
	Profile ProfileDeps
}

// NewDeps wires every flow against one authority and one store.
func NewDeps(authority Authority, store SessionStore, paths Paths) Deps {
	return Deps{
		Login:   LoginDeps{Authority: authority, Store: store, Path: paths.Login},
		Logout:  LogoutDeps{Authority: authority, Store: store, Path: paths.Logout},
		Refresh: RefreshDeps{Authority: authority, Store: store, Path: paths.Refresh, LogoutPath: paths.Logout},
		Profile: ProfileDeps{Authority: authority, Store: store, Path: paths.Profile, LogoutPath: paths.Logout},
	}
}

// classify maps an authority error to a failure kind. rejected selects the kind
// used for a 4xx answer other than 403.
func classify(err error, rejected FailureKind) FailureKind {
	if err == nil {
		return FailureNone
	}
	if transport.IsUnreachable(err) {
		return FailureUnreachable
	}
	status := transport.StatusCode(err)
	switch {
	case status == http.StatusForbidden && rejected != FailureInvalidCredentials:
		return FailureForbidden
	case status >= 400 && status < 500:
		return rejected
	default:
		return FailureServer
	}
}
