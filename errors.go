package goConsole

import (
	"errors"

	"github.com/MrEthical07/goConsole/internal/flows"
)

// ErrorKind classifies every failure surfaced by the console.
type ErrorKind int

const (
	// KindInvalidCredentials: the authority rejected the sign-in credentials.
	KindInvalidCredentials ErrorKind = iota + 1
	// KindUnreachable: the authority could not be contacted or timed out.
	KindUnreachable
	// KindSessionExpired: the session could not be renewed and has been cleared.
	KindSessionExpired
	// KindServer: the authority failed or returned an unusable payload.
	KindServer
	// KindUnauthorizedLocal: the signed-in user lacks a required permission or role.
	KindUnauthorizedLocal
	// KindMalformedPersistedState: stored session data could not be used.
	KindMalformedPersistedState
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUnreachable:
		return "unreachable"
	case KindSessionExpired:
		return "session_expired"
	case KindServer:
		return "server"
	case KindUnauthorizedLocal:
		return "unauthorized_local"
	case KindMalformedPersistedState:
		return "malformed_persisted_state"
	default:
		return "unknown"
	}
}

var (
	// ErrInvalidCredentials matches errors of kind KindInvalidCredentials.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnreachable matches errors of kind KindUnreachable.
	ErrUnreachable = errors.New("cannot connect to server")
	// ErrSessionExpired matches errors of kind KindSessionExpired.
	ErrSessionExpired = errors.New("session expired, please sign in again")
	// ErrServer matches errors of kind KindServer.
	ErrServer = errors.New("server error, please try again later")
	// ErrUnauthorizedLocal matches errors of kind KindUnauthorizedLocal.
	ErrUnauthorizedLocal = errors.New("you do not have access to this resource")
	// ErrMalformedPersistedState matches errors of kind KindMalformedPersistedState.
	ErrMalformedPersistedState = errors.New("stored session is unusable")

	// ErrNoRefreshToken is wrapped by session-expired errors raised without a
	// stored refresh token.
	ErrNoRefreshToken = flows.ErrNoRefreshToken
	// ErrConsoleNotReady is returned when a credential operation runs before Init.
	ErrConsoleNotReady = errors.New("console not initialized")
	// ErrConsoleClosed is returned after Close.
	ErrConsoleClosed = errors.New("console closed")
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrSessionStore wraps local store failures.
	ErrSessionStore = errors.New("session store failure")
)

// Error is the single error type returned by console operations. Error()
// yields a message suitable for showing to the user: the authority's own
// message when it sent one, otherwise a default for the kind.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if s := kindSentinel(e.Kind); s != nil {
		return s.Error()
	}
	return "unknown error"
}

// Is matches the sentinel of the error's kind, so errors.Is(err,
// ErrSessionExpired) works on any session-expired *Error.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	if s := kindSentinel(e.Kind); s != nil && target == s {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target) && isPublicSentinel(target)
}

// KindOf returns the kind of err, or 0 when err is not a console error.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

func newError(kind ErrorKind, message string, status int, cause error) *Error {
	return &Error{Kind: kind, Message: message, StatusCode: status, cause: cause}
}

func kindSentinel(k ErrorKind) error {
	switch k {
	case KindInvalidCredentials:
		return ErrInvalidCredentials
	case KindUnreachable:
		return ErrUnreachable
	case KindSessionExpired:
		return ErrSessionExpired
	case KindServer:
		return ErrServer
	case KindUnauthorizedLocal:
		return ErrUnauthorizedLocal
	case KindMalformedPersistedState:
		return ErrMalformedPersistedState
	default:
		return nil
	}
}

// Only public sentinels leak through the cause chain; raw transport errors
// stay internal.
func isPublicSentinel(target error) bool {
	switch target {
	case ErrNoRefreshToken, ErrSessionStore:
		return true
	default:
		return false
	}
}
