package goConsole

import "github.com/MrEthical07/goConsole/session"

// State is the lifecycle state of a [Console].
type State uint8

const (
	// StateLoading is held from construction until Init has read the store.
	StateLoading State = iota
	// StateSignedOut means no session is stored.
	StateSignedOut
	// StateSignedIn means a complete session is stored.
	StateSignedIn
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSignedOut:
		return "signed_out"
	case StateSignedIn:
		return "signed_in"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the console state. User is a private copy
// and is nil unless State is StateSignedIn.
type Snapshot struct {
	State State
	User  *session.User
}

// Authenticated reports whether the snapshot is signed in.
func (s Snapshot) Authenticated() bool {
	return s.State == StateSignedIn && s.User != nil
}

// Credentials is the sign-in input: a username (or email) and its secret.
type Credentials struct {
	Identifier string
	Secret     string
}
