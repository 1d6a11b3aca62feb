package access

import (
	"context"

	"github.com/MrEthical07/goConsole/session"
)

// IsAuthenticated reports whether sess is a complete session.
func IsAuthenticated(sess *session.Session) bool {
	return sess.Complete()
}

// HasPermission reports whether the signed-in user holds token. Matching is
// exact and case-sensitive.
func HasPermission(sess *session.Session, token string) bool {
	if !IsAuthenticated(sess) {
		return false
	}
	return sess.User.Permissions.Has(token)
}

// HasRole reports whether the signed-in user has exactly role.
func HasRole(sess *session.Session, role session.Role) bool {
	if !IsAuthenticated(sess) || role == "" {
		return false
	}
	return sess.User.Role == role
}

// Reader is the read side of the session store.
type Reader interface {
	Read(ctx context.Context) (*session.Session, bool)
}

// Evaluator answers access questions against a fresh store read on every
// call. Nothing is cached.
type Evaluator struct {
	reader Reader
}

// NewEvaluator creates an [Evaluator] over reader.
func NewEvaluator(reader Reader) *Evaluator {
	return &Evaluator{reader: reader}
}

func (e *Evaluator) current(ctx context.Context) *session.Session {
	if e == nil || e.reader == nil {
		return nil
	}
	sess, ok := e.reader.Read(ctx)
	if !ok {
		return nil
	}
	return sess
}

// IsAuthenticated reports whether a complete session is stored.
func (e *Evaluator) IsAuthenticated(ctx context.Context) bool {
	return IsAuthenticated(e.current(ctx))
}

// HasPermission reports whether the stored user holds token.
func (e *Evaluator) HasPermission(ctx context.Context, token string) bool {
	return HasPermission(e.current(ctx), token)
}

// HasRole reports whether the stored user has role.
func (e *Evaluator) HasRole(ctx context.Context, role session.Role) bool {
	return HasRole(e.current(ctx), role)
}

// VisibleItems filters items against the stored session.
func (e *Evaluator) VisibleItems(ctx context.Context, items []NavItem) []NavItem {
	return VisibleItems(e.current(ctx), items)
}
