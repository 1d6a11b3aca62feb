package guard

import (
	"context"

	"github.com/MrEthical07/goConsole/session"
)

// Outcome is what a protected surface should render.
type Outcome uint8

const (
	// OutcomePending: the session context is still loading; render a neutral
	// indicator and decide nothing.
	OutcomePending Outcome = iota
	// OutcomeEntry: nobody is signed in; render the sign-in surface.
	OutcomeEntry
	// OutcomeDenied: signed in but missing a requirement; render the denial
	// notice.
	OutcomeDenied
	// OutcomeAllow: render the protected content.
	OutcomeAllow
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeEntry:
		return "entry"
	case OutcomeDenied:
		return "denied"
	case OutcomeAllow:
		return "allow"
	default:
		return "unknown"
	}
}

// Requirement is what a surface demands. Empty fields are not checked.
type Requirement struct {
	Permission string
	Role       session.Role
}

// Source is the session context a guard decides against. *goConsole.Console
// satisfies it.
type Source interface {
	Loading() bool
	IsAuthenticated(ctx context.Context) bool
	HasPermission(ctx context.Context, token string) bool
	HasRole(ctx context.Context, role session.Role) bool
}

// DenialRecorder is implemented by sources that count denials.
type DenialRecorder interface {
	RecordDenial(ctx context.Context, reason string)
}

// Decision is the result of [Decide]. MissingPermission or MissingRole is set
// when Outcome is OutcomeDenied.
type Decision struct {
	Outcome           Outcome
	MissingPermission string
	MissingRole       session.Role
}

// Reason returns the human-readable denial notice, or "" when nothing was
// denied.
func (d Decision) Reason() string {
	switch {
	case d.Outcome != OutcomeDenied:
		return ""
	case d.MissingPermission != "":
		return "You do not have the \"" + d.MissingPermission + "\" permission required to view this page."
	case d.MissingRole != "":
		return "This page requires the " + string(d.MissingRole) + " role."
	default:
		return "You do not have access to this page."
	}
}

// Decide evaluates req against src in a fixed order: loading, authentication,
// permission, role. A nil src is treated as still loading.
func Decide(ctx context.Context, src Source, req Requirement) Decision {
	if src == nil || src.Loading() {
		return Decision{Outcome: OutcomePending}
	}
	if !src.IsAuthenticated(ctx) {
		return Decision{Outcome: OutcomeEntry}
	}

	var d Decision
	switch {
	case req.Permission != "" && !src.HasPermission(ctx, req.Permission):
		d = Decision{Outcome: OutcomeDenied, MissingPermission: req.Permission}
	case req.Role != "" && !src.HasRole(ctx, req.Role):
		d = Decision{Outcome: OutcomeDenied, MissingRole: req.Role}
	default:
		return Decision{Outcome: OutcomeAllow}
	}

	if rec, ok := src.(DenialRecorder); ok {
		rec.RecordDenial(ctx, d.Reason())
	}
	return d
}
