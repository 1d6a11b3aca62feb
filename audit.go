package goConsole

import (
	"context"
	"io"
	"strconv"

	internalaudit "github.com/MrEthical07/goConsole/internal/audit"
	"github.com/MrEthical07/goConsole/session"
)

// AuditEvent is one credential lifecycle record. Tokens are never included.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the console dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink drops every event.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink delivers events into a buffered channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// MultiSink fans every event out to several sinks.
type MultiSink = internalaudit.MultiSink

// NewChannelSink creates a [ChannelSink] with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] over w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// Audit event types.
const (
	AuditLoginSuccess        = "login_success"
	AuditLoginFailure        = "login_failure"
	AuditLogout              = "logout"
	AuditLogoutRemoteFailure = "logout_remote_failure"
	AuditRefreshSuccess      = "refresh_success"
	AuditRefreshFailure      = "refresh_failure"
	AuditSessionRestored     = "session_restored"
	AuditProfileReloaded     = "profile_reloaded"
	AuditAccessDenied        = "access_denied"
)

func (c *Console) emitAudit(ctx context.Context, eventType string, u *session.User, success bool, err error, metadata map[string]string) {
	if c == nil || c.audit == nil {
		return
	}

	event := AuditEvent{
		EventType: eventType,
		Success:   success,
		Metadata:  metadata,
	}
	if u != nil {
		if u.ID != 0 {
			event.UserID = strconv.FormatInt(u.ID, 10)
		}
		event.Username = u.Username
		event.Role = string(u.Role)
	}
	if err != nil {
		event.Error = err.Error()
	}

	c.audit.Emit(ctx, event)
}

// AuditDropped returns the number of audit events dropped because the
// dispatcher buffer was full.
func (c *Console) AuditDropped() uint64 {
	if c == nil {
		return 0
	}
	return c.audit.Dropped()
}
