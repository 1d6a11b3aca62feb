package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Error describes a failed authority request.
//
// Unreachable is set when no HTTP response was obtained (refused connection,
// DNS failure, timeout, cancelled context). StatusCode is set when the
// authority answered. Message carries the authority's own message, if any.
type Error struct {
	Op          string
	StatusCode  int
	Unreachable bool
	Message     string
	Err         error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d: %s", e.Op, e.StatusCode, e.Message)
	case e.Err != nil && e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d: %v", e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d", e.Op, e.StatusCode)
	default:
		return e.Op
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsUnreachable reports whether err means the authority could not be reached.
func IsUnreachable(err error) bool {
	var reqErr *Error
	if errors.As(err, &reqErr) {
		return reqErr.Unreachable
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var reqErr *Error
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}

// Message returns the authority-provided message carried by err, or "".
func Message(err error) string {
	var reqErr *Error
	if errors.As(err, &reqErr) {
		return reqErr.Message
	}
	return ""
}

// serverMessage extracts a human-readable message from an error body. The
// authority uses "message", "error_message", or "error".
func serverMessage(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error_message", "error"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
