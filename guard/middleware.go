package guard

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

type decisionContextKey struct{}

// DecisionFromContext returns the decision that let the request through.
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(Decision)
	return d, ok
}

// Surfaces renders the non-Allow outcomes. Nil fields use the defaults: 503
// with Retry-After for pending, 401 for entry and 403 with the notice for
// denied.
type Surfaces struct {
	Pending    http.Handler
	Entry      http.Handler
	Denied     func(Decision) http.Handler
	RetryAfter time.Duration
}

// Middleware gates next behind req, deciding on every request.
func Middleware(src Source, req Requirement, surfaces Surfaces) func(http.Handler) http.Handler {
	surfaces = surfaces.withDefaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := Decide(r.Context(), src, req)
			switch d.Outcome {
			case OutcomePending:
				surfaces.Pending.ServeHTTP(w, r)
			case OutcomeEntry:
				surfaces.Entry.ServeHTTP(w, r)
			case OutcomeDenied:
				surfaces.Denied(d).ServeHTTP(w, r)
			default:
				ctx := context.WithValue(r.Context(), decisionContextKey{}, d)
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}

func (s Surfaces) withDefaults() Surfaces {
	if s.RetryAfter <= 0 {
		s.RetryAfter = time.Second
	}
	if s.Pending == nil {
		retry := strconv.Itoa(int((s.RetryAfter + time.Second - 1) / time.Second))
		s.Pending = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", retry)
			http.Error(w, "session loading", http.StatusServiceUnavailable)
		})
	}
	if s.Entry == nil {
		s.Entry = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		})
	}
	if s.Denied == nil {
		s.Denied = func(d Decision) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, d.Reason(), http.StatusForbidden)
			})
		}
	}
	return s
}
