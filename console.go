package goConsole

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goConsole/access"
	internalaudit "github.com/MrEthical07/goConsole/internal/audit"
	"github.com/MrEthical07/goConsole/internal/flows"
	consolejwt "github.com/MrEthical07/goConsole/jwt"
	"github.com/MrEthical07/goConsole/session"
	"github.com/MrEthical07/goConsole/transport"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Console is the process-wide session context. It owns the lifecycle state,
// runs credential operations against the authority and answers access
// questions from the session store.
//
// Console methods are safe for concurrent use. Login, Logout, Refresh and the
// final step of ReloadProfile are serialized; predicates never wait on them.
type Console struct {
	cfg        Config
	store      *session.Store
	client     *transport.Client
	flows      flows.Deps
	evaluator  *access.Evaluator
	logger     *zap.Logger
	audit      *internalaudit.Dispatcher
	metrics    *Metrics
	ownedRedis redis.UniversalClient

	credMu sync.Mutex

	mu      sync.RWMutex
	state   State
	user    *session.User
	subs    map[uint64]func(Snapshot)
	nextSub uint64

	initOnce  sync.Once
	closed    atomic.Bool
	closeOnce sync.Once
}

func newConsole(
	cfg Config,
	store *session.Store,
	client *transport.Client,
	logger *zap.Logger,
	dispatcher *internalaudit.Dispatcher,
	metrics *Metrics,
) *Console {
	c := &Console{
		cfg:       cfg,
		store:     store,
		client:    client,
		evaluator: access.NewEvaluator(store),
		logger:    logger,
		audit:     dispatcher,
		metrics:   metrics,
		state:     StateLoading,
		subs:      make(map[uint64]func(Snapshot)),
	}

	c.flows = flows.NewDeps(client, store, flows.Paths{
		Login:   cfg.Transport.LoginPath,
		Logout:  cfg.Transport.LogoutPath,
		Refresh: cfg.Transport.RefreshPath,
		Profile: cfg.Transport.ProfilePath,
	})
	c.flows.Profile.Fetch = c.fetchProfile
	c.flows.Profile.IsSessionExpired = func(err error) bool {
		return errors.Is(err, ErrSessionExpired)
	}
	c.flows.Profile.Lock = &c.credMu

	return c
}

// Init performs the single startup read of the session store and leaves
// StateLoading. It makes no network call. Calls after the first are no-ops.
func (c *Console) Init(ctx context.Context) error {
	if c.closed.Load() {
		return ErrConsoleClosed
	}

	c.initOnce.Do(func() {
		c.credMu.Lock()
		defer c.credMu.Unlock()

		sess, ok := c.store.Read(ctx)
		if !ok {
			c.publish(StateSignedOut, nil)
			return
		}
		c.metrics.Inc(MetricSessionRestored)
		c.emitAudit(ctx, AuditSessionRestored, sess.User, true, nil, nil)
		c.publish(StateSignedIn, sess.User)
	})
	return nil
}

// Snapshot returns the current state and a private copy of the user.
func (c *Console) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{State: c.state, User: c.user.Clone()}
}

// Loading reports whether Init has not yet completed.
func (c *Console) Loading() bool {
	return c.Snapshot().State == StateLoading
}

// Subscribe registers fn for every state transition and returns a function
// that removes it. fn runs synchronously on the goroutine that caused the
// transition and must not call Login, Logout, Refresh or ReloadProfile.
func (c *Console) Subscribe(fn func(Snapshot)) (cancel func()) {
	if fn == nil {
		return func() {}
	}

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

func (c *Console) publish(state State, u *session.User) {
	c.mu.Lock()
	c.state = state
	c.user = nil
	if state == StateSignedIn {
		c.user = u.Clone()
	}
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	user := c.user
	c.mu.Unlock()

	for _, fn := range subs {
		fn(Snapshot{State: state, User: user.Clone()})
	}
}

func (c *Console) ready() error {
	if c.closed.Load() {
		return ErrConsoleClosed
	}
	if c.Loading() {
		return ErrConsoleNotReady
	}
	return nil
}

// Login exchanges creds for a session, persists it and signs the console in.
// Failures are returned as *Error; the store is untouched on failure.
func (c *Console) Login(ctx context.Context, creds Credentials) (*session.User, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	c.credMu.Lock()
	defer c.credMu.Unlock()

	start := time.Now()
	res := flows.RunLogin(ctx, flows.Credentials{
		Identifier: creds.Identifier,
		Secret:     creds.Secret,
	}, c.flows.Login)
	c.metrics.Observe(MetricLoginLatency, time.Since(start))

	if res.Failure != flows.FailureNone {
		err := mapFailure(res.Failure, res.Message, res.StatusCode, res.Err)
		if res.Failure == flows.FailureUnreachable {
			c.metrics.Inc(MetricLoginUnreachable)
		} else {
			c.metrics.Inc(MetricLoginFailure)
		}
		c.logger.Debug("goConsole: login failed",
			zap.Stringer("kind", err.Kind),
			zap.Int("status", err.StatusCode),
			zap.NamedError("cause", res.Err),
		)
		c.emitAudit(ctx, AuditLoginFailure, nil, false, err, map[string]string{
			"identifier": creds.Identifier,
			"kind":       err.Kind.String(),
		})
		return nil, err
	}

	c.metrics.Inc(MetricLoginSuccess)
	c.emitAudit(ctx, AuditLoginSuccess, res.Session.User, true, nil, nil)
	c.publish(StateSignedIn, res.Session.User)
	return res.Session.User.Clone(), nil
}

// Logout ends the session. The authority is notified on a best-effort basis
// and its failure is only logged; the local session is cleared and the console
// ends signed out in every case. An error is returned only when the store
// could not be cleared.
func (c *Console) Logout(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}

	c.credMu.Lock()
	defer c.credMu.Unlock()

	res := flows.RunLogout(ctx, c.flows.Logout)
	if res.RemoteErr != nil {
		c.metrics.Inc(MetricLogoutRemoteFailure)
		c.logger.Warn("goConsole: remote logout failed", zap.Error(res.RemoteErr))
		c.emitAudit(ctx, AuditLogoutRemoteFailure, res.User, false, res.RemoteErr, nil)
	}

	c.metrics.Inc(MetricLogout)
	c.emitAudit(ctx, AuditLogout, res.User, res.StoreErr == nil, res.StoreErr, nil)
	c.publish(StateSignedOut, nil)

	if res.StoreErr != nil {
		return storeError(res.StoreErr)
	}
	return nil
}

// Refresh renews the access token. On failure the session is cleared, the
// console signs out and an error matching [ErrSessionExpired] is returned.
func (c *Console) Refresh(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}

	c.credMu.Lock()
	defer c.credMu.Unlock()

	return c.refreshLocked(ctx)
}

func (c *Console) refreshLocked(ctx context.Context) error {
	res := flows.RunRefresh(ctx, c.flows.Refresh)
	if res.Failure == flows.FailureNone {
		c.metrics.Inc(MetricRefreshSuccess)
		c.emitAudit(ctx, AuditRefreshSuccess, res.User, true, nil, nil)
		c.publish(StateSignedIn, res.User)
		return nil
	}

	c.metrics.Inc(MetricRefreshFailure)
	c.metrics.Inc(MetricSessionExpired)
	if res.RemoteErr != nil {
		c.logger.Warn("goConsole: logout after failed refresh did not reach the authority", zap.Error(res.RemoteErr))
	}
	if res.StoreErr != nil {
		c.logger.Warn("goConsole: clearing session after failed refresh", zap.Error(res.StoreErr))
	}

	cause := res.Err
	if res.Cause == flows.FailureNoSession {
		cause = ErrNoRefreshToken
	}
	err := newError(KindSessionExpired, "", transport.StatusCode(res.Err), cause)
	c.emitAudit(ctx, AuditRefreshFailure, res.User, false, cause, map[string]string{
		"cause": failureName(res.Cause),
	})
	c.publish(StateSignedOut, nil)
	return err
}

// refreshAfterUnauthorized renews the session after staleToken was rejected,
// unless another caller already replaced it.
func (c *Console) refreshAfterUnauthorized(ctx context.Context, staleToken string) error {
	c.credMu.Lock()
	defer c.credMu.Unlock()

	if sess, ok := c.store.Read(ctx); ok && sess.AccessToken != staleToken {
		return nil
	}
	return c.refreshLocked(ctx)
}

// ReloadProfile fetches the current user from the authority and replaces the
// stored snapshot. Tokens are kept. A 401 goes through the same
// refresh-and-retry path as [AuthorizedClient]. A role that differs from the
// one the session was opened with ends the session: the console signs out and
// an error matching [ErrSessionExpired] is returned.
func (c *Console) ReloadProfile(ctx context.Context) (*session.User, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	res := flows.RunReloadProfile(ctx, c.flows.Profile)

	if res.Failure == flows.FailureNone || res.Failure == flows.FailureSessionExpired || res.Failure == flows.FailureNoSession {
		c.syncFromStore(ctx)
	}

	if res.Failure != flows.FailureNone {
		c.metrics.Inc(MetricProfileReloadFailure)
		if errors.Is(res.Err, flows.ErrRoleChanged) {
			c.metrics.Inc(MetricSessionExpired)
			c.logger.Info("goConsole: role changed, session ended", zap.Error(res.Err))
			if res.RemoteErr != nil {
				c.logger.Warn("goConsole: logout after role change did not reach the authority", zap.Error(res.RemoteErr))
			}
			if res.StoreErr != nil {
				c.logger.Warn("goConsole: clearing session after role change", zap.Error(res.StoreErr))
			}
			c.emitAudit(ctx, AuditProfileReloaded, nil, false, res.Err, map[string]string{"reason": "role_changed"})
		}
		var ce *Error
		if errors.As(res.Err, &ce) {
			return nil, ce
		}
		if res.Failure == flows.FailureNoSession {
			return nil, newError(KindSessionExpired, "", 0, nil)
		}
		return nil, mapFailure(res.Failure, res.Message, transport.StatusCode(res.Err), res.Err)
	}

	c.metrics.Inc(MetricProfileReloaded)
	c.emitAudit(ctx, AuditProfileReloaded, res.Session.User, true, nil, nil)
	return res.Session.User.Clone(), nil
}

func (c *Console) syncFromStore(ctx context.Context) {
	c.credMu.Lock()
	defer c.credMu.Unlock()

	if sess, ok := c.store.Read(ctx); ok {
		c.publish(StateSignedIn, sess.User)
		return
	}
	c.publish(StateSignedOut, nil)
}

func (c *Console) fetchProfile(ctx context.Context, path string) ([]byte, error) {
	_, body, err := c.Client().Do(ctx, http.MethodGet, path, nil)
	return body, err
}

// IsAuthenticated reports whether a complete session is stored.
func (c *Console) IsAuthenticated(ctx context.Context) bool {
	return c.evaluator.IsAuthenticated(ctx)
}

// HasPermission reports whether the stored user holds token.
func (c *Console) HasPermission(ctx context.Context, token string) bool {
	return c.evaluator.HasPermission(ctx, token)
}

// HasRole reports whether the stored user has role.
func (c *Console) HasRole(ctx context.Context, role session.Role) bool {
	return c.evaluator.HasRole(ctx, role)
}

// VisibleItems filters navigation items against the stored session.
func (c *Console) VisibleItems(ctx context.Context, items []access.NavItem) []access.NavItem {
	return c.evaluator.VisibleItems(ctx, items)
}

// AccessTokenInfo decodes the stored access token for display. Opaque tokens
// yield [consolejwt.ErrNotJWT]. The result is never used for access decisions.
func (c *Console) AccessTokenInfo(ctx context.Context) (consolejwt.TokenInfo, error) {
	if err := c.ready(); err != nil {
		return consolejwt.TokenInfo{}, err
	}
	sess, ok := c.store.Read(ctx)
	if !ok {
		return consolejwt.TokenInfo{}, newError(KindSessionExpired, "", 0, nil)
	}
	return consolejwt.Inspect(sess.AccessToken)
}

// RecordDenial counts and audits an access denial reported by a guard.
func (c *Console) RecordDenial(ctx context.Context, reason string) {
	c.metrics.Inc(MetricGuardDenied)
	c.emitAudit(ctx, AuditAccessDenied, c.Snapshot().User, false, nil, map[string]string{
		"reason": reason,
	})
}

// MetricsSnapshot returns a copy of the console counters.
func (c *Console) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// Close flushes the audit dispatcher and releases resources the console
// created. The session store is left intact.
func (c *Console) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.audit.Close()
		if c.ownedRedis != nil {
			if err := c.ownedRedis.Close(); err != nil {
				c.logger.Warn("goConsole: closing redis client", zap.Error(err))
			}
		}
	})
}

func mapFailure(kind flows.FailureKind, message string, status int, cause error) *Error {
	switch kind {
	case flows.FailureInvalidCredentials:
		return newError(KindInvalidCredentials, message, status, cause)
	case flows.FailureUnreachable:
		return newError(KindUnreachable, "", 0, cause)
	case flows.FailureSessionExpired, flows.FailureNoSession:
		return newError(KindSessionExpired, "", status, cause)
	case flows.FailureForbidden:
		return newError(KindUnauthorizedLocal, message, status, cause)
	case flows.FailureStore:
		return storeError(cause)
	default:
		return newError(KindServer, message, status, cause)
	}
}

func storeError(err error) *Error {
	return newError(KindMalformedPersistedState, "", 0, fmt.Errorf("%w: %v", ErrSessionStore, err))
}

func failureName(kind flows.FailureKind) string {
	switch kind {
	case flows.FailureNone:
		return "none"
	case flows.FailureInvalidCredentials:
		return "invalid_credentials"
	case flows.FailureUnreachable:
		return "unreachable"
	case flows.FailureServer:
		return "server"
	case flows.FailureSessionExpired:
		return "session_expired"
	case flows.FailureNoSession:
		return "no_session"
	case flows.FailureForbidden:
		return "forbidden"
	case flows.FailureStore:
		return "store"
	default:
		return "unknown"
	}
}
