package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Slot names used by every backend.
const (
	SlotAccessToken  = "accessToken"
	SlotRefreshToken = "refreshToken"
	SlotUser         = "user"
)

// ErrIncompleteSession is returned by [Store.Write] when a token or the user
// snapshot is missing.
var ErrIncompleteSession = errors.New("incomplete session")

// ErrBackendUnavailable wraps backend write and clear failures.
var ErrBackendUnavailable = errors.New("session backend unavailable")

// Slots is the raw persisted form of a session.
type Slots struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         string `json:"user"`
}

// Empty reports whether no slot holds a value.
func (s Slots) Empty() bool {
	return s.AccessToken == "" && s.RefreshToken == "" && s.User == ""
}

// Full reports whether every slot holds a value.
func (s Slots) Full() bool {
	return s.AccessToken != "" && s.RefreshToken != "" && s.User != ""
}

// Backend persists the three session slots.
//
// Put must replace all slots together; a reader must never observe a mix of
// old and new slots. Get returns empty slots and a nil error when nothing is
// stored. Delete must be idempotent.
type Backend interface {
	Put(ctx context.Context, slots Slots) error
	Get(ctx context.Context) (Slots, error)
	Delete(ctx context.Context) error
}

// Store reads and writes console sessions through a [Backend].
type Store struct {
	backend Backend
	logger  *zap.Logger
}

// NewStore creates a [Store]. A nil logger discards diagnostics.
func NewStore(backend Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend: backend,
		logger:  logger,
	}
}

// Write persists sess as a whole. Nothing is written when sess is incomplete.
func (s *Store) Write(ctx context.Context, sess *Session) error {
	if !sess.Complete() {
		return ErrIncompleteSession
	}

	user, err := EncodeUser(sess.User)
	if err != nil {
		return fmt.Errorf("encode user snapshot: %w", err)
	}

	err = s.backend.Put(ctx, Slots{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		User:         user,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	return nil
}

// Read returns the stored session, or false when no complete session is
// stored. Partial slots, an undecodable user snapshot, and backend read
// failures are logged and reported as absent.
func (s *Store) Read(ctx context.Context) (*Session, bool) {
	slots, err := s.backend.Get(ctx)
	if err != nil {
		s.logger.Warn("goConsole: session read failed, treating as signed out", zap.Error(err))
		return nil, false
	}
	if slots.Empty() {
		return nil, false
	}
	if !slots.Full() {
		s.logger.Warn("goConsole: discarding partial persisted session",
			zap.Bool("access_token", slots.AccessToken != ""),
			zap.Bool("refresh_token", slots.RefreshToken != ""),
			zap.Bool("user", slots.User != ""),
		)
		return nil, false
	}

	user, err := DecodeUser(slots.User)
	if err != nil {
		s.logger.Warn("goConsole: discarding malformed persisted user snapshot", zap.Error(err))
		return nil, false
	}

	return &Session{
		AccessToken:  slots.AccessToken,
		RefreshToken: slots.RefreshToken,
		User:         user,
	}, true
}

// Clear removes all slots. Clearing an empty store succeeds.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}
