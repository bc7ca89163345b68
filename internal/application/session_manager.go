package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rafaeldtinoco-dev/investfolio/internal/domain"
	"github.com/rafaeldtinoco-dev/investfolio/internal/ports"
)

// SessionManager owns the single authentication session of this client and
// keeps it consistent with the identity provider. Provider events and the
// completions of SignIn/SignOut calls are applied strictly in arrival order
// under one mutex: whichever lands last wins, with no deduplication between
// manual calls and pushed events. That mirrors the provider's own contract,
// which guarantees nothing beyond arrival order.
type SessionManager struct {
	provider ports.IdentityProvider
	log      *zap.Logger

	mu       sync.Mutex
	session  domain.Session
	watchers map[string]func(domain.Session)

	unsubscribe ports.Unsubscribe
	closeOnce   sync.Once
}

// NewSessionManager subscribes to the provider event stream and starts the
// session in the loading state while the provider performs its startup check
// of existing credentials. Callers must Close the manager on teardown.
func NewSessionManager(provider ports.IdentityProvider, log *zap.Logger) *SessionManager {
	if log == nil {
		log = zap.NewNop()
	}

	m := &SessionManager{
		provider: provider,
		log:      log,
		session:  domain.Session{Status: domain.SessionUnknown},
		watchers: map[string]func(domain.Session){},
	}

	// Subscribe before the startup check so an initial-session event cannot
	// slip past us. The provider may deliver events immediately. No watcher
	// can exist yet, so the state moves without notification.
	m.unsubscribe = provider.Subscribe(m.handleEvent)

	m.mu.Lock()
	if m.session.Status == domain.SessionUnknown {
		m.session = domain.Session{Status: domain.SessionLoading}
	}
	m.mu.Unlock()

	return m
}

// Session returns a copy of the current session.
func (m *SessionManager) Session() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Subscribe registers a watcher called after every session change. The
// returned handle detaches it; calling the handle twice is harmless.
func (m *SessionManager) Subscribe(fn func(domain.Session)) ports.Unsubscribe {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	m.watchers[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.watchers, id)
	}
}

// SignIn exchanges credentials with the provider. The session passes through
// loading, dropping any stale principal from an earlier session, so a failed
// sign-in ends in the error state with no principal rather than silently
// keeping the previous user. There is no automatic retry.
func (m *SessionManager) SignIn(ctx context.Context, identifier, secret string) error {
	m.transition(domain.Session{Status: domain.SessionLoading})

	principal, err := m.provider.SignInWithCredentials(ctx, identifier, secret)
	if err != nil {
		m.log.Warn("sign-in failed", zap.Error(err))
		m.transition(domain.Session{
			Status:    domain.SessionError,
			LastError: err.Error(),
		})
		return fmt.Errorf("sign in: %w", err)
	}

	m.transition(domain.Session{
		Status:    domain.SessionAuthenticated,
		Principal: &principal,
	})
	return nil
}

// SignOut requests a provider sign-out and forces the local session to
// unauthenticated whatever the provider reports. The user asked to leave;
// the UI must not keep believing they are signed in because a remote call
// failed. A failure is still surfaced through the returned error and the
// session's LastError.
func (m *SessionManager) SignOut(ctx context.Context) error {
	m.transition(domain.Session{Status: domain.SessionLoading})

	err := m.provider.SignOut(ctx)

	next := domain.Session{Status: domain.SessionUnauthenticated}
	if err != nil {
		m.log.Warn("provider sign-out failed, forcing local logout", zap.Error(err))
		next.LastError = err.Error()
	}
	m.transition(next)

	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// Close detaches the provider subscription. Safe to call more than once and
// from any teardown path; the subscription is released exactly once.
func (m *SessionManager) Close() {
	m.closeOnce.Do(func() {
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
	})
}

func (m *SessionManager) handleEvent(event ports.AuthEvent) {
	switch event.Kind {
	case ports.AuthEventSignedIn, ports.AuthEventInitialSession:
		if event.Principal != nil {
			m.transition(domain.Session{
				Status:    domain.SessionAuthenticated,
				Principal: event.Principal,
			})
			return
		}
		m.transition(domain.Session{Status: domain.SessionUnauthenticated})
	case ports.AuthEventSignedOut:
		m.transition(domain.Session{Status: domain.SessionUnauthenticated})
	default:
		m.log.Debug("ignoring unknown auth event", zap.String("kind", string(event.Kind)))
	}
}

// transition replaces the session and notifies watchers. The callbacks run
// after the lock is released so a watcher may call back into the manager.
func (m *SessionManager) transition(next domain.Session) {
	m.mu.Lock()
	m.session = next
	watchers := make([]func(domain.Session), 0, len(m.watchers))
	for _, fn := range m.watchers {
		watchers = append(watchers, fn)
	}
	m.mu.Unlock()

	m.log.Debug("session transition", zap.String("status", string(next.Status)))
	for _, fn := range watchers {
		fn(next)
	}
}
