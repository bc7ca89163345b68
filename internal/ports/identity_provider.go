package ports

import (
	"context"

	"github.com/rafaeldtinoco-dev/investfolio/internal/domain"
)

type AuthEventKind string

const (
	AuthEventSignedIn       AuthEventKind = "signed_in"
	AuthEventSignedOut      AuthEventKind = "signed_out"
	AuthEventInitialSession AuthEventKind = "initial_session"
)

// AuthEvent is pushed by the identity provider independently of any call
// made by this client. Principal is set for signed-in and for initial
// sessions that restored a valid credential; it is nil otherwise.
type AuthEvent struct {
	Kind      AuthEventKind
	Principal *domain.Principal
}

// Unsubscribe detaches a subscription. Calling it more than once is a no-op.
type Unsubscribe func()

// IdentityProvider is the remote identity service consumed by the session
// manager. Implementations must deliver events one at a time per subscriber.
type IdentityProvider interface {
	SignInWithCredentials(ctx context.Context, identifier, secret string) (domain.Principal, error)
	SignOut(ctx context.Context) error
	Subscribe(onEvent func(AuthEvent)) Unsubscribe
}
