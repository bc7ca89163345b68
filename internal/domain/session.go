package domain

type SessionStatus string

const (
	SessionUnknown         SessionStatus = "unknown"
	SessionLoading         SessionStatus = "loading"
	SessionAuthenticated   SessionStatus = "authenticated"
	SessionUnauthenticated SessionStatus = "unauthenticated"
	SessionError           SessionStatus = "error"
)

// Principal is the signed-in user's identity as reported by the
// identity provider.
type Principal struct {
	ID          string
	Email       string
	DisplayName string
}

// Session is the local projection of the provider's authentication state.
// It is owned by the session manager; the provider remains the source of
// truth and the projection is rebuilt from scratch on every process start.
//
// Principal is set only while Status is SessionAuthenticated. LastError is
// set while Status is SessionError, and additionally after a sign-out whose
// provider call failed: local state is still forced to unauthenticated but
// the failure message is kept around for the UI.
type Session struct {
	Status    SessionStatus
	Principal *Principal
	LastError string
}

// SignedIn reports whether the session currently carries a principal.
func (s Session) SignedIn() bool {
	return s.Status == SessionAuthenticated && s.Principal != nil
}
