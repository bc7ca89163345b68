package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rafaeldtinoco-dev/investfolio/internal/application"
	"github.com/rafaeldtinoco-dev/investfolio/internal/domain"
)

const sessionSettleTimeout = 5 * time.Second

type sessionOutput struct {
	Status    string `json:"status"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

func newSessionCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show the current authentication session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, err := app.requireSession()
			if err != nil {
				return err
			}

			session := waitForSettledSession(manager, sessionSettleTimeout)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(toSessionOutput(session))
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), formatSession(session))
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the session as JSON")

	return cmd
}

// waitForSettledSession blocks until the startup credential check resolves
// the session out of the loading state, or until the timeout passes.
func waitForSettledSession(manager *application.SessionManager, timeout time.Duration) domain.Session {
	settled := make(chan domain.Session, 1)
	unsubscribe := manager.Subscribe(func(s domain.Session) {
		if s.Status != domain.SessionLoading && s.Status != domain.SessionUnknown {
			select {
			case settled <- s:
			default:
			}
		}
	})
	defer unsubscribe()

	if current := manager.Session(); current.Status != domain.SessionLoading && current.Status != domain.SessionUnknown {
		return current
	}

	select {
	case s := <-settled:
		return s
	case <-time.After(timeout):
		return manager.Session()
	}
}

func toSessionOutput(session domain.Session) sessionOutput {
	out := sessionOutput{
		Status:    string(session.Status),
		LastError: session.LastError,
	}
	if session.Principal != nil {
		out.Email = session.Principal.Email
		out.Name = session.Principal.DisplayName
	}
	return out
}

func formatSession(session domain.Session) string {
	switch session.Status {
	case domain.SessionAuthenticated:
		if session.Principal != nil {
			return fmt.Sprintf("signed in as %s", session.Principal.Email)
		}
		return "signed in"
	case domain.SessionError:
		return fmt.Sprintf("session error: %s", session.LastError)
	case domain.SessionUnauthenticated:
		if session.LastError != "" {
			return fmt.Sprintf("not signed in (last error: %s)", session.LastError)
		}
		return "not signed in"
	default:
		return string(session.Status)
	}
}
