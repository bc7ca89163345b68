package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and drop the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := app.requireSession()
			if err != nil {
				return err
			}

			// The local session is gone even when the remote call fails;
			// the error still surfaces so the exit code reflects it.
			if err := session.SignOut(cmd.Context()); err != nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed out locally.")
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}
