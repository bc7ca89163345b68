package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newLoginCmd(app *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := app.requireSession()
			if err != nil {
				return err
			}

			if email == "" || password == "" {
				if err := promptCredentials(&email, &password); err != nil {
					return err
				}
			}

			if err := session.SignIn(cmd.Context(), email, password); err != nil {
				return err
			}

			current := session.Session()
			if current.Principal != nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", current.Principal.Email)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted when omitted)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")

	return cmd
}

func promptCredentials(email, password *string) error {
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Placeholder("you@example.com").
			Value(email),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(password),
	))

	if err := form.Run(); err != nil {
		return fmt.Errorf("prompt credentials: %w", err)
	}
	if *email == "" || *password == "" {
		return fmt.Errorf("email and password are required")
	}

	return nil
}
