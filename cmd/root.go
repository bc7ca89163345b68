package cmd

import "github.com/spf13/cobra"

func Execute() error {
	rootCmd, cleanup := newRootCmd()
	defer cleanup()
	return rootCmd.Execute()
}

// newRootCmd wires the application and builds the command tree. The returned
// cleanup releases the provider subscription and flushes the logger; it must
// run on every exit path, failing commands included.
func newRootCmd() (*cobra.Command, func()) {
	rootCmd := &cobra.Command{
		Use:           "ivf",
		Short:         "InvestFolio (ivf): browse and manage an investment-option catalog",
		Long:          "ivf (InvestFolio) signs in against the remote identity service, keeps a locally cached view of the investment-option catalog, and lets you list, add, edit, and remove options from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd, func() {}
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(app),
		newLogoutCmd(app),
		newSessionCmd(app),
		newCatalogCmd(app),
	)

	return rootCmd, app.close
}
