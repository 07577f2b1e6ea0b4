package cli

import (
	"github.com/dmitrijs2005/ustory/internal/buildinfo"
	"github.com/dmitrijs2005/ustory/internal/client/app"
	"github.com/spf13/cobra"
)

func newServeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the app shell with offline caching and background sync",
		Long: `Serve precaches the app shell, sends any queued stories, and serves the
app on the listen address until interrupted. While it runs, connectivity is
checked periodically and queued stories are sent whenever the API comes back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.withApp(cmd.Context(), func(a *app.App) error {
				return a.Serve(cmd.Context())
			})
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	}
}
