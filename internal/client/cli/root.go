package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/ustory/internal/client/app"
	"github.com/dmitrijs2005/ustory/internal/client/config"
	"github.com/dmitrijs2005/ustory/internal/common"
	"github.com/dmitrijs2005/ustory/internal/logging"
	"github.com/spf13/cobra"
)

// env is the state shared by the commands of one invocation.
type env struct {
	in  *bufio.Reader
	out io.Writer
	cfg *config.Config
	log logging.Logger
}

// NewRootCommand builds the command tree. Prompts read from in; results go
// to out and logs to errOut.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	e := &env{in: bufio.NewReader(in), out: out}

	root := &cobra.Command{
		Use:           "ustory",
		Short:         "Offline-first client for the UStory story API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.log = logging.New(cfg.LogLevel, cfg.LogFormat, errOut)
			return nil
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	config.BindFlags(root.PersistentFlags())

	root.AddCommand(
		newLoginCmd(e),
		newRegisterCmd(e),
		newLogoutCmd(e),
		newWhoamiCmd(e),
		newStoriesCmd(e),
		newPostCmd(e),
		newPendingCmd(e),
		newSyncCmd(e),
		newFavCmd(e),
		newPushCmd(e),
		newServeCmd(e),
		newVersionCmd(),
	)
	return root
}

// withApp opens the client, runs fn and closes the client again.
func (e *env) withApp(ctx context.Context, fn func(a *app.App) error) (err error) {
	a, err := app.New(ctx, e.cfg, e.log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return explain(fn(a))
}

// explain turns well-known failures into messages a user can act on.
func explain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrNoToken), errors.Is(err, common.ErrUnauthorized):
		return fmt.Errorf("not logged in or session expired, run 'ustory login': %w", err)
	case errors.Is(err, common.ErrValidation):
		return err
	case errors.Is(err, common.ErrNetwork):
		return fmt.Errorf("story API unreachable: %w", err)
	}
	return err
}

// Execute runs the command tree and reports the error, if any, to errOut.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	root := NewRootCommand(in, out, errOut)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return 1
	}
	return 0
}
