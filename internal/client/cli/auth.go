package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ustory/internal/client/app"
	"github.com/dmitrijs2005/ustory/internal/common"
	"github.com/spf13/cobra"
)

func newLoginCmd(e *env) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email == "" {
				if email, err = GetSimpleText(e.in, "Email", e.out); err != nil {
					return err
				}
			}
			password, err := GetPassword(e.out)
			if err != nil {
				return err
			}
			return e.withApp(cmd.Context(), func(a *app.App) error {
				sess, err := a.Auth.Login(cmd.Context(), email, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(e.out, "Welcome, %s!\n", sess.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email (prompted when empty)")
	return cmd
}

func newRegisterCmd(e *env) *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if name == "" {
				if name, err = GetSimpleText(e.in, "Name", e.out); err != nil {
					return err
				}
			}
			if email == "" {
				if email, err = GetSimpleText(e.in, "Email", e.out); err != nil {
					return err
				}
			}
			password, err := GetPassword(e.out)
			if err != nil {
				return err
			}
			return e.withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Auth.Register(cmd.Context(), name, email, password); err != nil {
					return err
				}
				fmt.Fprintln(e.out, "Account created, you can now log in.")
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name (prompted when empty)")
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email (prompted when empty)")
	return cmd
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the local session; queued stories are kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Auth.Logout(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(e.out, "Logged out.")
				return nil
			})
		},
	}
}

func newWhoamiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.withApp(cmd.Context(), func(a *app.App) error {
				sess, err := a.Auth.Whoami(cmd.Context())
				if errors.Is(err, common.ErrNoToken) {
					fmt.Fprintln(e.out, "Not logged in.")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(e.out, "%s (%s)\n", sess.Name, sess.UserID)
				return nil
			})
		},
	}
}
