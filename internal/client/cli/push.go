package cli

import (
	"fmt"

	"github.com/dmitrijs2005/ustory/internal/client/app"
	"github.com/dmitrijs2005/ustory/internal/client/models"
	"github.com/dmitrijs2005/ustory/internal/client/push"
	"github.com/dmitrijs2005/ustory/internal/common"
	"github.com/spf13/cobra"
)

func newPushCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Manage the push notification subscription",
	}

	var sub models.PushSubscription
	subscribe := &cobra.Command{
		Use:   "subscribe",
		Short: "Register a push subscription with the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sub.Endpoint == "" || sub.Keys.P256DH == "" || sub.Keys.Auth == "" {
				return &common.ValidationError{Field: "subscription", Reason: "--endpoint, --p256dh and --auth are required"}
			}
			return e.withApp(cmd.Context(), func(a *app.App) error {
				synced, err := a.Subscriber(push.Granted).Subscribe(cmd.Context(), sub)
				if err != nil {
					return err
				}
				if synced {
					fmt.Fprintln(e.out, "Subscribed.")
				} else {
					fmt.Fprintln(e.out, "Subscription saved locally; the server could not be reached.")
				}
				return nil
			})
		},
	}
	subscribe.Flags().StringVar(&sub.Endpoint, "endpoint", "", "push service endpoint URL")
	subscribe.Flags().StringVar(&sub.Keys.P256DH, "p256dh", "", "subscription public key")
	subscribe.Flags().StringVar(&sub.Keys.Auth, "auth", "", "subscription auth secret")

	cmd.AddCommand(
		subscribe,
		&cobra.Command{
			Use:   "unsubscribe",
			Short: "Drop the push subscription",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return e.withApp(cmd.Context(), func(a *app.App) error {
					had, err := a.Subscriber(push.Granted).Unsubscribe(cmd.Context())
					if err != nil {
						return err
					}
					if had {
						fmt.Fprintln(e.out, "Unsubscribed.")
					} else {
						fmt.Fprintln(e.out, "No subscription.")
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the stored push subscription",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return e.withApp(cmd.Context(), func(a *app.App) error {
					st, err := a.Subscriber(push.Granted).Status(cmd.Context())
					if err != nil {
						return err
					}
					return writeJSON(e.out, st)
				})
			},
		},
	)
	return cmd
}
