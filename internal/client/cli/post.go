package cli

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/ustory/internal/client/app"
	"github.com/dmitrijs2005/ustory/internal/client/models"
	"github.com/dmitrijs2005/ustory/internal/client/services"
	"github.com/dmitrijs2005/ustory/internal/common"
	"github.com/spf13/cobra"
)

func newPostCmd(e *env) *cobra.Command {
	var (
		description string
		photoPath   string
		lat, lon    float64
	)
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a story, or queue it when the API cannot be reached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var err error
			if description == "" {
				if description, err = GetMultiline(e.in, "Description", e.out); err != nil {
					return err
				}
			}

			sub := services.Submission{Description: description}
			if cmd.Flags().Changed("lat") != cmd.Flags().Changed("lon") {
				return &common.ValidationError{Field: "location", Reason: "needs both --lat and --lon"}
			}
			if cmd.Flags().Changed("lat") {
				sub.Lat, sub.Lon = models.Float(lat), models.Float(lon)
			}
			if photoPath != "" {
				data, err := os.ReadFile(photoPath)
				if err != nil {
					return fmt.Errorf("read photo: %w", err)
				}
				sub.Photo = data
				sub.PhotoName = filepath.Base(photoPath)
				sub.PhotoType = http.DetectContentType(data)
			}

			return e.withApp(ctx, func(a *app.App) error {
				if sess, err := a.Auth.Whoami(ctx); err == nil {
					sub.Author = sess.Name
				} else if !errors.Is(err, common.ErrNoToken) {
					return err
				}

				res, err := a.Submitter.Submit(ctx, sub)
				if err != nil {
					return err
				}
				if res.Queued {
					fmt.Fprintf(e.out, "Saved offline, will retry (temp id %d): %v\n", res.TempID, res.Err)
					return nil
				}
				fmt.Fprintln(e.out, "Story posted.")
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "story text (prompted when empty)")
	cmd.Flags().StringVarP(&photoPath, "photo", "p", "", "path of the photo to attach")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude")
	return cmd
}

func newPendingCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List stories waiting to be synced",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.withApp(cmd.Context(), func(a *app.App) error {
				items, err := a.Queue.ListPending(cmd.Context())
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(e.out, "Nothing pending.")
					return nil
				}
				tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TEMP ID\tCREATED\tPHOTO\tLOCATION\tDESCRIPTION")
				for _, p := range items {
					photo := string(p.Photo.Kind)
					if photo == "" {
						photo = "-"
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
						p.TempID, p.CreatedAt.Local().Format(time.DateTime), photo, location(p.Lat, p.Lon), oneLine(p.Description, 60))
				}
				return tw.Flush()
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <tempId>",
		Short: "Drop a queued story without sending it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return &common.ValidationError{Field: "tempId", Reason: "must be a number"}
			}
			return e.withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Queue.RemovePending(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(e.out, "Removed %d from the queue.\n", id)
				return nil
			})
		},
	})
	return cmd
}

func newSyncCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Send queued stories now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.withApp(cmd.Context(), func(a *app.App) error {
				return writeJSON(e.out, a.Syncer.SyncPending(cmd.Context()))
			})
		},
	}
}
