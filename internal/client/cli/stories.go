package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/ustory/internal/client/app"
	"github.com/dmitrijs2005/ustory/internal/client/models"
	"github.com/spf13/cobra"
)

func newStoriesCmd(e *env) *cobra.Command {
	var withLocation, asJSON bool
	cmd := &cobra.Command{
		Use:   "stories",
		Short: "Show the story feed, from the cache when offline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.withApp(cmd.Context(), func(a *app.App) error {
				feed, err := a.Stories.Refresh(cmd.Context(), withLocation)
				if err != nil {
					return err
				}
				if feed.FromCache {
					fmt.Fprintf(e.out, "Offline, showing %d cached stories (%v)\n", len(feed.Stories), feed.Err)
				}
				if asJSON {
					return writeJSON(e.out, feed.Stories)
				}
				return printStories(e.out, feed.Stories)
			})
		},
	}
	cmd.Flags().BoolVarP(&withLocation, "location", "l", false, "only stories that carry a location")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a story from the local cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Stories.Forget(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(e.out, "Removed %s from the local cache.\n", args[0])
				return nil
			})
		},
	})
	return cmd
}

func newFavCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fav",
		Short: "Manage favorite stories",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <id>",
			Short: "Pin a cached story as favorite",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return e.withApp(cmd.Context(), func(a *app.App) error {
					if err := a.Stories.AddFavorite(cmd.Context(), args[0]); err != nil {
						return err
					}
					fmt.Fprintf(e.out, "Added %s to favorites.\n", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "rm <id>",
			Short: "Unpin a favorite",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return e.withApp(cmd.Context(), func(a *app.App) error {
					if err := a.Stories.RemoveFavorite(cmd.Context(), args[0]); err != nil {
						return err
					}
					fmt.Fprintf(e.out, "Removed %s from favorites.\n", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "toggle <id>",
			Short: "Add or remove a favorite",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return e.withApp(cmd.Context(), func(a *app.App) error {
					on, err := a.Stories.ToggleFavorite(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					if on {
						fmt.Fprintf(e.out, "Added %s to favorites.\n", args[0])
					} else {
						fmt.Fprintf(e.out, "Removed %s from favorites.\n", args[0])
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "ls",
			Short: "List favorites",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return e.withApp(cmd.Context(), func(a *app.App) error {
					favs, err := a.Stories.Favorites(cmd.Context())
					if err != nil {
						return err
					}
					list := make([]models.Story, len(favs))
					for i, f := range favs {
						list[i] = models.Story(f)
					}
					return printStories(e.out, list)
				})
			},
		},
	)
	return cmd
}

func printStories(w io.Writer, list []models.Story) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No stories.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAUTHOR\tCREATED\tLOCATION\tDESCRIPTION")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Name, s.CreatedAt.Local().Format(time.DateTime), location(s.Lat, s.Lon), oneLine(s.Description, 60))
	}
	return tw.Flush()
}

func location(lat, lon *float64) string {
	if lat == nil || lon == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f,%.4f", *lat, *lon)
}

func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return s
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
