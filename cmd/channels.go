package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/livetv-cli/livetv/catalog"
	"github.com/livetv-cli/livetv/color"
	"github.com/livetv-cli/livetv/history"
	"github.com/livetv-cli/livetv/icon"
	"github.com/livetv-cli/livetv/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(channelsCmd)

	channelsCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	channelsCmd.Flags().BoolP("favorites", "f", false, "List favorite channels only")
	channelsCmd.Flags().IntP("recent", "r", 0, "List the N most recently watched channels")
	channelsCmd.MarkFlagsMutuallyExclusive("favorites", "recent")

	channelsCmd.SetOut(os.Stdout)
}

var channelsCmd = &cobra.Command{
	Use:     "channels [category]",
	Short:   "List the channel lineup",
	Aliases: []string{"ls"},
	Args:    cobra.MaximumNArgs(1),
	ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return append([]string{"all", "featured"}, catalog.Categories()...), cobra.ShellCompDirectiveNoFileComp
	},
	Run: func(cmd *cobra.Command, args []string) {
		var (
			asJson    = lo.Must(cmd.Flags().GetBool("json"))
			favorites = lo.Must(cmd.Flags().GetBool("favorites"))
			recent    = lo.Must(cmd.Flags().GetInt("recent"))
		)

		if favorites || recent > 0 {
			var (
				entries []*history.Entry
				err     error
			)
			if favorites {
				entries, err = history.Favorites()
			} else {
				entries, err = history.Recent(recent)
			}
			handleErr(err)

			if asJson {
				handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(entries))
				return
			}

			for _, e := range entries {
				cmd.Printf("%s %s\n", style.Fg(color.Purple)(e.String()), style.Faint(e.Locator))
			}
			return
		}

		var category string
		if len(args) > 0 {
			category = args[0]
			if category != "all" && category != "featured" && !lo.ContainsBy(catalog.Categories(), func(c string) bool {
				return strings.EqualFold(c, category)
			}) {
				handleErr(fmt.Errorf("unknown category %q, expected one of %s", category, strings.Join(catalog.Categories(), ", ")))
			}
		}

		channels := catalog.ByCategory(category)
		if category == "featured" {
			channels = catalog.Featured()
		}
		if asJson {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(channels))
			return
		}

		width := lo.Max(lo.Map(channels, func(c *catalog.Channel, _ int) int {
			return len(c.Name)
		}))

		for _, c := range channels {
			name := fmt.Sprintf("%-*s", width, c.Name)
			if !c.Playable() {
				cmd.Printf("%s %s\n", style.Faint(name), style.Faint("no stream"))
				continue
			}

			cmd.Printf(
				"%s %s %s %s\n",
				style.Bold(name),
				style.Fg(color.Cyan)(fmt.Sprintf("%-13s", c.Category)),
				style.Fg(color.Yellow)(fmt.Sprintf("%-3s", c.Quality)),
				style.Faint(c.Language),
			)
		}

		cmd.Printf("\n%s %s\n", icon.Get(icon.Signal), style.Faint(fmt.Sprintf("%d of %d playable", len(lo.Filter(channels, func(c *catalog.Channel, _ int) bool {
			return c.Playable()
		})), len(channels))))
	},
}
