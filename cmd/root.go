// Package cmd implements the command-line interface for livetv.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/livetv-cli/livetv/catalog"
	"github.com/livetv-cli/livetv/color"
	"github.com/livetv-cli/livetv/config"
	"github.com/livetv-cli/livetv/constant"
	"github.com/livetv-cli/livetv/icon"
	"github.com/livetv-cli/livetv/key"
	"github.com/livetv-cli/livetv/log"
	"github.com/livetv-cli/livetv/style"
	"github.com/livetv-cli/livetv/util"
	"github.com/livetv-cli/livetv/version"
	"github.com/livetv-cli/livetv/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func completionChannels(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	return lo.Map(catalog.Playable(), func(c *catalog.Channel, _ int) string {
		return c.ID + "\t" + c.Name
	}), cobra.ShellCompDirectiveNoFileComp
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.Flags().BoolP("write-history", "H", true, "Remember the channel in the recent history")
	lo.Must0(viper.BindPFlag(key.HistorySaveOnPlay, rootCmd.Flags().Lookup("write-history")))

	rootCmd.Flags().StringP("engine", "e", "", "Streaming engine to bind (mse or native)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("engine", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return config.EngineKinds, cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(viper.BindPFlag(key.EngineKind, rootCmd.Flags().Lookup("engine")))

	rootCmd.Flags().String("surface", "", "Media surface to render on (mpv or null)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("surface", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return config.SurfaceKinds, cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(viper.BindPFlag(key.PlayerSurface, rootCmd.Flags().Lookup("surface")))

	rootCmd.Flags().String("metrics", "", "Serve prometheus metrics on this address, e.g. :9100")
	lo.Must0(viper.BindPFlag(key.MetricsListen, rootCmd.Flags().Lookup("metrics")))

	rootCmd.Flags().BoolP("continue", "c", false, "Play the most recently watched channel")

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})

	// leftover player sockets from crashed sessions
	go func() {
		_ = util.Delete(where.Temp())
	}()
}

// rootCmd plays a channel when one is given, otherwise asks which one to play.
var rootCmd = &cobra.Command{
	Use:   constant.App + " [channel | url]",
	Short: "Watch live TV channels from the terminal",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - Watch live TV channels from the terminal"),
	Example: `  livetv                      pick a channel
  livetv "al jazeera"         play by name
  livetv https://host/x.m3u8  play any HLS manifest
  livetv -c                   play the last channel again`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completionChannels,
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		handleErr(config.Validate())

		src, err := resolveSource(args, lo.Must(cmd.Flags().GetBool("continue")))
		handleErr(err)

		handleErr(play(src))
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
