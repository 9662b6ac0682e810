package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/livetv-cli/livetv/color"
	"github.com/livetv-cli/livetv/engine"
	"github.com/livetv-cli/livetv/engine/playlist"
	"github.com/livetv-cli/livetv/icon"
	"github.com/livetv-cli/livetv/network"
	"github.com/livetv-cli/livetv/style"
	"github.com/livetv-cli/livetv/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

const probeTimeout = 30 * time.Second

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	probeCmd.Flags().Bool("schema", false, "Print the JSON schema of the output and exit")

	probeCmd.SetOut(os.Stdout)
}

// probeCmd loads a manifest without playing it and reports what it advertises.
var probeCmd = &cobra.Command{
	Use:               "probe [channel | url]",
	Short:             "Show the quality levels a stream advertises",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completionChannels,
	Run: func(cmd *cobra.Command, args []string) {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")

		if lo.Must(cmd.Flags().GetBool("schema")) {
			reflector := jsonschema.Reflector{ExpandedStruct: true}
			handleErr(encoder.Encode(reflector.Reflect(&engine.ParseResult{})))
			return
		}

		if len(args) == 0 {
			handleErr(cmd.Help())
			return
		}

		src, err := lookup(args[0])
		handleErr(err)
		handleErr(src.Validate())

		ctx, cancel := context.WithTimeout(cmd.Context(), probeTimeout)
		defer cancel()

		loader := playlist.Loader{Client: network.Client, Tuning: engine.TuningFromConfig()}

		erase := util.PrintErasable(fmt.Sprintf("%s Probing %s...", icon.Get(icon.Progress), src.Name))
		result, err := loader.Master(ctx, src.Locator)
		erase()
		if err != nil {
			handleErr(fmt.Errorf("probe %s: %w", src.Name, engine.Classify(err, true)))
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(encoder.Encode(result))
			return
		}

		cmd.Printf("%s %s\n", style.Bold(src.Name), style.Faint(src.Locator))
		cmd.Println(style.Faint(fmt.Sprintf(
			"%s, %s, %s",
			util.Quantify(result.Info.Levels, "level", "levels"),
			util.Quantify(result.Info.AudioTracks, "audio track", "audio tracks"),
			util.Quantify(result.Info.Subtitles, "subtitle", "subtitles"),
		)))
		cmd.Println()

		for _, level := range result.Levels {
			resolution := "-"
			if level.Width > 0 && level.Height > 0 {
				resolution = fmt.Sprintf("%dx%d", level.Width, level.Height)
			}

			cmd.Printf(
				"%s  %s  %s  %s\n",
				style.Fg(color.Purple)(fmt.Sprintf("%2d", level.Index)),
				style.Bold(fmt.Sprintf("%-18s", level.Describe())),
				style.Fg(color.Yellow)(fmt.Sprintf("%-9s", resolution)),
				style.Faint(level.Codecs),
			)
		}
	},
}
