package cmd

import (
	"os"
	"sort"

	"github.com/livetv-cli/livetv/color"
	"github.com/livetv-cli/livetv/config"
	"github.com/livetv-cli/livetv/style"
	"github.com/livetv-cli/livetv/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.Flags().BoolP("set-only", "s", false, "Only list variables that are set")
	envCmd.Flags().BoolP("unset-only", "u", false, "Only list variables that are not set")
	envCmd.MarkFlagsMutuallyExclusive("set-only", "unset-only")

	envCmd.SetOut(os.Stdout)
}

// exposedEnv lists every variable livetv reads, sorted.
func exposedEnv() []string {
	envs := lo.Map(config.EnvExposed, func(key string, _ int) string {
		field := config.Default[key]
		return field.Env()
	})
	envs = append(envs, where.EnvConfigPath)
	sort.Strings(envs)
	return envs
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "List the environment variables livetv reads",
	Long:  "List the environment variables livetv reads, including those loaded from .env files, with their current values.",
	Run: func(cmd *cobra.Command, args []string) {
		var (
			setOnly   = lo.Must(cmd.Flags().GetBool("set-only"))
			unsetOnly = lo.Must(cmd.Flags().GetBool("unset-only"))
			name      = style.New().Bold(true).Foreground(color.Purple).Render
		)

		for _, env := range exposedEnv() {
			value, present := os.LookupEnv(env)
			if (setOnly && !present) || (unsetOnly && present) {
				continue
			}

			if present {
				cmd.Printf("%s=%s\n", name(env), style.Fg(color.Green)(value))
			} else {
				cmd.Printf("%s=%s\n", name(env), style.Fg(color.Red)("unset"))
			}
		}
	},
}
