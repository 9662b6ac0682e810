package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/livetv-cli/livetv/constant"
	"github.com/livetv-cli/livetv/icon"
	"github.com/livetv-cli/livetv/style"
)

// installHints maps a platform to the usual way of installing mpv there.
var installHints = map[string]string{
	constant.Darwin:  "brew install mpv",
	constant.Linux:   "sudo apt install mpv",
	constant.Windows: "scoop install mpv",
	constant.Android: "pkg install mpv",
}

// CheckDependencies exits when the mpv surface is selected but mpv is not on PATH.
func CheckDependencies() {
	if _, err := exec.LookPath("mpv"); err != nil {
		printMissingDependency("mpv", installHints[runtime.GOOS])
		os.Exit(1)
	}
}

func printMissingDependency(dep, hint string) {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.HiRed).Render(icon.Get(icon.Fail) + " Missing dependency")
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("%s renders the video but was not found in your PATH.", dep))

	lines := []string{title, "", body}
	if hint != "" {
		lines = append(lines, "", "Install it with:", "  "+style.New().Foreground(style.AccentColor).Bold(true).Render(hint))
	}
	lines = append(lines, "", style.Faint("or run with --surface null to play without video"))

	fmt.Println(box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}
