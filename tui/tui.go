// Package tui renders the control surface of a playback session in the terminal.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/livetv-cli/livetv/controller"
)

// Options configures the control surface.
type Options struct {
	Controller *controller.Controller

	// OnClose runs once when the viewer closes the player.
	OnClose func()

	// SurfaceGone, when set, closes the player once it is closed, e.g. when the video window exits.
	SurfaceGone <-chan struct{}
}

// Run shows the control surface until the viewer closes it.
func Run(options *Options) error {
	bubble := newBubble(options)
	defer bubble.close()

	_, err := tea.NewProgram(
		bubble,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithReportFocus(),
	).Run()
	return err
}
