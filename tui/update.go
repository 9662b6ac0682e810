package tui

import (
	"errors"
	"fmt"
	"strconv"

	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/livetv-cli/livetv/controller"
	"github.com/livetv-cli/livetv/engine"
	"github.com/livetv-cli/livetv/history"
	"github.com/livetv-cli/livetv/internal/ui"
	"github.com/livetv-cli/livetv/log"
	"github.com/livetv-cli/livetv/util"
)

func (b *statefulBubble) Init() tea.Cmd {
	return tea.Batch(b.spinnerC.Tick, b.waitForSession(), b.waitForSurface())
}

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if uiCmd := b.notifier.Update(msg); uiCmd != nil {
		cmd = uiCmd
	}

	switch msg := msg.(type) {
	case sessionMsg:
		b.setSession(controller.Session(msg))
		return b, tea.Batch(cmd, b.waitForSession())
	case surfaceGoneMsg:
		b.close()
		return b, tea.Quit
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
		return b, cmd
	case spinner.TickMsg:
		b.spinnerC, cmd = b.spinnerC.Update(msg)
		return b, cmd
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionMotion {
			b.controller.PointerMoved()
		}
		return b, cmd
	case tea.BlurMsg:
		b.controller.PointerLeft()
		return b, cmd
	case tea.FocusMsg:
		b.controller.PointerMoved()
		return b, cmd
	case tea.KeyMsg:
		if bubblesKey.Matches(msg, b.keymap.forceQuit) {
			b.close()
			return b, tea.Quit
		}

		// any key counts as activity for the auto-hide timer
		b.controller.PointerMoved()

		switch b.state {
		case settingsState:
			return b, tea.Batch(cmd, b.updateSettings(msg))
		default:
			return b.updateWatch(msg, cmd)
		}
	}

	return b, cmd
}

func (b *statefulBubble) setSession(s controller.Session) {
	b.session = s
	b.keymap.canPickQuality = len(s.Levels) > 0
	b.cursor = util.Clamp(b.cursor, 0, len(s.Levels))

	if b.state == settingsState && len(s.Levels) == 0 {
		b.previousState()
	}
}

func (b *statefulBubble) updateWatch(msg tea.KeyMsg, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	var err error

	switch {
	case bubblesKey.Matches(msg, b.keymap.close):
		b.close()
		return b, tea.Quit
	case bubblesKey.Matches(msg, b.keymap.playPause):
		err = b.controller.TogglePlay()
	case bubblesKey.Matches(msg, b.keymap.mute):
		err = b.controller.ToggleMute()
	case bubblesKey.Matches(msg, b.keymap.volumeUp):
		err = b.controller.StepVolume(volumeStep)
	case bubblesKey.Matches(msg, b.keymap.volumeDown):
		err = b.controller.StepVolume(-volumeStep)
	case bubblesKey.Matches(msg, b.keymap.restart):
		if b.session.Connection == controller.Error && !b.session.CanRetry() {
			return b, tea.Batch(cmd, ui.Notify("Retrying will not help on this platform"))
		}
		err = b.controller.Restart()
	case bubblesKey.Matches(msg, b.keymap.fullscreen):
		err = b.controller.ToggleFullscreen()
	case bubblesKey.Matches(msg, b.keymap.favorite):
		return b, tea.Batch(cmd, b.toggleFavorite())
	case bubblesKey.Matches(msg, b.keymap.settings):
		if !b.keymap.canPickQuality {
			return b, tea.Batch(cmd, ui.Notify("No quality levels yet"))
		}
		b.cursor = b.session.Selection.ActiveIndex() + 1
		b.newState(settingsState)
	case bubblesKey.Matches(msg, b.keymap.showHelp):
		b.helpC.ShowAll = !b.helpC.ShowAll
	}

	if err != nil {
		return b, tea.Batch(cmd, b.notifyError(err))
	}
	return b, cmd
}

func (b *statefulBubble) updateSettings(msg tea.KeyMsg) tea.Cmd {
	choose := func(index int) tea.Cmd {
		b.previousState()
		if err := b.controller.SetQualityOverride(index); err != nil {
			return b.notifyError(err)
		}
		return ui.Notify("Quality: " + levelLabel(b.session.Levels, index))
	}

	switch {
	case bubblesKey.Matches(msg, b.keymap.back):
		b.previousState()
	case bubblesKey.Matches(msg, b.keymap.up):
		b.cursor = max(b.cursor-1, 0)
	case bubblesKey.Matches(msg, b.keymap.down):
		b.cursor = min(b.cursor+1, len(b.session.Levels))
	case bubblesKey.Matches(msg, b.keymap.auto):
		return choose(engine.Auto)
	case bubblesKey.Matches(msg, b.keymap.confirm):
		return choose(b.cursor - 1)
	case bubblesKey.Matches(msg, b.keymap.level):
		index, _ := strconv.Atoi(msg.String())
		if index >= len(b.session.Levels) {
			return b.notifyError(controller.ErrInvalidLevel)
		}
		return choose(index)
	}

	return nil
}

func (b *statefulBubble) toggleFavorite() tea.Cmd {
	src, ok := b.session.Source.Get()
	if !ok {
		return nil
	}

	favorite, err := history.ToggleFavorite(src)
	if err != nil {
		return b.notifyError(err)
	}
	b.favorite = favorite

	if favorite {
		return ui.Notify(fmt.Sprintf("Added %s to favorites", src.Name))
	}
	return ui.Notify(fmt.Sprintf("Removed %s from favorites", src.Name))
}

func (b *statefulBubble) notifyError(err error) tea.Cmd {
	switch {
	case errors.Is(err, controller.ErrNotConnected):
		return ui.Notify("Not connected yet")
	case errors.Is(err, controller.ErrNoLevels):
		return ui.Notify("No quality levels yet")
	default:
		log.Warnf("tui: %v", err)
		return ui.Notify(err.Error())
	}
}
