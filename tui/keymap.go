package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/livetv-cli/livetv/color"
	"github.com/livetv-cli/livetv/style"
)

// statefulKeymap holds the bindings of both panels and reports the ones that apply to the current one.
type statefulKeymap struct {
	state state

	// set when the session has levels to choose from
	canPickQuality bool

	close, forceQuit,
	playPause, mute,
	volumeUp, volumeDown,
	restart, fullscreen, favorite,
	settings, auto, level, confirm, back,
	up, down,
	showHelp key.Binding
}

func (k *statefulKeymap) setState(newState state) {
	k.state = newState
}

func newStatefulKeymap() *statefulKeymap {
	return &statefulKeymap{
		close: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "close"),
		),
		forceQuit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "close"),
		),
		playPause: key.NewBinding(
			key.WithKeys(" ", "k"),
			key.WithHelp(style.Fg(color.Orange)("space"), style.Fg(color.Orange)("play/pause")),
		),
		mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		volumeUp: key.NewBinding(
			key.WithKeys("up", "+", "="),
			key.WithHelp("↑", "volume up"),
		),
		volumeDown: key.NewBinding(
			key.WithKeys("down", "-"),
			key.WithHelp("↓", "volume down"),
		),
		restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart"),
		),
		fullscreen: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fullscreen"),
		),
		favorite: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "favorite"),
		),
		settings: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "quality"),
		),
		auto: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "auto"),
		),
		level: key.NewBinding(
			key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("0-9", "level"),
		),
		confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		back: key.NewBinding(
			key.WithKeys("esc", "s"),
			key.WithHelp("esc", "back"),
		),
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓", "down"),
		),
		showHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

func (k *statefulKeymap) help() ([]key.Binding, []key.Binding) {
	h := func(bindings ...key.Binding) []key.Binding {
		return bindings
	}

	switch k.state {
	case settingsState:
		return h(k.confirm, k.auto, k.back), h(k.up, k.down, k.confirm, k.auto, k.level, k.back, k.forceQuit)
	default:
		short := h(k.playPause, k.mute, k.restart)
		full := h(k.playPause, k.mute, k.volumeUp, k.volumeDown, k.restart, k.fullscreen, k.favorite)
		if k.canPickQuality {
			short = append(short, k.settings)
			full = append(full, k.settings)
		}
		return append(short, k.showHelp, k.close), append(full, k.close)
	}
}

func (k *statefulKeymap) ShortHelp() []key.Binding {
	short, _ := k.help()
	return short
}

func (k *statefulKeymap) FullHelp() [][]key.Binding {
	_, full := k.help()
	return [][]key.Binding{full}
}
