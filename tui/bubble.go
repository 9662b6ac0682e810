package tui

import (
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/livetv-cli/livetv/controller"
	"github.com/livetv-cli/livetv/history"
	"github.com/livetv-cli/livetv/internal/ui"
	"github.com/livetv-cli/livetv/log"
	"github.com/livetv-cli/livetv/util"
)

const volumeStep = 0.1

// sessionMsg carries a fresh snapshot after the controller reported a change.
type sessionMsg controller.Session

type surfaceGoneMsg struct{}

// statefulBubble mirrors one controller session and forwards viewer input to it.
type statefulBubble struct {
	state         state
	statesHistory util.Stack[state]

	keymap *statefulKeymap

	// components
	spinnerC  spinner.Model
	progressC progress.Model
	helpC     help.Model
	notifier  *ui.Model

	controller  *controller.Controller
	session     controller.Session
	changes     <-chan struct{}
	unsubscribe func()
	done        chan struct{}
	closeOnce   sync.Once
	onClose     func()
	surfaceGone <-chan struct{}

	// cursor is the highlighted row of the quality panel; 0 is Auto
	cursor   int
	favorite bool

	width, height int
}

func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

func (b *statefulBubble) newState(s state) {
	if b.state == s {
		return
	}
	b.statesHistory.Push(b.state)
	b.setState(s)
}

func (b *statefulBubble) previousState() {
	if b.statesHistory.Len() > 0 {
		b.setState(b.statesHistory.Pop())
	}
}

func (b *statefulBubble) resize(width, height int) {
	x, y := paddingStyle.GetFrameSize()

	b.width = width - x
	b.height = height - y
	b.helpC.Width = b.width
}

// close stops listening to the controller and runs the close callback once.
func (b *statefulBubble) close() {
	b.closeOnce.Do(func() {
		close(b.done)
		b.unsubscribe()
		if b.onClose != nil {
			b.onClose()
		}
	})
}

// waitForSurface reports when the video window went away.
func (b *statefulBubble) waitForSurface() tea.Cmd {
	if b.surfaceGone == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-b.done:
			return nil
		case <-b.surfaceGone:
			return surfaceGoneMsg{}
		}
	}
}

// waitForSession blocks until the controller reports a change.
func (b *statefulBubble) waitForSession() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-b.done:
			return nil
		case <-b.changes:
			return sessionMsg(b.controller.Session())
		}
	}
}

func newBubble(options *Options) *statefulBubble {
	changes, unsubscribe := options.Controller.Subscribe()

	bubble := statefulBubble{
		statesHistory: util.Stack[state]{},
		keymap:        newStatefulKeymap(),
		notifier:      &ui.Model{},
		controller:    options.Controller,
		session:       options.Controller.Session(),
		changes:       changes,
		unsubscribe:   unsubscribe,
		done:          make(chan struct{}),
		onClose:       options.OnClose,
		surfaceGone:   options.SurfaceGone,
	}

	bubble.helpC = help.New()

	bubble.spinnerC = spinner.New()
	bubble.spinnerC.Spinner = spinner.Dot
	bubble.spinnerC.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	bubble.progressC = progress.New(
		progress.WithDefaultGradient(),
		progress.WithoutPercentage(),
		progress.WithWidth(20),
	)

	if src, ok := bubble.session.Source.Get(); ok {
		favorite, err := history.IsFavorite(src.ID)
		if err != nil {
			log.Warnf("tui: read favorites: %v", err)
		}
		bubble.favorite = favorite
	}
	bubble.keymap.canPickQuality = len(bubble.session.Levels) > 0

	if w, h, err := util.TerminalSize(); err == nil {
		bubble.resize(w, h)
	}

	return &bubble
}
