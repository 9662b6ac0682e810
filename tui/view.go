package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/livetv-cli/livetv/color"
	"github.com/livetv-cli/livetv/controller"
	"github.com/livetv-cli/livetv/engine"
	"github.com/livetv-cli/livetv/icon"
	"github.com/livetv-cli/livetv/style"
	"github.com/livetv-cli/livetv/util"
	"github.com/muesli/reflow/wrap"
)

var (
	paddingStyle = lipgloss.NewStyle().Padding(1, 2)
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(style.BorderColor).Padding(0, 1)
	cursorStyle  = lipgloss.NewStyle().Foreground(style.AccentColor).Bold(true)
)

func (b *statefulBubble) View() string {
	s := b.session

	var sections []string
	if !s.Fullscreen || s.ControlsVisible {
		sections = append(sections, b.viewHeader())
	}

	stage := b.viewStage()
	if b.state == settingsState {
		stage = b.viewSettings()
	}

	var bottom []string
	if s.ControlsVisible {
		bottom = append(bottom, b.viewControls())
	}
	if !s.Fullscreen {
		bottom = append(bottom, b.viewInfo(), b.helpC.View(b.keymap))
	}

	used := lipgloss.Height(strings.Join(append(sections, bottom...), "\n"))
	sections = append(sections, lipgloss.Place(
		b.width, max(b.height-used, 3),
		lipgloss.Center, lipgloss.Center,
		stage,
	))
	sections = append(sections, bottom...)

	return b.notifier.View(paddingStyle.Render(strings.Join(sections, "\n")))
}

func (b *statefulBubble) viewHeader() string {
	s := b.session
	src, _ := s.Source.Get()

	marker := icon.Get(icon.Signal)
	if src.Logo.IsPresent() {
		// the first letter stands in for the channel logo
		marker = style.Tag(style.Base, style.AccentColor)(strings.ToUpper(firstRune(src.Name)))
	}

	favorite := icon.Get(icon.Unfavorite)
	if b.favorite {
		favorite = icon.Get(icon.Favorite)
	}

	status := style.Status(s.Connection == controller.Connected, s.Connection == controller.Connecting)(s.Connection.String())

	parts := []string{marker, style.Bold(src.Name), style.Live("LIVE"), status}
	if len(s.Levels) > 0 {
		parts = append(parts, style.Faint(util.Quantify(len(s.Levels), "level", "levels")))
	}
	parts = append(parts, favorite)

	return style.Truncate(b.width)(strings.Join(parts, "  "))
}

// viewStage renders the overlay in place of the video: loading, error or the playback state.
func (b *statefulBubble) viewStage() string {
	s := b.session

	switch {
	case s.Connection == controller.Error:
		return b.viewError()
	case s.Connection == controller.Connecting:
		return b.spinnerC.View() + " Loading stream..."
	case s.Connection == controller.Idle:
		return style.Faint("Nothing is playing")
	case s.Play == controller.Loading:
		return b.spinnerC.View() + " Buffering..."
	case s.Play == controller.Playing:
		playing := "Playing"
		if level, ok := s.ActiveLevel().Get(); ok {
			playing = fmt.Sprintf("Playing %s", level.Label)
		}
		return icon.Get(icon.Play) + " " + style.Fg(color.Green)(playing)
	default:
		return icon.Get(icon.Pause) + " " + style.Faint("Paused")
	}
}

func (b *statefulBubble) viewError() string {
	err, ok := b.session.LastError.Get()
	if !ok {
		return style.ErrorTitle("Connection Error")
	}

	width := max(min(b.width-4, 60), 20)
	lines := []string{
		style.ErrorTitle("Connection Error"),
		"",
		wrap.String(icon.Get(icon.Fail)+" "+err.Message(), width),
		"",
	}

	if b.session.CanRetry() {
		lines = append(lines, style.Fg(color.Orange)("r")+" retry   "+style.Faint("q")+" close")
	} else {
		lines = append(lines, style.Faint("q")+" close")
	}

	return panelStyle.BorderForeground(style.ErrorColor).Render(strings.Join(lines, "\n"))
}

func (b *statefulBubble) viewSettings() string {
	s := b.session
	active := s.Selection.ActiveIndex()

	row := func(i int, label string, selected bool) string {
		prefix := "  "
		if b.cursor == i {
			prefix = cursorStyle.Render("> ")
		}
		if selected {
			label += " " + icon.Get(icon.Check)
			if s.Selection.IsPending() {
				label += style.Faint(" (switching)")
			}
		}
		if b.cursor == i {
			label = cursorStyle.Render(label)
		}
		return prefix + label
	}

	auto := "Auto"
	if s.Selection.IsAutomatic() {
		if level, ok := s.ActiveLevel().Get(); ok {
			auto = fmt.Sprintf("Auto (%s)", level.Label)
		}
	}

	lines := []string{style.Title("Quality"), "", row(0, auto, s.Selection.IsAutomatic())}
	for _, level := range s.Levels {
		lines = append(lines, row(level.Index+1, fmt.Sprintf("%d  %s", level.Index, level.Describe()), active == level.Index))
	}

	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (b *statefulBubble) viewControls() string {
	s := b.session

	play := icon.Get(icon.Play)
	if s.Playing() {
		play = icon.Get(icon.Pause)
	}

	volume := icon.Get(icon.Volume)
	level := s.Audio.Volume
	if s.Audio.Muted {
		volume = icon.Get(icon.Muted)
		level = 0
	}

	quality := icon.Get(icon.Settings) + " " + s.Selection.String()

	parts := []string{
		play,
		volume,
		b.progressC.ViewAs(level),
		fmt.Sprintf("%3d%%", int(level*100+0.5)),
		icon.Get(icon.Restart),
		style.Live("LIVE"),
		quality,
		icon.Get(icon.Fullscreen),
	}

	return style.Truncate(b.width)(strings.Join(parts, "  "))
}

// viewInfo renders the stream info footer.
func (b *statefulBubble) viewInfo() string {
	s := b.session
	if s.Connection != controller.Connected && len(s.Levels) == 0 {
		return style.Faint(s.Connection.String())
	}

	parts := []string{
		util.Quantify(s.Info.Levels, "level", "levels"),
		util.Quantify(s.Info.AudioTracks, "audio track", "audio tracks"),
		util.Quantify(s.Info.Subtitles, "subtitle", "subtitles"),
	}
	if s.Stats.Fragments > 0 {
		parts = append(parts,
			humanize.Bytes(uint64(s.Stats.Bytes)),
			humanize.SI(s.Stats.Bandwidth, "bps"),
		)
	}

	return style.Faint(style.Truncate(b.width)(strings.Join(parts, " · ")))
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return "?"
}

// levelLabel names the level a selection points at.
func levelLabel(levels []engine.Level, index int) string {
	if index < 0 || index >= len(levels) {
		return "auto"
	}
	return levels[index].Label
}
