// Package icon provides a flexible multi-variant rendering engine for UI symbols and feedback indicators.
//
// Icons can be displayed as emoji, nerd-font glyphs, plain ASCII, kaomoji,
// or Unicode squares depending on user preference.
package icon

import (
	"github.com/livetv-cli/livetv/key"
	"github.com/spf13/viper"
)

// Visual Variant Constants - these define the supported aesthetic styles for icon rendering.
const (
	emoji   = "emoji"
	nerd    = "nerd"
	plain   = "plain"
	kaomoji = "kaomoji"
	squares = "squares"
)

// AvailableVariants returns a slice of all registered icon style identifiers.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain, kaomoji, squares}
}

// Icon identifies a symbol in the registry.
type Icon int

const (
	Success Icon = iota
	Fail
	Progress
	Play
	Pause
	Muted
	Volume
	Live
	Signal
	Settings
	Fullscreen
	Restart
	Favorite
	Unfavorite
	Check
)

type iconDef struct {
	emoji   string
	nerd    string
	plain   string
	kaomoji string
	squares string
}

// Get retrieves the representation matching the configured icons variant.
func (d *iconDef) Get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	case kaomoji:
		return d.kaomoji
	case squares:
		return d.squares
	default:
		return ""
	}
}

var icons = map[Icon]*iconDef{
	Success:    {emoji: "🎉", nerd: "", plain: "✓", kaomoji: "(ᵔ◡ᵔ)", squares: "🟩"},
	Fail:       {emoji: "💀", nerd: "", plain: "✗", kaomoji: "(╯°□°)╯", squares: "🟥"},
	Progress:   {emoji: "👾", nerd: "", plain: "~", kaomoji: "(๑•̀ㅂ•́)و✧", squares: "🟦"},
	Play:       {emoji: "▶️", nerd: "", plain: "▶", kaomoji: "(>‿<)", squares: "🟩"},
	Pause:      {emoji: "⏸️", nerd: "", plain: "॥", kaomoji: "(-_-)", squares: "🟨"},
	Muted:      {emoji: "🔇", nerd: "", plain: "x", kaomoji: "(˘_˘)", squares: "⬛"},
	Volume:     {emoji: "🔊", nerd: "", plain: "♪", kaomoji: "ヾ(⌐■_■)ノ♪", squares: "🟪"},
	Live:       {emoji: "🔴", nerd: "", plain: "●", kaomoji: "(ﾟoﾟ)", squares: "🟥"},
	Signal:     {emoji: "📡", nerd: "", plain: "≋", kaomoji: "(・o・)", squares: "🟦"},
	Settings:   {emoji: "⚙️", nerd: "", plain: "*", kaomoji: "(¬‿¬)", squares: "🟫"},
	Fullscreen: {emoji: "🖥️", nerd: "", plain: "[ ]", kaomoji: "(⊙_⊙)", squares: "⬜"},
	Restart:    {emoji: "🔁", nerd: "", plain: "↻", kaomoji: "(ง'̀-'́)ง", squares: "🟧"},
	Favorite:   {emoji: "❤️", nerd: "", plain: "♥", kaomoji: "(♥ω♥)", squares: "🟥"},
	Unfavorite: {emoji: "🤍", nerd: "", plain: "♡", kaomoji: "(・_・)", squares: "⬜"},
	Check:      {emoji: "✅", nerd: "", plain: "•", kaomoji: "(•̀ᴗ•́)", squares: "🟩"},
}

// Get returns the rendered string for a specified Icon identifier from the global registry.
func Get(i Icon) string {
	return icons[i].Get()
}
